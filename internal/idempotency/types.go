package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record is the shape persisted in the idempotency DynamoDB table.
type Record struct {
	Key            string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"` // small JSON responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// Claim is the outcome of Acquire. When Acquired is false, Existing holds the
// record another attempt already owns.
type Claim struct {
	Acquired bool
	Existing *Record
}

// CheckoutKey scopes a client-supplied Idempotency-Key to checkout.
func CheckoutKey(clientKey string) string { return "checkout#" + clientKey }

// DispatchKey dedupes dispatch of one order.
func DispatchKey(orderID string) string { return "dispatch#" + orderID }
