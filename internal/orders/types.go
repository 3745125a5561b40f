// Package orders is the checkout domain: pricing a shopping list, placing
// the order and handing it to dispatch.
package orders

import "time"

// Order statuses
const (
	StatusPlaced     = "PLACED"
	StatusDispatched = "DISPATCHED"
)

// Payment methods accepted at checkout. Payment is not charged here.
const (
	PaymentMobileMoney = "mobile_money"
	PaymentCard        = "card"
)

// Item is one line of the order, priced as the shopper saw it.
type Item struct {
	Name            string `json:"itemName"`
	Category        string `json:"category,omitempty"`
	EstimatedPrice  string `json:"estimatedPrice"` // "UGX 15,000"
	SuggestedMarket string `json:"suggestedMarket,omitempty"`
}

// DeliveryDetails says where and to whom the order goes.
type DeliveryDetails struct {
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

// Quote amounts are whole Uganda shillings.
type Quote struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"deliveryFee"`
	Total       int64 `json:"total"`
}

type Order struct {
	OrderID        string          `json:"order_id"`
	IdempotencyKey string          `json:"-"`
	Status         string          `json:"status"`
	Items          []Item          `json:"items"`
	Delivery       DeliveryDetails `json:"delivery"`
	Quote          Quote           `json:"quote"`
	TotalDisplay   string          `json:"total_display"`
	PlacedAt       time.Time       `json:"placed_at"`
}

// PlacedMessage is the payload sent from API -> SQS -> Worker.
type PlacedMessage struct {
	OrderID        string `json:"order_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Total          int64  `json:"total"`
	ItemCount      int    `json:"item_count"`
	Address        string `json:"address"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

// Assignment is the rider picked up for a dispatched order.
type Assignment struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	Rider      string    `json:"rider"`
	Plate      string    `json:"plate"`
	AssignedAt time.Time `json:"assigned_at"`
}
