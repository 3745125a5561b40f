package negotiation

import (
	"time"

	"github.com/imrishuroy/bargainbot/internal/oracle"
)

// Request is a shopper's submission: the product to bargain for.
type Request struct {
	ProductLink string `json:"productLink" validate:"required,url"`
}

// Result joins the negotiation outcome with the upsell suggestions. Both
// halves are always present.
type Result struct {
	Negotiation oracle.PriceNegotiation  `json:"negotiation"`
	Upsells     oracle.UpsellSuggestions `json:"upsells"`
}

// Status of a history record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record is one entry of a shopper's negotiation history.
type Record struct {
	ID          string     `json:"id"`
	ProductLink string     `json:"productLink"`
	Status      Status     `json:"status"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	SettledAt   *time.Time `json:"settledAt,omitempty"`
}

// Preferences configure the negotiation strategy.
type Preferences struct {
	Aggressiveness         string  `json:"aggressiveness" validate:"required,oneof=low medium high"`
	AcceptablePriceRange   float64 `json:"acceptablePriceRange" validate:"gt=0"`
	AdditionalInstructions string  `json:"additionalInstructions,omitempty" validate:"max=2000"`
}

// PreferenceOutcome is reported back to the shopper; failures are values,
// not errors.
type PreferenceOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
