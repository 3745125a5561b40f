package validation

// CheckoutItem is one shopping-list line carried into checkout.
type CheckoutItem struct {
	ItemName        string `json:"itemName" validate:"required"`
	Category        string `json:"category,omitempty"`
	EstimatedPrice  string `json:"estimatedPrice" validate:"required,ugxprice"` // e.g. "UGX 15,000"
	SuggestedMarket string `json:"suggestedMarket,omitempty"`
}

// CheckoutRequest is the payload for POST /orders
type CheckoutRequest struct {
	FullName      string         `json:"fullName" validate:"required,min=3"`
	Phone         string         `json:"phone" validate:"required,min=10"`
	Address       string         `json:"address" validate:"required,min=10"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=mobile_money card"`
	Items         []CheckoutItem `json:"items" validate:"required,min=1,dive"`
}

// ResearchRequest is the payload for POST /research
type ResearchRequest struct {
	ProductDescription string `json:"productDescription" validate:"required,min=3"`
}

// ShoppingListRequest is the payload for POST /shopping-list
type ShoppingListRequest struct {
	Prompt string `json:"prompt" validate:"required,min=10"`
}
