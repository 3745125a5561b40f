package oracle

// PriceNegotiation is the outcome of the negotiate_price flow.
type PriceNegotiation struct {
	Status          string `json:"status" validate:"required"`
	NegotiatedPrice string `json:"negotiatedPrice,omitempty"`
	Summary         string `json:"summary" validate:"required"`
}

// UpsellSuggestions is the outcome of the suggest_upsells flow; order is
// the oracle's ranking.
type UpsellSuggestions struct {
	Suggestions []string `json:"suggestions" validate:"required,dive,required"`
}

// ProductFinding is one purchasable option found by research_products.
type ProductFinding struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Price       string `json:"price" validate:"required"` // "UGX 1,200,000"
	Store       string `json:"store" validate:"required"`
}

type researchOutput struct {
	Products []ProductFinding `json:"products" validate:"required,dive"`
}

// ShoppingItem is one line of a suggested shopping list.
type ShoppingItem struct {
	ItemName        string `json:"itemName" validate:"required"`
	Category        string `json:"category" validate:"required"`
	EstimatedPrice  string `json:"estimatedPrice" validate:"required"`
	SuggestedMarket string `json:"suggestedMarket" validate:"required"`
}

type shoppingListOutput struct {
	Items []ShoppingItem `json:"shoppingList" validate:"required,dive"`
}

// PreferenceInput is what manage_preferences forwards for acknowledgement.
type PreferenceInput struct {
	Aggressiveness         string
	AcceptablePriceRange   float64
	AdditionalInstructions string
}

// PreferenceAck is the oracle's acknowledgement of a strategy update.
type PreferenceAck struct {
	Success bool   `json:"success"`
	Message string `json:"message" validate:"required"`
}
