package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/bargainbot/internal/validation"
)

// NewOrder builds a placed order from a validated checkout request.
func NewOrder(req validation.CheckoutRequest, idempotencyKey string, now time.Time) Order {
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{
			Name:            it.ItemName,
			Category:        it.Category,
			EstimatedPrice:  it.EstimatedPrice,
			SuggestedMarket: it.SuggestedMarket,
		})
	}
	quote := NewQuote(items)

	return Order{
		OrderID:        uuid.NewString(),
		IdempotencyKey: idempotencyKey,
		Status:         StatusPlaced,
		Items:          items,
		Delivery: DeliveryDetails{
			FullName:      req.FullName,
			Phone:         req.Phone,
			Address:       req.Address,
			PaymentMethod: req.PaymentMethod,
		},
		Quote:        quote,
		TotalDisplay: FormatUGX(quote.Total),
		PlacedAt:     now.UTC(),
	}
}

// Message is what the dispatch worker receives for o.
func (o Order) Message(correlationID string) PlacedMessage {
	return PlacedMessage{
		OrderID:        o.OrderID,
		IdempotencyKey: o.IdempotencyKey,
		Total:          o.Quote.Total,
		ItemCount:      len(o.Items),
		Address:        o.Delivery.Address,
		CorrelationID:  correlationID,
	}
}
