// Package tracking simulates delivery progress for placed orders.
package tracking

// Milestone is one step of a delivery.
type Milestone struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var milestones = [...]Milestone{
	{Name: "Order Placed", Description: "We have received your order."},
	{Name: "Rider Assigned", Description: "A rider is on their way to the market."},
	{Name: "Items Purchased", Description: "The rider has purchased all your items."},
	{Name: "Out for Delivery", Description: "Your items are on the way to you."},
	{Name: "Delivered", Description: "Your order has been delivered."},
}

// LastIndex is the index of the Delivered milestone.
const LastIndex = len(milestones) - 1

// Milestones returns the delivery steps in order.
func Milestones() []Milestone {
	out := make([]Milestone, len(milestones))
	copy(out, milestones[:])
	return out
}
