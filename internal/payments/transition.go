package payments

import "github.com/keycasey/Spirit-Beads-Service/internal/model"

// Effect names a side effect owed after a payment transition applies
type Effect string

const (
	// EffectDeductInventory subtracts the sold quantities from stock
	EffectDeductInventory Effect = "deduct_inventory"
	// EffectSendConfirmation emails the customer an order confirmation
	EffectSendConfirmation Effect = "send_confirmation"
)

// PaymentTransition decides what a completed-payment event does to an order
// in the given prior status. It returns the next status, the side effects
// owed if the transition applies, and whether it applies at all. The caller
// executes the effects only after the persistence layer confirms the guarded
// status update, so an order is paid, deducted, and confirmed at most once.
func PaymentTransition(prior model.OrderStatus) (model.OrderStatus, []Effect, bool) {
	switch prior {
	case model.OrderStatusPending:
		return model.OrderStatusPaid, []Effect{EffectDeductInventory, EffectSendConfirmation}, true
	default:
		// Already paid, shipped, or failed: the event changes nothing
		return prior, nil, false
	}
}
