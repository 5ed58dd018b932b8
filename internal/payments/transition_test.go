package payments

import (
	"testing"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestPaymentTransition(t *testing.T) {
	t.Run("pending order transitions to paid with both effects", func(t *testing.T) {
		next, effects, ok := PaymentTransition(model.OrderStatusPending)

		assert.True(t, ok)
		assert.Equal(t, model.OrderStatusPaid, next)
		assert.Equal(t, []Effect{EffectDeductInventory, EffectSendConfirmation}, effects)
	})

	t.Run("settled orders do not transition again", func(t *testing.T) {
		for _, prior := range []model.OrderStatus{
			model.OrderStatusPaid,
			model.OrderStatusShipped,
			model.OrderStatusFailed,
		} {
			next, effects, ok := PaymentTransition(prior)

			assert.False(t, ok, "status %s", prior)
			assert.Equal(t, prior, next, "status %s", prior)
			assert.Nil(t, effects, "status %s", prior)
		}
	})
}
