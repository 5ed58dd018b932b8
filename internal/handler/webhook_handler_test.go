package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockWebhookVerifier struct {
	Event      *payments.Event
	Err        error
	GotPayload []byte
}

func (m *MockWebhookVerifier) VerifyEvent(payload []byte, signature string) (*payments.Event, error) {
	m.GotPayload = payload
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Event, nil
}

type MockWebhookLog struct {
	Seen map[string]bool
}

func (m *MockWebhookLog) InsertOnce(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	if m.Seen == nil {
		m.Seen = map[string]bool{}
	}
	if m.Seen[event.EventID] {
		return false, nil
	}
	m.Seen[event.EventID] = true
	return true, nil
}

type MockWebhookOrders struct {
	Orders map[string]*model.Order
}

func (m *MockWebhookOrders) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	order, ok := m.Orders[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (m *MockWebhookOrders) MarkPaid(ctx context.Context, id uuid.UUID, prior model.OrderStatus, update repository.PaidUpdate) (bool, error) {
	for _, order := range m.Orders {
		if order.ID == id && order.Status == prior {
			order.Status = model.OrderStatusPaid
			return true, nil
		}
	}
	return false, nil
}

type MockWebhookInventory struct{}

func (MockWebhookInventory) DeductInventory(ctx context.Context, id string, quantity int) error {
	return nil
}

type MockWebhookRequests struct{}

func (MockWebhookRequests) GetByID(ctx context.Context, id uuid.UUID) (*model.CustomOrderRequest, error) {
	return nil, repository.ErrNotFound
}

func (MockWebhookRequests) LinkPaidOrder(ctx context.Context, id uuid.UUID, order *model.Order) (bool, error) {
	return false, nil
}

type MockWebhookNotifier struct{}

func (MockWebhookNotifier) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	return nil
}

func (MockWebhookNotifier) SendPaymentReceived(ctx context.Context, request *model.CustomOrderRequest, order *model.Order) error {
	return nil
}

func initWebhookForTest(verifier *MockWebhookVerifier, orders *MockWebhookOrders) {
	reconciler := payments.NewReconciler(verifier, &MockWebhookLog{}, orders,
		MockWebhookInventory{}, MockWebhookRequests{}, MockWebhookNotifier{}, zap.NewNop())
	InitWebhookHandler(reconciler)
}

// --- Tests ---

func TestHandleStripeWebhook(t *testing.T) {
	sessionRaw := `{"id": "cs_hook_1", "amount_total": 1500, "payment_intent": "pi_1", "customer_details": {"email": "buyer@example.com"}}`

	t.Run("verified event settles the order with 200", func(t *testing.T) {
		verifier := &MockWebhookVerifier{Event: &payments.Event{
			ID:   "evt_hook_1",
			Type: payments.EventCheckoutSessionCompleted,
			Raw:  []byte(sessionRaw),
		}}
		orders := &MockWebhookOrders{Orders: map[string]*model.Order{
			"cs_hook_1": {ID: uuid.New(), StripeSessionID: "cs_hook_1", Status: model.OrderStatusPending},
		}}
		initWebhookForTest(verifier, orders)

		c, rec := postJSON("/api/payments/webhook", sessionRaw)
		c.Request().Header.Set("Stripe-Signature", "t=1,v1=aa")
		require.NoError(t, HandleStripeWebhook(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "processed"}`, rec.Body.String())
		assert.Equal(t, model.OrderStatusPaid, orders.Orders["cs_hook_1"].Status)
	})

	t.Run("redelivery acknowledges without reprocessing", func(t *testing.T) {
		verifier := &MockWebhookVerifier{Event: &payments.Event{
			ID:   "evt_hook_2",
			Type: payments.EventCheckoutSessionCompleted,
			Raw:  []byte(sessionRaw),
		}}
		orders := &MockWebhookOrders{Orders: map[string]*model.Order{
			"cs_hook_1": {ID: uuid.New(), StripeSessionID: "cs_hook_1", Status: model.OrderStatusPending},
		}}
		initWebhookForTest(verifier, orders)

		c, _ := postJSON("/api/payments/webhook", sessionRaw)
		require.NoError(t, HandleStripeWebhook(c))

		c, rec := postJSON("/api/payments/webhook", sessionRaw)
		require.NoError(t, HandleStripeWebhook(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "duplicate"}`, rec.Body.String())
	})

	t.Run("invalid signature is the only client fault", func(t *testing.T) {
		verifier := &MockWebhookVerifier{Err: payments.ErrInvalidSignature}
		initWebhookForTest(verifier, &MockWebhookOrders{})

		c, rec := postJSON("/api/payments/webhook", sessionRaw)
		require.NoError(t, HandleStripeWebhook(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "Invalid signature"}`, rec.Body.String())
	})

	t.Run("unrelated event types are acknowledged as ignored", func(t *testing.T) {
		verifier := &MockWebhookVerifier{Event: &payments.Event{
			ID:   "evt_hook_3",
			Type: "invoice.created",
			Raw:  []byte("{}"),
		}}
		initWebhookForTest(verifier, &MockWebhookOrders{})

		c, rec := postJSON("/api/payments/webhook", "{}")
		require.NoError(t, HandleStripeWebhook(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "ignored"}`, rec.Body.String())
	})

	t.Run("oversized payloads are capped before verification", func(t *testing.T) {
		verifier := &MockWebhookVerifier{Err: payments.ErrInvalidSignature}
		initWebhookForTest(verifier, &MockWebhookOrders{})

		padded := make([]byte, maxWebhookBody+512)
		for i := range padded {
			padded[i] = 'a'
		}
		c, rec := postJSON("/api/payments/webhook", string(padded))
		require.NoError(t, HandleStripeWebhook(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, verifier.GotPayload, maxWebhookBody)
	})
}
