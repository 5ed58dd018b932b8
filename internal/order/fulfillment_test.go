package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockOrderStore struct {
	Orders      map[uuid.UUID]*model.Order
	TrackingErr error
	ShipErr     error
	ShipDenied  bool
}

func (m *MockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (m *MockOrderStore) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string, carrier string) error {
	if m.TrackingErr != nil {
		return m.TrackingErr
	}
	order, ok := m.Orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.TrackingNumber = trackingNumber
	order.ShippingCarrier = carrier
	return nil
}

func (m *MockOrderStore) MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) (bool, error) {
	if m.ShipErr != nil {
		return false, m.ShipErr
	}
	if m.ShipDenied {
		return false, nil
	}
	order, ok := m.Orders[id]
	if !ok || order.Status != model.OrderStatusPaid || order.TrackingNumber == "" {
		return false, nil
	}
	order.Status = model.OrderStatusShipped
	order.ShippedAt = &shippedAt
	return true, nil
}

type MockRequestLookup struct {
	Requests map[uuid.UUID]*model.CustomOrderRequest
}

func (m *MockRequestLookup) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.CustomOrderRequest, error) {
	request, ok := m.Requests[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return request, nil
}

type MockShipmentNotifier struct {
	Err       error
	Shipments []*model.Order
	Requests  []*model.CustomOrderRequest
}

func (m *MockShipmentNotifier) SendOrderShipped(ctx context.Context, order *model.Order, request *model.CustomOrderRequest) error {
	if m.Err != nil {
		return m.Err
	}
	m.Shipments = append(m.Shipments, order)
	m.Requests = append(m.Requests, request)
	return nil
}

type fulfillmentFixture struct {
	orders   *MockOrderStore
	requests *MockRequestLookup
	notifier *MockShipmentNotifier
	svc      *Fulfillment
}

func newFulfillmentFixture() *fulfillmentFixture {
	f := &fulfillmentFixture{
		orders:   &MockOrderStore{Orders: map[uuid.UUID]*model.Order{}},
		requests: &MockRequestLookup{Requests: map[uuid.UUID]*model.CustomOrderRequest{}},
		notifier: &MockShipmentNotifier{},
	}
	f.svc = NewFulfillment(f.orders, f.requests, f.notifier, zap.NewNop())
	return f
}

func paidOrder() *model.Order {
	return &model.Order{
		ID:            uuid.New(),
		Status:        model.OrderStatusPaid,
		CustomerEmail: "buyer@example.com",
	}
}

// --- Tests ---

func TestFulfillment_SetTracking(t *testing.T) {
	ctx := context.Background()

	t.Run("stores tracking with the named carrier", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		f.orders.Orders[order.ID] = order

		updated, err := f.svc.SetTracking(ctx, order.ID, "1Z999AA10123456784", "UPS")
		require.NoError(t, err)
		assert.Equal(t, "1Z999AA10123456784", updated.TrackingNumber)
		assert.Equal(t, "UPS", updated.ShippingCarrier)
	})

	t.Run("carrier defaults when omitted", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		f.orders.Orders[order.ID] = order

		updated, err := f.svc.SetTracking(ctx, order.ID, "9400100000000000000001", "")
		require.NoError(t, err)
		assert.Equal(t, "USPS", updated.ShippingCarrier)
	})

	t.Run("tracking number is required", func(t *testing.T) {
		f := newFulfillmentFixture()

		_, err := f.svc.SetTracking(ctx, uuid.New(), "", "UPS")
		require.Error(t, err)
		assert.Equal(t, "tracking number is required", err.Error())
	})

	t.Run("unknown order id", func(t *testing.T) {
		f := newFulfillmentFixture()

		_, err := f.svc.SetTracking(ctx, uuid.New(), "9400100000000000000001", "")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestFulfillment_MarkShipped(t *testing.T) {
	ctx := context.Background()

	t.Run("ships a paid order with stored tracking", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		order.TrackingNumber = "9400100000000000000001"
		order.ShippingCarrier = "USPS"
		f.orders.Orders[order.ID] = order

		result := f.svc.MarkShipped(ctx, []ShipInput{{OrderID: order.ID}})
		assert.Equal(t, []string{order.ID.String()}, result.Succeeded)
		assert.Empty(t, result.Errors)

		assert.Equal(t, model.OrderStatusShipped, order.Status)
		require.NotNil(t, order.ShippedAt)
		require.Len(t, f.notifier.Shipments, 1)
		assert.Nil(t, f.notifier.Requests[0], "regular orders ship without a custom request")
	})

	t.Run("tracking supplied in the same action is stored first", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		f.orders.Orders[order.ID] = order

		result := f.svc.MarkShipped(ctx, []ShipInput{{
			OrderID:        order.ID,
			TrackingNumber: "1Z999AA10123456784",
			Carrier:        "UPS",
		}})
		assert.Len(t, result.Succeeded, 1)
		assert.Equal(t, "1Z999AA10123456784", order.TrackingNumber)
		assert.Equal(t, "UPS", order.ShippingCarrier)
		assert.Equal(t, model.OrderStatusShipped, order.Status)
	})

	t.Run("per-record failures", func(t *testing.T) {
		f := newFulfillmentFixture()
		noTracking := paidOrder()
		pending := paidOrder()
		pending.Status = model.OrderStatusPending
		pending.TrackingNumber = "9400100000000000000002"
		ghost := uuid.New()
		f.orders.Orders[noTracking.ID] = noTracking
		f.orders.Orders[pending.ID] = pending

		result := f.svc.MarkShipped(ctx, []ShipInput{
			{OrderID: ghost},
			{OrderID: noTracking.ID},
			{OrderID: pending.ID},
		})
		assert.Empty(t, result.Succeeded)
		require.Len(t, result.Errors, 3)
		assert.Equal(t, "order not found", result.Errors[0].Error)
		assert.Equal(t, "no tracking number set, add tracking info first", result.Errors[1].Error)
		assert.Equal(t, "only paid orders can be shipped", result.Errors[2].Error)
	})

	t.Run("lost transition race fails the record", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		order.TrackingNumber = "9400100000000000000003"
		f.orders.Orders[order.ID] = order
		f.orders.ShipDenied = true

		result := f.svc.MarkShipped(ctx, []ShipInput{{OrderID: order.ID}})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "order is no longer paid", result.Errors[0].Error)
		assert.Empty(t, f.notifier.Shipments)
	})

	t.Run("custom order ships with its request attached", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		order.IsCustomOrder = true
		order.TrackingNumber = "9400100000000000000004"
		f.orders.Orders[order.ID] = order
		request := &model.CustomOrderRequest{ID: uuid.New(), Name: "Riley Maker"}
		f.requests.Requests[order.ID] = request

		result := f.svc.MarkShipped(ctx, []ShipInput{{OrderID: order.ID}})
		assert.Len(t, result.Succeeded, 1)
		require.Len(t, f.notifier.Requests, 1)
		assert.Equal(t, request, f.notifier.Requests[0])
	})

	t.Run("missing request record still ships the custom order", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		order.IsCustomOrder = true
		order.TrackingNumber = "9400100000000000000005"
		f.orders.Orders[order.ID] = order

		result := f.svc.MarkShipped(ctx, []ShipInput{{OrderID: order.ID}})
		assert.Len(t, result.Succeeded, 1)
		require.Len(t, f.notifier.Requests, 1)
		assert.Nil(t, f.notifier.Requests[0])
	})

	t.Run("notification failure does not fail the record", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := paidOrder()
		order.TrackingNumber = "9400100000000000000006"
		f.orders.Orders[order.ID] = order
		f.notifier.Err = errors.New("smtp unreachable")

		result := f.svc.MarkShipped(ctx, []ShipInput{{OrderID: order.ID}})
		assert.Len(t, result.Succeeded, 1)
		assert.Equal(t, model.OrderStatusShipped, order.Status)
	})
}
