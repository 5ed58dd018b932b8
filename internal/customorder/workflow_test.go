package customorder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockRequestStore struct {
	Requests  map[uuid.UUID]*model.CustomOrderRequest
	CreateErr error
	QuoteErr  error
}

func (m *MockRequestStore) Create(ctx context.Context, request *model.CustomOrderRequest) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	m.Requests[request.ID] = request
	return nil
}

func (m *MockRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*model.CustomOrderRequest, error) {
	request, ok := m.Requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return request, nil
}

func (m *MockRequestStore) SetQuote(ctx context.Context, id uuid.UUID, price decimal.NullDecimal, notes string) error {
	if m.QuoteErr != nil {
		return m.QuoteErr
	}
	request, ok := m.Requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	request.QuotedPrice = price
	request.AdminNotes = notes
	return nil
}

func (m *MockRequestStore) MarkApproved(ctx context.Context, id uuid.UUID, paymentLink string, paymentLinkID string) (bool, error) {
	request, ok := m.Requests[id]
	if !ok || request.Status != model.CustomOrderStatusPending {
		return false, nil
	}
	request.Status = model.CustomOrderStatusApproved
	request.StripePaymentLink = paymentLink
	request.StripePaymentLinkID = paymentLinkID
	return true, nil
}

func (m *MockRequestStore) MarkRejected(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, model.CustomOrderStatusPending, model.CustomOrderStatusRejected)
}

func (m *MockRequestStore) MarkInProduction(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, model.CustomOrderStatusPaid, model.CustomOrderStatusInProduction)
}

func (m *MockRequestStore) MarkShipped(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, model.CustomOrderStatusInProduction, model.CustomOrderStatusShipped)
}

func (m *MockRequestStore) transition(id uuid.UUID, prior model.CustomOrderStatus, next model.CustomOrderStatus) (bool, error) {
	request, ok := m.Requests[id]
	if !ok || request.Status != prior {
		return false, nil
	}
	request.Status = next
	return true, nil
}

type MockLinkedOrderStore struct {
	Orders map[uuid.UUID]*model.Order
}

func (m *MockLinkedOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (m *MockLinkedOrderStore) MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) (bool, error) {
	order, ok := m.Orders[id]
	if !ok || order.Status != model.OrderStatusPaid || order.TrackingNumber == "" {
		return false, nil
	}
	order.Status = model.OrderStatusShipped
	order.ShippedAt = &shippedAt
	return true, nil
}

type MockLinkGateway struct {
	PriceErr   error
	LinkErr    error
	PriceSpecs []payments.PriceSpec
	LinkSpecs  []payments.PaymentLinkSpec
}

func (m *MockLinkGateway) CreatePrice(ctx context.Context, spec payments.PriceSpec) (string, error) {
	if m.PriceErr != nil {
		return "", m.PriceErr
	}
	m.PriceSpecs = append(m.PriceSpecs, spec)
	return "price_custom_1", nil
}

func (m *MockLinkGateway) CreatePaymentLink(ctx context.Context, spec payments.PaymentLinkSpec) (*payments.PaymentLink, error) {
	if m.LinkErr != nil {
		return nil, m.LinkErr
	}
	m.LinkSpecs = append(m.LinkSpecs, spec)
	return &payments.PaymentLink{ID: "plink_1", URL: "https://pay.example.com/plink_1"}, nil
}

type MockWorkflowNotifier struct {
	AlertErr   error
	ShippedErr error
	Alerts     []*model.CustomOrderRequest
	Approvals  []*model.CustomOrderRequest
	Rejections []*model.CustomOrderRequest
	Shipments  []*model.Order
}

func (m *MockWorkflowNotifier) SendNewRequestAlert(ctx context.Context, request *model.CustomOrderRequest) error {
	if m.AlertErr != nil {
		return m.AlertErr
	}
	m.Alerts = append(m.Alerts, request)
	return nil
}

func (m *MockWorkflowNotifier) SendApproval(ctx context.Context, request *model.CustomOrderRequest) error {
	m.Approvals = append(m.Approvals, request)
	return nil
}

func (m *MockWorkflowNotifier) SendRejection(ctx context.Context, request *model.CustomOrderRequest) error {
	m.Rejections = append(m.Rejections, request)
	return nil
}

func (m *MockWorkflowNotifier) SendOrderShipped(ctx context.Context, order *model.Order, request *model.CustomOrderRequest) error {
	if m.ShippedErr != nil {
		return m.ShippedErr
	}
	m.Shipments = append(m.Shipments, order)
	return nil
}

type workflowFixture struct {
	requests *MockRequestStore
	orders   *MockLinkedOrderStore
	gateway  *MockLinkGateway
	notifier *MockWorkflowNotifier
	wf       *Workflow
}

func newWorkflowFixture() *workflowFixture {
	f := &workflowFixture{
		requests: &MockRequestStore{Requests: map[uuid.UUID]*model.CustomOrderRequest{}},
		orders:   &MockLinkedOrderStore{Orders: map[uuid.UUID]*model.Order{}},
		gateway:  &MockLinkGateway{},
		notifier: &MockWorkflowNotifier{},
	}
	f.wf = NewWorkflow(f.requests, f.orders, f.gateway, f.notifier, "https://spiritbeads.example.com", "usd", zap.NewNop())
	return f
}

func quotedRequest(rawPrice string) *model.CustomOrderRequest {
	quote, err := ParseQuotedPrice(rawPrice)
	if err != nil {
		panic(err)
	}
	return &model.CustomOrderRequest{
		ID:          uuid.New(),
		Name:        "Riley Maker",
		Email:       "riley@example.com",
		Description: "A long strand of lapis and silver beads for a wall hanging piece",
		Status:      model.CustomOrderStatusPending,
		QuotedPrice: quote,
	}
}

// --- Tests ---

func TestWorkflow_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a pending request and alerts the admin", func(t *testing.T) {
		f := newWorkflowFixture()

		request, err := f.wf.Submit(ctx, Submission{
			Name:        "Riley Maker",
			Email:       "riley@example.com",
			Description: "Lapis strand",
			Colors:      "blue, silver",
			Images:      []string{"https://img.example.com/ref.jpg"},
		})
		require.NoError(t, err)

		assert.Equal(t, model.CustomOrderStatusPending, request.Status)
		assert.NotEqual(t, uuid.Nil, request.ID)
		assert.Equal(t, model.ImageRefs{"https://img.example.com/ref.jpg"}, request.Images)
		require.Len(t, f.notifier.Alerts, 1)
		assert.Equal(t, request.ID, f.notifier.Alerts[0].ID)
	})

	t.Run("alert failure does not fail the submission", func(t *testing.T) {
		f := newWorkflowFixture()
		f.notifier.AlertErr = errors.New("smtp unreachable")

		request, err := f.wf.Submit(ctx, Submission{Name: "Riley", Email: "riley@example.com", Description: "Lapis"})
		require.NoError(t, err)
		assert.Contains(t, f.requests.Requests, request.ID)
	})

	t.Run("store failure fails the submission", func(t *testing.T) {
		f := newWorkflowFixture()
		f.requests.CreateErr = errors.New("connection refused")

		_, err := f.wf.Submit(ctx, Submission{Name: "Riley", Email: "riley@example.com"})
		assert.Error(t, err)
		assert.Empty(t, f.notifier.Alerts)
	})
}

func TestWorkflow_SetQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the parsed quote with notes", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("")
		f.requests.Requests[request.ID] = request

		updated, err := f.wf.SetQuote(ctx, request.ID, "$75.00", "two week lead time")
		require.NoError(t, err)

		require.True(t, updated.QuotedPrice.Valid)
		assert.True(t, updated.QuotedPrice.Decimal.Equal(decimal.RequireFromString("75.00")))
		assert.Equal(t, "two week lead time", updated.AdminNotes)
	})

	t.Run("invalid price never reaches the store", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("")
		f.requests.Requests[request.ID] = request

		_, err := f.wf.SetQuote(ctx, request.ID, "1.5", "")
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.False(t, request.QuotedPrice.Valid)
	})

	t.Run("unknown request id", func(t *testing.T) {
		f := newWorkflowFixture()

		_, err := f.wf.SetQuote(ctx, uuid.New(), "75.00", "")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestWorkflow_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a payment link for a quoted pending request", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("75.00")
		f.requests.Requests[request.ID] = request

		result := f.wf.Approve(ctx, []uuid.UUID{request.ID})
		assert.Equal(t, []string{request.ID.String()}, result.Succeeded)
		assert.Empty(t, result.Errors)

		require.Len(t, f.gateway.PriceSpecs, 1)
		priceSpec := f.gateway.PriceSpecs[0]
		assert.Equal(t, int64(7500), priceSpec.UnitAmount)
		assert.Equal(t, "usd", priceSpec.Currency)
		assert.Equal(t, "Custom Order from Riley Maker", priceSpec.ProductName)
		assert.Empty(t, priceSpec.ProductRef, "quotes are priced with inline product data")
		assert.LessOrEqual(t, len([]rune(priceSpec.Description)), 50)
		assert.True(t, strings.HasPrefix(request.Description, priceSpec.Description))

		require.Len(t, f.gateway.LinkSpecs, 1)
		linkSpec := f.gateway.LinkSpecs[0]
		assert.Equal(t, "price_custom_1", linkSpec.PriceRef)
		assert.Equal(t, int64(1), linkSpec.Quantity)
		assert.Equal(t, "https://spiritbeads.example.com/custom-order-success", linkSpec.RedirectURL)
		assert.Equal(t, request.ID.String(), linkSpec.CustomRequestID)

		assert.Equal(t, model.CustomOrderStatusApproved, request.Status)
		assert.Equal(t, "https://pay.example.com/plink_1", request.StripePaymentLink)
		assert.Equal(t, "plink_1", request.StripePaymentLinkID)

		require.Len(t, f.notifier.Approvals, 1)
		assert.Equal(t, "https://pay.example.com/plink_1", f.notifier.Approvals[0].StripePaymentLink,
			"approval email sees the stored link")
	})

	t.Run("request without a quote is skipped", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("")
		f.requests.Requests[request.ID] = request

		result := f.wf.Approve(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "no price quoted, set a quote first", result.Errors[0].Error)
		assert.Empty(t, f.gateway.PriceSpecs)
		assert.Equal(t, model.CustomOrderStatusPending, request.Status)
	})

	t.Run("one failing record does not block the rest", func(t *testing.T) {
		f := newWorkflowFixture()
		quoted := quotedRequest("30.00")
		unquoted := quotedRequest("")
		f.requests.Requests[quoted.ID] = quoted
		f.requests.Requests[unquoted.ID] = unquoted
		ghost := uuid.New()

		result := f.wf.Approve(ctx, []uuid.UUID{quoted.ID, unquoted.ID, ghost})
		assert.Equal(t, []string{quoted.ID.String()}, result.Succeeded)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, unquoted.ID.String(), result.Errors[0].ID)
		assert.Equal(t, ghost.String(), result.Errors[1].ID)
		assert.Equal(t, "request not found", result.Errors[1].Error)
	})

	t.Run("non-pending request is rejected", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("75.00")
		request.Status = model.CustomOrderStatusApproved
		f.requests.Requests[request.ID] = request

		result := f.wf.Approve(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "only pending requests can be approved", result.Errors[0].Error)
	})

	t.Run("provider rejection leaves the request pending", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("75.00")
		f.requests.Requests[request.ID] = request
		f.gateway.PriceErr = &payments.ProviderError{Code: "rate_limit", Message: "too many requests"}

		result := f.wf.Approve(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, model.CustomOrderStatusPending, request.Status)
		assert.Empty(t, f.notifier.Approvals)
	})
}

func TestWorkflow_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("rejection email only goes out with admin notes", func(t *testing.T) {
		f := newWorkflowFixture()
		withNotes := quotedRequest("")
		withNotes.AdminNotes = "cannot source this stone"
		silent := quotedRequest("")
		f.requests.Requests[withNotes.ID] = withNotes
		f.requests.Requests[silent.ID] = silent

		result := f.wf.Reject(ctx, []uuid.UUID{withNotes.ID, silent.ID})
		assert.Len(t, result.Succeeded, 2)
		assert.Empty(t, result.Errors)

		assert.Equal(t, model.CustomOrderStatusRejected, withNotes.Status)
		assert.Equal(t, model.CustomOrderStatusRejected, silent.Status)
		require.Len(t, f.notifier.Rejections, 1)
		assert.Equal(t, withNotes.ID, f.notifier.Rejections[0].ID)
	})

	t.Run("non-pending request fails the record", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("")
		request.Status = model.CustomOrderStatusPaid
		f.requests.Requests[request.ID] = request

		result := f.wf.Reject(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "only pending requests can be rejected", result.Errors[0].Error)
		assert.Empty(t, f.notifier.Rejections)
	})

	t.Run("unknown request id", func(t *testing.T) {
		f := newWorkflowFixture()

		result := f.wf.Reject(ctx, []uuid.UUID{uuid.New()})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "request not found", result.Errors[0].Error)
	})
}

func TestWorkflow_StartProduction(t *testing.T) {
	ctx := context.Background()

	t.Run("paid request moves to production", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("75.00")
		request.Status = model.CustomOrderStatusPaid
		f.requests.Requests[request.ID] = request

		result := f.wf.StartProduction(ctx, []uuid.UUID{request.ID})
		assert.Equal(t, []string{request.ID.String()}, result.Succeeded)
		assert.Equal(t, model.CustomOrderStatusInProduction, request.Status)
	})

	t.Run("unpaid request fails the record", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("75.00")
		f.requests.Requests[request.ID] = request

		result := f.wf.StartProduction(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "only paid requests can move to production", result.Errors[0].Error)
		assert.Equal(t, model.CustomOrderStatusPending, request.Status)
	})
}

func TestWorkflow_MarkShipped(t *testing.T) {
	ctx := context.Background()

	inProductionWithOrder := func(f *workflowFixture, tracking string) (*model.CustomOrderRequest, *model.Order) {
		order := &model.Order{
			ID:             uuid.New(),
			Status:         model.OrderStatusPaid,
			TrackingNumber: tracking,
			IsCustomOrder:  true,
		}
		request := quotedRequest("75.00")
		request.Status = model.CustomOrderStatusInProduction
		request.RelatedOrderID = &order.ID
		request.RelatedOrder = order
		f.requests.Requests[request.ID] = request
		f.orders.Orders[order.ID] = order
		return request, order
	}

	t.Run("ships the linked order and the request together", func(t *testing.T) {
		f := newWorkflowFixture()
		request, order := inProductionWithOrder(f, "9400100000000000000001")

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		assert.Equal(t, []string{request.ID.String()}, result.Succeeded)
		assert.Empty(t, result.Errors)

		assert.Equal(t, model.CustomOrderStatusShipped, request.Status)
		assert.Equal(t, model.OrderStatusShipped, order.Status)
		require.NotNil(t, order.ShippedAt)
		require.Len(t, f.notifier.Shipments, 1)
		assert.Equal(t, order.ID, f.notifier.Shipments[0].ID)
	})

	t.Run("linked order is looked up when not preloaded", func(t *testing.T) {
		f := newWorkflowFixture()
		request, order := inProductionWithOrder(f, "9400100000000000000002")
		request.RelatedOrder = nil

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		assert.Len(t, result.Succeeded, 1)
		assert.Equal(t, model.OrderStatusShipped, order.Status)
	})

	t.Run("request without a linked order fails", func(t *testing.T) {
		f := newWorkflowFixture()
		request := quotedRequest("75.00")
		request.Status = model.CustomOrderStatusInProduction
		f.requests.Requests[request.ID] = request

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "request has no linked order", result.Errors[0].Error)
	})

	t.Run("missing tracking number fails before any transition", func(t *testing.T) {
		f := newWorkflowFixture()
		request, order := inProductionWithOrder(f, "")

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "linked order has no tracking number, add tracking info first", result.Errors[0].Error)
		assert.Equal(t, model.CustomOrderStatusInProduction, request.Status)
		assert.Equal(t, model.OrderStatusPaid, order.Status)
	})

	t.Run("request not in production fails", func(t *testing.T) {
		f := newWorkflowFixture()
		request, _ := inProductionWithOrder(f, "9400100000000000000003")
		request.Status = model.CustomOrderStatusPaid

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "only in-production requests can be shipped", result.Errors[0].Error)
	})

	t.Run("retry after a partial failure finishes the request side", func(t *testing.T) {
		f := newWorkflowFixture()
		request, order := inProductionWithOrder(f, "9400100000000000000004")
		shippedAt := time.Now().Add(-time.Hour)
		order.Status = model.OrderStatusShipped
		order.ShippedAt = &shippedAt

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		assert.Len(t, result.Succeeded, 1)
		assert.Equal(t, model.CustomOrderStatusShipped, request.Status)
		assert.Equal(t, &shippedAt, order.ShippedAt, "already-shipped order is left alone")
	})

	t.Run("shipping notification failure does not fail the record", func(t *testing.T) {
		f := newWorkflowFixture()
		request, _ := inProductionWithOrder(f, "9400100000000000000005")
		f.notifier.ShippedErr = errors.New("smtp unreachable")

		result := f.wf.MarkShipped(ctx, []uuid.UUID{request.ID})
		assert.Len(t, result.Succeeded, 1)
		assert.Equal(t, model.CustomOrderStatusShipped, request.Status)
	})
}

func TestClassifyImageRefs(t *testing.T) {
	refs := ClassifyImageRefs([]string{
		"https://img.example.com/inspiration.jpg",
		"data:image/png;base64,iVBORw0KGgo=",
		"blob:https://spiritbeads.example.com/51b0a2c1",
	})
	require.Len(t, refs, 3)

	assert.Equal(t, ImageRefURL, refs[0].Kind)
	assert.True(t, refs[0].Usable)
	assert.Equal(t, ImageRefEmbedded, refs[1].Kind)
	assert.True(t, refs[1].Usable)
	assert.Equal(t, ImageRefBlob, refs[2].Kind)
	assert.False(t, refs[2].Usable, "blob URLs only resolved on the submitter's machine")

	assert.Nil(t, ClassifyImageRefs(nil))
}
