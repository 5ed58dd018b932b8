package customorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// descriptionExcerptLen bounds the description carried into the provider's
// inline product data
const descriptionExcerptLen = 50

type requestStore interface {
	Create(ctx context.Context, request *model.CustomOrderRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.CustomOrderRequest, error)
	SetQuote(ctx context.Context, id uuid.UUID, price decimal.NullDecimal, notes string) error
	MarkApproved(ctx context.Context, id uuid.UUID, paymentLink string, paymentLinkID string) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID) (bool, error)
	MarkInProduction(ctx context.Context, id uuid.UUID) (bool, error)
	MarkShipped(ctx context.Context, id uuid.UUID) (bool, error)
}

type orderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) (bool, error)
}

type linkGateway interface {
	CreatePrice(ctx context.Context, spec payments.PriceSpec) (string, error)
	CreatePaymentLink(ctx context.Context, spec payments.PaymentLinkSpec) (*payments.PaymentLink, error)
}

type workflowNotifier interface {
	SendNewRequestAlert(ctx context.Context, request *model.CustomOrderRequest) error
	SendApproval(ctx context.Context, request *model.CustomOrderRequest) error
	SendRejection(ctx context.Context, request *model.CustomOrderRequest) error
	SendOrderShipped(ctx context.Context, order *model.Order, request *model.CustomOrderRequest) error
}

// Workflow drives custom order requests through their quote lifecycle.
// Every staff transition is batchable and per-record: one record failing a
// precondition never blocks the others.
type Workflow struct {
	requests    requestStore
	orders      orderStore
	gateway     linkGateway
	notifier    workflowNotifier
	frontendURL string
	currency    string
	log         *zap.Logger
}

// NewWorkflow creates a custom order workflow
func NewWorkflow(requests requestStore, orders orderStore, gateway linkGateway, notifier workflowNotifier, frontendURL string, currency string, log *zap.Logger) *Workflow {
	return &Workflow{
		requests:    requests,
		orders:      orders,
		gateway:     gateway,
		notifier:    notifier,
		frontendURL: frontendURL,
		currency:    currency,
		log:         log,
	}
}

// Submission is a customer's custom order request
type Submission struct {
	Name        string
	Email       string
	Description string
	Colors      string
	Images      []string
}

// Submit persists a new pending request and alerts the admin. The alert
// failing never fails the submission.
func (w *Workflow) Submit(ctx context.Context, sub Submission) (*model.CustomOrderRequest, error) {
	request := &model.CustomOrderRequest{
		Name:        sub.Name,
		Email:       sub.Email,
		Description: sub.Description,
		Colors:      sub.Colors,
		Images:      model.ImageRefs(sub.Images),
		Status:      model.CustomOrderStatusPending,
	}

	if err := w.requests.Create(ctx, request); err != nil {
		prometheus.RecordCustomOrderTransition("submit", "failed")
		return nil, err
	}

	if err := w.notifier.SendNewRequestAlert(ctx, request); err != nil {
		w.log.Warn("Failed to send new request alert",
			zap.String("request_id", request.ID.String()),
			zap.Error(err))
	}

	prometheus.RecordCustomOrderTransition("submit", "success")
	w.log.Info("Custom order request submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("email", request.Email))
	return request, nil
}

// SetQuote parses and stores a staff quote with admin notes
func (w *Workflow) SetQuote(ctx context.Context, id uuid.UUID, rawPrice string, notes string) (*model.CustomOrderRequest, error) {
	price, err := ParseQuotedPrice(rawPrice)
	if err != nil {
		return nil, err
	}

	if err := w.requests.SetQuote(ctx, id, price, notes); err != nil {
		return nil, err
	}
	return w.requests.GetByID(ctx, id)
}

// Approve mints a payment link for each pending quoted request, stores it,
// and emails the customer. Requests without a quote are reported and
// skipped.
func (w *Workflow) Approve(ctx context.Context, ids []uuid.UUID) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		if err := w.approveOne(ctx, id); err != nil {
			prometheus.RecordCustomOrderTransition("approve", "failed")
			result.Fail(id.String(), err.Error())
			continue
		}
		prometheus.RecordCustomOrderTransition("approve", "success")
		result.Succeed(id.String())
	}
	return result
}

func (w *Workflow) approveOne(ctx context.Context, id uuid.UUID) error {
	request, err := w.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errors.New("request not found")
		}
		return err
	}
	if request.Status != model.CustomOrderStatusPending {
		return errors.New("only pending requests can be approved")
	}

	cents, ok := request.QuotedPriceCents()
	if !ok {
		return errors.New("no price quoted, set a quote first")
	}

	priceRef, err := w.gateway.CreatePrice(ctx, payments.PriceSpec{
		UnitAmount:  cents,
		Currency:    w.currency,
		ProductName: "Custom Order from " + request.Name,
		Description: excerpt(request.Description, descriptionExcerptLen),
	})
	if err != nil {
		return err
	}

	link, err := w.gateway.CreatePaymentLink(ctx, payments.PaymentLinkSpec{
		PriceRef:        priceRef,
		Quantity:        1,
		RedirectURL:     w.frontendURL + "/custom-order-success",
		CustomRequestID: request.ID.String(),
	})
	if err != nil {
		return err
	}

	applied, err := w.requests.MarkApproved(ctx, request.ID, link.URL, link.ID)
	if err != nil {
		return err
	}
	if !applied {
		return errors.New("request is no longer pending")
	}

	request.Status = model.CustomOrderStatusApproved
	request.StripePaymentLink = link.URL
	request.StripePaymentLinkID = link.ID

	if err := w.notifier.SendApproval(ctx, request); err != nil {
		w.log.Error("Failed to send approval email",
			zap.String("request_id", request.ID.String()),
			zap.Error(err))
	}

	w.log.Info("Custom order request approved",
		zap.String("request_id", request.ID.String()),
		zap.Int64("quoted_cents", cents))
	return nil
}

// Reject moves each pending request to rejected. The rejection email is
// only sent when admin notes give the customer a reason.
func (w *Workflow) Reject(ctx context.Context, ids []uuid.UUID) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		request, err := w.requests.GetByID(ctx, id)
		if err != nil {
			prometheus.RecordCustomOrderTransition("reject", "failed")
			result.Fail(id.String(), notFoundMessage(err, "request not found"))
			continue
		}

		applied, err := w.requests.MarkRejected(ctx, id)
		if err != nil {
			prometheus.RecordCustomOrderTransition("reject", "failed")
			result.Fail(id.String(), err.Error())
			continue
		}
		if !applied {
			prometheus.RecordCustomOrderTransition("reject", "failed")
			result.Fail(id.String(), "only pending requests can be rejected")
			continue
		}

		if request.AdminNotes != "" {
			request.Status = model.CustomOrderStatusRejected
			if err := w.notifier.SendRejection(ctx, request); err != nil {
				w.log.Error("Failed to send rejection email",
					zap.String("request_id", request.ID.String()),
					zap.Error(err))
			}
		}

		prometheus.RecordCustomOrderTransition("reject", "success")
		result.Succeed(id.String())
	}
	return result
}

// StartProduction moves each paid request into production
func (w *Workflow) StartProduction(ctx context.Context, ids []uuid.UUID) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		applied, err := w.requests.MarkInProduction(ctx, id)
		if err != nil {
			prometheus.RecordCustomOrderTransition("start_production", "failed")
			result.Fail(id.String(), err.Error())
			continue
		}
		if !applied {
			prometheus.RecordCustomOrderTransition("start_production", "failed")
			result.Fail(id.String(), "only paid requests can move to production")
			continue
		}
		prometheus.RecordCustomOrderTransition("start_production", "success")
		result.Succeed(id.String())
	}
	return result
}

// MarkShipped ships each in-production request whose linked order carries a
// tracking number, stamping both records and notifying the customer.
func (w *Workflow) MarkShipped(ctx context.Context, ids []uuid.UUID) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		if err := w.shipOne(ctx, id); err != nil {
			prometheus.RecordCustomOrderTransition("ship", "failed")
			result.Fail(id.String(), err.Error())
			continue
		}
		prometheus.RecordCustomOrderTransition("ship", "success")
		prometheus.RecordOrderShipped()
		result.Succeed(id.String())
	}
	return result
}

func (w *Workflow) shipOne(ctx context.Context, id uuid.UUID) error {
	request, err := w.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errors.New("request not found")
		}
		return err
	}
	if request.Status != model.CustomOrderStatusInProduction {
		return errors.New("only in-production requests can be shipped")
	}
	if request.RelatedOrderID == nil {
		return errors.New("request has no linked order")
	}

	order := request.RelatedOrder
	if order == nil {
		order, err = w.orders.GetByID(ctx, *request.RelatedOrderID)
		if err != nil {
			return err
		}
	}
	if order.TrackingNumber == "" {
		return errors.New("linked order has no tracking number, add tracking info first")
	}

	// Ship the order first: a retry after a partial failure finds it
	// already shipped and just finishes the request side
	now := time.Now()
	if order.Status != model.OrderStatusShipped {
		applied, err := w.orders.MarkShipped(ctx, order.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			return errors.New("linked order is not paid")
		}
		order.Status = model.OrderStatusShipped
		order.ShippedAt = &now
	}

	applied, err := w.requests.MarkShipped(ctx, request.ID)
	if err != nil {
		return err
	}
	if !applied {
		return errors.New("request is no longer in production")
	}

	if err := w.notifier.SendOrderShipped(ctx, order, request); err != nil {
		w.log.Error("Failed to send shipping notification",
			zap.String("request_id", request.ID.String()),
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}

	w.log.Info("Custom order shipped",
		zap.String("request_id", request.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("tracking_number", order.TrackingNumber))
	return nil
}

func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func notFoundMessage(err error, msg string) string {
	if errors.Is(err, repository.ErrNotFound) {
		return msg
	}
	return err.Error()
}
