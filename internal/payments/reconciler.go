package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"go.uber.org/zap"
)

// Result describes how a webhook delivery was handled
type Result string

const (
	ResultProcessed Result = "processed"
	ResultDuplicate Result = "duplicate"
	ResultIgnored   Result = "ignored"
	ResultError     Result = "error"
)

type eventVerifier interface {
	VerifyEvent(payload []byte, signature string) (*Event, error)
}

type eventLog interface {
	InsertOnce(ctx context.Context, event *model.WebhookEvent) (bool, error)
}

type orderStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, prior model.OrderStatus, update repository.PaidUpdate) (bool, error)
}

type inventoryStore interface {
	DeductInventory(ctx context.Context, id string, quantity int) error
}

type requestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.CustomOrderRequest, error)
	LinkPaidOrder(ctx context.Context, id uuid.UUID, order *model.Order) (bool, error)
}

type paymentNotifier interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
	SendPaymentReceived(ctx context.Context, request *model.CustomOrderRequest, order *model.Order) error
}

// Reconciler applies verified provider events to orders and custom order
// requests. It is safe under provider redelivery: identical event ids are
// absorbed by the processed-event log, and replays under fresh event ids are
// absorbed by the guarded status transitions.
type Reconciler struct {
	verifier eventVerifier
	events   eventLog
	orders   orderStore
	products inventoryStore
	requests requestStore
	notifier paymentNotifier
	log      *zap.Logger
}

// NewReconciler creates a webhook reconciler
func NewReconciler(verifier eventVerifier, events eventLog, orders orderStore, products inventoryStore, requests requestStore, notifier paymentNotifier, log *zap.Logger) *Reconciler {
	return &Reconciler{
		verifier: verifier,
		events:   events,
		orders:   orders,
		products: products,
		requests: requests,
		notifier: notifier,
		log:      log,
	}
}

// HandleEvent verifies and applies one webhook delivery. ErrInvalidSignature
// is the only error callers should translate to a client fault; everything
// else is an internal condition the provider must not see as a failure.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (Result, error) {
	ev, err := r.verifier.VerifyEvent(payload, signature)
	if err != nil {
		prometheus.RecordWebhookEvent("unknown", "invalid_signature")
		return ResultError, err
	}

	if ev.Type != EventCheckoutSessionCompleted {
		r.log.Debug("Ignoring webhook event type", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		prometheus.RecordWebhookEvent(ev.Type, "ignored")
		return ResultIgnored, nil
	}

	completed, err := ParseCompletedSession(ev)
	if err != nil {
		r.log.Error("Failed to parse completed session payload",
			zap.String("event_id", ev.ID),
			zap.Error(err))
		prometheus.RecordWebhookEvent(ev.Type, "error")
		return ResultError, err
	}

	inserted, err := r.events.InsertOnce(ctx, &model.WebhookEvent{
		EventID:   ev.ID,
		Type:      ev.Type,
		SessionID: completed.SessionID,
	})
	if err != nil {
		r.log.Error("Failed to record webhook event",
			zap.String("event_id", ev.ID),
			zap.Error(err))
		prometheus.RecordWebhookEvent(ev.Type, "error")
		return ResultError, err
	}
	if !inserted {
		r.log.Info("Duplicate webhook delivery, skipping",
			zap.String("event_id", ev.ID),
			zap.String("session_id", completed.SessionID))
		prometheus.RecordWebhookEvent(ev.Type, "duplicate")
		return ResultDuplicate, nil
	}

	var result Result
	if completed.CustomRequestID != "" {
		result = r.applyCustomOrder(ctx, completed)
	} else {
		result = r.applyRegularOrder(ctx, completed)
	}

	prometheus.RecordWebhookEvent(ev.Type, string(result))
	return result, nil
}

// applyRegularOrder settles the pending order created at checkout time
func (r *Reconciler) applyRegularOrder(ctx context.Context, completed *CompletedSession) Result {
	order, err := r.orders.GetBySessionID(ctx, completed.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.log.Warn("No order for completed session, dropping event",
				zap.String("session_id", completed.SessionID))
			return ResultIgnored
		}
		r.log.Error("Order lookup failed",
			zap.String("session_id", completed.SessionID),
			zap.Error(err))
		return ResultError
	}

	_, effects, ok := PaymentTransition(order.Status)
	if !ok {
		r.log.Info("Order already settled, skipping side effects",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)))
		return ResultIgnored
	}

	update := repository.PaidUpdate{
		PaymentIntentID: completed.PaymentIntentID,
		CustomerEmail:   completed.CustomerEmail,
		AmountTotal:     completed.AmountTotal,
		ShippingAddress: completed.ShippingAddress,
	}
	applied, err := r.orders.MarkPaid(ctx, order.ID, order.Status, update)
	if err != nil {
		r.log.Error("Failed to mark order paid",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return ResultError
	}
	if !applied {
		// A concurrent delivery won the transition; it owns the effects
		r.log.Info("Order status changed concurrently, skipping side effects",
			zap.String("order_id", order.ID.String()))
		return ResultIgnored
	}

	order.Status = model.OrderStatusPaid
	order.StripePaymentIntent = completed.PaymentIntentID
	order.CustomerEmail = completed.CustomerEmail
	order.AmountTotal = completed.AmountTotal
	order.ShippingAddress = completed.ShippingAddress

	for _, effect := range effects {
		switch effect {
		case EffectDeductInventory:
			r.deductInventory(ctx, order)
		case EffectSendConfirmation:
			if err := r.notifier.SendOrderConfirmation(ctx, order); err != nil {
				r.log.Error("Failed to send order confirmation email",
					zap.String("order_id", order.ID.String()),
					zap.Error(err))
			}
		}
	}

	r.log.Info("Order marked paid",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", completed.SessionID),
		zap.Int64("amount_total", completed.AmountTotal))
	return ResultProcessed
}

func (r *Reconciler) deductInventory(ctx context.Context, order *model.Order) {
	for _, item := range order.Items {
		if err := r.products.DeductInventory(ctx, item.ProductID, item.Quantity); err != nil {
			r.log.Error("Failed to deduct inventory",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

// applyCustomOrder settles a paid custom order request: no pending order
// exists yet, so a paid order is created and linked in one step
func (r *Reconciler) applyCustomOrder(ctx context.Context, completed *CompletedSession) Result {
	requestID, err := uuid.Parse(completed.CustomRequestID)
	if err != nil {
		r.log.Warn("Invalid custom request id in event metadata, dropping event",
			zap.String("custom_request_id", completed.CustomRequestID))
		return ResultIgnored
	}

	request, err := r.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.log.Warn("No custom order request for event metadata, dropping event",
				zap.String("custom_request_id", completed.CustomRequestID))
			return ResultIgnored
		}
		r.log.Error("Custom order request lookup failed",
			zap.String("custom_request_id", completed.CustomRequestID),
			zap.Error(err))
		return ResultError
	}

	order := &model.Order{
		Status:              model.OrderStatusPaid,
		StripeSessionID:     completed.SessionID,
		StripePaymentIntent: completed.PaymentIntentID,
		AmountTotal:         completed.AmountTotal,
		Currency:            completed.Currency,
		CustomerEmail:       completed.CustomerEmail,
		ShippingAddress:     completed.ShippingAddress,
		IsCustomOrder:       true,
	}

	linked, err := r.requests.LinkPaidOrder(ctx, request.ID, order)
	if err != nil {
		r.log.Error("Failed to link paid order to custom request",
			zap.String("custom_request_id", request.ID.String()),
			zap.Error(err))
		return ResultError
	}
	if !linked {
		r.log.Info("Custom request not awaiting payment, skipping",
			zap.String("custom_request_id", request.ID.String()),
			zap.String("status", string(request.Status)))
		return ResultIgnored
	}

	if err := r.notifier.SendPaymentReceived(ctx, request, order); err != nil {
		r.log.Error("Failed to send payment confirmation email",
			zap.String("custom_request_id", request.ID.String()),
			zap.Error(err))
	}

	r.log.Info("Custom order request paid",
		zap.String("custom_request_id", request.ID.String()),
		zap.String("order_id", order.ID.String()))
	return ResultProcessed
}
