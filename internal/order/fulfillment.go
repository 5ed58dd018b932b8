// Package order performs staff fulfilment operations on settled orders.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"go.uber.org/zap"
)

// defaultCarrier is assumed when staff record tracking without naming one
const defaultCarrier = "USPS"

type orderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string, carrier string) error
	MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) (bool, error)
}

type requestLookup interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.CustomOrderRequest, error)
}

type shipmentNotifier interface {
	SendOrderShipped(ctx context.Context, order *model.Order, request *model.CustomOrderRequest) error
}

// Fulfillment marks paid orders shipped and notifies customers
type Fulfillment struct {
	orders   orderStore
	requests requestLookup
	notifier shipmentNotifier
	log      *zap.Logger
}

// NewFulfillment creates a fulfilment service
func NewFulfillment(orders orderStore, requests requestLookup, notifier shipmentNotifier, log *zap.Logger) *Fulfillment {
	return &Fulfillment{orders: orders, requests: requests, notifier: notifier, log: log}
}

// SetTracking records the tracking number and carrier on an order
func (f *Fulfillment) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string, carrier string) (*model.Order, error) {
	if trackingNumber == "" {
		return nil, errors.New("tracking number is required")
	}
	if carrier == "" {
		carrier = defaultCarrier
	}

	if err := f.orders.SetTracking(ctx, id, trackingNumber, carrier); err != nil {
		return nil, err
	}
	return f.orders.GetByID(ctx, id)
}

// ShipInput names one order to ship, optionally recording tracking in the
// same action
type ShipInput struct {
	OrderID        uuid.UUID
	TrackingNumber string
	Carrier        string
}

// MarkShipped ships each paid order that has a tracking number. Records
// failing a precondition are reported individually and never block the
// rest of the batch.
func (f *Fulfillment) MarkShipped(ctx context.Context, inputs []ShipInput) *model.BatchResult {
	result := &model.BatchResult{}

	for _, input := range inputs {
		if err := f.shipOne(ctx, input); err != nil {
			result.Fail(input.OrderID.String(), err.Error())
			continue
		}
		prometheus.RecordOrderShipped()
		result.Succeed(input.OrderID.String())
	}
	return result
}

func (f *Fulfillment) shipOne(ctx context.Context, input ShipInput) error {
	order, err := f.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errors.New("order not found")
		}
		return err
	}

	if input.TrackingNumber != "" {
		carrier := input.Carrier
		if carrier == "" {
			carrier = defaultCarrier
		}
		if err := f.orders.SetTracking(ctx, order.ID, input.TrackingNumber, carrier); err != nil {
			return err
		}
		order.TrackingNumber = input.TrackingNumber
		order.ShippingCarrier = carrier
	}

	if order.TrackingNumber == "" {
		return errors.New("no tracking number set, add tracking info first")
	}
	if order.Status != model.OrderStatusPaid {
		return errors.New("only paid orders can be shipped")
	}

	now := time.Now()
	applied, err := f.orders.MarkShipped(ctx, order.ID, now)
	if err != nil {
		return err
	}
	if !applied {
		return errors.New("order is no longer paid")
	}
	order.Status = model.OrderStatusShipped
	order.ShippedAt = &now

	// Custom orders describe the commissioned piece instead of line items
	var request *model.CustomOrderRequest
	if order.IsCustomOrder {
		request, err = f.requests.GetByOrderID(ctx, order.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			f.log.Warn("Custom request lookup failed for shipped order",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}

	if err := f.notifier.SendOrderShipped(ctx, order, request); err != nil {
		f.log.Error("Failed to send shipping notification",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}

	f.log.Info("Order marked shipped",
		zap.String("order_id", order.ID.String()),
		zap.String("tracking_number", order.TrackingNumber),
		zap.String("carrier", order.ShippingCarrier))
	return nil
}
