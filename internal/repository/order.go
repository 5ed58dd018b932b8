package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"gorm.io/gorm"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	Status        *model.OrderStatus
	IsCustomOrder *bool
}

// PaidUpdate carries the provider-reported fields written when an order
// transitions to paid
type PaidUpdate struct {
	PaymentIntentID string
	CustomerEmail   string
	AmountTotal     int64
	ShippingAddress *model.ShippingAddress
}

// OrderRepository persists orders and their line item snapshots
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order together with its item snapshots in one
// transaction, generating an id when none was supplied
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID returns an order with its items
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &order, nil
}

// GetBySessionID returns the order created for a checkout session
func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where("stripe_session_id = ?", sessionID).First(&order).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &order, nil
}

// List returns orders matching the filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsCustomOrder != nil {
		query = query.Where("is_custom_order = ?", *filter.IsCustomOrder)
	}

	var orders []model.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// MarkPaid transitions an order from the prior status to paid, writing the
// provider-reported payment fields in the same update. Returns false when
// the order was no longer in the prior status.
func (r *OrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, prior model.OrderStatus, update PaidUpdate) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, prior).
		Updates(map[string]interface{}{
			"status":                model.OrderStatusPaid,
			"stripe_payment_intent": update.PaymentIntentID,
			"customer_email":        update.CustomerEmail,
			"amount_total":          update.AmountTotal,
			"shipping_address":      update.ShippingAddress,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetTracking stores the tracking number and carrier for an order
func (r *OrderRepository) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber string, carrier string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tracking_number":  trackingNumber,
			"shipping_carrier": carrier,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkShipped transitions a paid order with a stored tracking number to
// shipped, stamping the shipment time. Returns false when the order was not
// paid or has no tracking number.
func (r *OrderRepository) MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND tracking_number <> ''", id, model.OrderStatusPaid).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusShipped,
			"shipped_at": shippedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
