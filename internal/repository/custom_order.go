package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errNoTransition signals a failed compare-and-set inside a transaction
var errNoTransition = errors.New("status transition did not apply")

// CustomOrderFilter narrows custom request listings
type CustomOrderFilter struct {
	Status *model.CustomOrderStatus
}

// CustomOrderRepository persists custom order requests
type CustomOrderRepository struct {
	db *gorm.DB
}

// NewCustomOrderRepository creates a custom order repository
func NewCustomOrderRepository(db *gorm.DB) *CustomOrderRepository {
	return &CustomOrderRepository{db: db}
}

// Create inserts a request, generating an id when none was supplied
func (r *CustomOrderRepository) Create(ctx context.Context, request *model.CustomOrderRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(request).Error
}

// GetByID returns a request with its linked order, if any
func (r *CustomOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CustomOrderRequest, error) {
	var request model.CustomOrderRequest
	if err := r.db.WithContext(ctx).Preload("RelatedOrder").Where("id = ?", id).First(&request).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &request, nil
}

// GetByOrderID returns the request linked to an order
func (r *CustomOrderRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.CustomOrderRequest, error) {
	var request model.CustomOrderRequest
	if err := r.db.WithContext(ctx).Where("related_order_id = ?", orderID).First(&request).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &request, nil
}

// List returns requests matching the filter, newest first
func (r *CustomOrderRepository) List(ctx context.Context, filter CustomOrderFilter) ([]model.CustomOrderRequest, error) {
	query := r.db.WithContext(ctx).Preload("RelatedOrder")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var requests []model.CustomOrderRequest
	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// SetQuote stores the quoted price and admin notes
func (r *CustomOrderRepository) SetQuote(ctx context.Context, id uuid.UUID, price decimal.NullDecimal, notes string) error {
	res := r.db.WithContext(ctx).Model(&model.CustomOrderRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quoted_price": price,
			"admin_notes":  notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkApproved transitions a pending request to approved, storing the
// generated payment link in the same update. Returns false when the request
// was no longer pending.
func (r *CustomOrderRepository) MarkApproved(ctx context.Context, id uuid.UUID, paymentLink string, paymentLinkID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CustomOrderRequest{}).
		Where("id = ? AND status = ?", id, model.CustomOrderStatusPending).
		Updates(map[string]interface{}{
			"status":                 model.CustomOrderStatusApproved,
			"stripe_payment_link":    paymentLink,
			"stripe_payment_link_id": paymentLinkID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkRejected transitions a pending request to rejected
func (r *CustomOrderRepository) MarkRejected(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, id, model.CustomOrderStatusPending, model.CustomOrderStatusRejected)
}

// MarkInProduction transitions a paid request to in production
func (r *CustomOrderRepository) MarkInProduction(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, id, model.CustomOrderStatusPaid, model.CustomOrderStatusInProduction)
}

// MarkShipped transitions an in-production request to shipped
func (r *CustomOrderRepository) MarkShipped(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, id, model.CustomOrderStatusInProduction, model.CustomOrderStatusShipped)
}

func (r *CustomOrderRepository) transition(ctx context.Context, id uuid.UUID, prior model.CustomOrderStatus, next model.CustomOrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CustomOrderRequest{}).
		Where("id = ? AND status = ?", id, prior).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LinkPaidOrder transitions an approved request to paid, creates the paid
// order for it, and links the two, all in one transaction. Returns false
// without side effects when the request was no longer approved.
func (r *CustomOrderRepository) LinkPaidOrder(ctx context.Context, id uuid.UUID, order *model.Order) (bool, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CustomOrderRequest{}).
			Where("id = ? AND status = ?", id, model.CustomOrderStatusApproved).
			Update("status", model.CustomOrderStatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoTransition
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		return tx.Model(&model.CustomOrderRequest{}).
			Where("id = ?", id).
			Update("related_order_id", order.ID).Error
	})
	if errors.Is(err, errNoTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
