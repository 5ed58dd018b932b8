package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomOrderStatus tracks a custom request through the quote lifecycle
type CustomOrderStatus string

const (
	CustomOrderStatusPending      CustomOrderStatus = "pending"
	CustomOrderStatusApproved     CustomOrderStatus = "approved"
	CustomOrderStatusRejected     CustomOrderStatus = "rejected"
	CustomOrderStatusPaid         CustomOrderStatus = "paid"
	CustomOrderStatusInProduction CustomOrderStatus = "in_production"
	CustomOrderStatusShipped      CustomOrderStatus = "shipped"
)

// ImageRefs holds customer-supplied image references as a JSON array
type ImageRefs []string

// Value serializes the image references to JSON for storage
func (r ImageRefs) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan deserializes the stored JSON image references
func (r *ImageRefs) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported image refs column type %T", value)
	}
	return json.Unmarshal(raw, r)
}

// CustomOrderRequest represents a customer's request for a made-to-order piece
type CustomOrderRequest struct {
	ID                  uuid.UUID           `json:"id" gorm:"type:uuid;primarykey"`
	Name                string              `json:"name" gorm:"type:varchar(255);not null"`
	Email               string              `json:"email" gorm:"type:varchar(255);not null"`
	Description         string              `json:"description" gorm:"type:text"`
	Colors              string              `json:"colors,omitempty" gorm:"type:varchar(255)"`
	Images              ImageRefs           `json:"images,omitempty" gorm:"type:jsonb"`
	Status              CustomOrderStatus   `json:"status" gorm:"type:varchar(20);default:pending;index"`
	AdminNotes          string              `json:"admin_notes,omitempty" gorm:"type:text"`
	QuotedPrice         decimal.NullDecimal `json:"quoted_price,omitempty" gorm:"type:decimal(10,2)"`
	StripePaymentLink   string              `json:"stripe_payment_link,omitempty" gorm:"type:varchar(500)"`
	StripePaymentLinkID string              `json:"stripe_payment_link_id,omitempty" gorm:"type:varchar(255)"`
	RelatedOrderID      *uuid.UUID          `json:"related_order_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	RelatedOrder        *Order              `json:"related_order,omitempty" gorm:"foreignKey:RelatedOrderID"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// QuotedPriceCents returns the quoted price in minor currency units
func (r *CustomOrderRequest) QuotedPriceCents() (int64, bool) {
	if !r.QuotedPrice.Valid {
		return 0, false
	}
	return r.QuotedPrice.Decimal.Mul(decimal.NewFromInt(100)).IntPart(), true
}
