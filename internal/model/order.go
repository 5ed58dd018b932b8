package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks an order through the payment and fulfilment lifecycle
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusShipped OrderStatus = "shipped"
)

// ShippingAddress holds the structured address reported by the payment provider
type ShippingAddress struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Value serializes the address to JSON for storage
func (a *ShippingAddress) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan deserializes the stored JSON address
func (a *ShippingAddress) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported shipping address column type %T", value)
	}
	return json.Unmarshal(raw, a)
}

// Order represents a checkout session outcome and its fulfilment state
type Order struct {
	ID                  uuid.UUID        `json:"id" gorm:"type:uuid;primarykey"`
	StripeSessionID     string           `json:"stripe_session_id" gorm:"type:varchar(255);uniqueIndex;not null"`
	StripePaymentIntent string           `json:"stripe_payment_intent,omitempty" gorm:"type:varchar(255)"`
	AmountTotal         int64            `json:"amount_total" gorm:"not null;comment:'Amount in minor currency units'"`
	Currency            string           `json:"currency" gorm:"type:varchar(10);default:usd"`
	Status              OrderStatus      `json:"status" gorm:"type:varchar(20);default:pending;index"`
	CustomerEmail       string           `json:"customer_email,omitempty" gorm:"type:varchar(255)"`
	ShippingAddress     *ShippingAddress `json:"shipping_address,omitempty" gorm:"type:jsonb"`
	IsCustomOrder       bool             `json:"is_custom_order" gorm:"default:false;index"`
	TrackingNumber      string           `json:"tracking_number,omitempty" gorm:"type:varchar(100)"`
	ShippingCarrier     string           `json:"shipping_carrier,omitempty" gorm:"type:varchar(50)"`
	ShippedAt           *time.Time       `json:"shipped_at,omitempty"`
	ProductImageURL     string           `json:"product_image_url,omitempty" gorm:"type:varchar(500)"`
	Items               []OrderItem      `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// OrderItem snapshots a purchased product line at checkout time
type OrderItem struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	OrderID     uuid.UUID `json:"order_id" gorm:"type:uuid;index;not null"`
	ProductID   string    `json:"product_id" gorm:"type:varchar(100);not null"`
	ProductName string    `json:"product_name" gorm:"type:varchar(255);not null"`
	UnitPrice   int64     `json:"unit_price" gorm:"not null;comment:'Unit price in minor units at purchase time'"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}
