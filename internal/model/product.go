package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a storefront catalog item
type Product struct {
	ID                string          `json:"id" gorm:"type:varchar(100);primarykey"`
	Name              string          `json:"name" gorm:"type:varchar(255);not null"`
	Slug              string          `json:"slug" gorm:"type:varchar(200);unique;not null"`
	Description       string          `json:"description" gorm:"type:text"`
	CategoryID        *uint           `json:"category_id"`
	Category          *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Price             int64           `json:"price" gorm:"not null;comment:'Price in minor currency units'"`
	Currency          string          `json:"currency" gorm:"type:varchar(10);default:usd"`
	StripeProductID   string          `json:"stripe_product_id,omitempty" gorm:"type:varchar(255)"`
	StripePriceID     string          `json:"stripe_price_id,omitempty" gorm:"type:varchar(255)"`
	PrimaryImageURL   string          `json:"primary_image_url,omitempty" gorm:"type:varchar(500)"`
	SecondaryImageURL string          `json:"secondary_image_url,omitempty" gorm:"type:varchar(500)"`
	IsSoldOut         bool            `json:"is_sold_out" gorm:"default:false"`
	IsActive          bool            `json:"is_active" gorm:"default:true"`
	InventoryCount    int             `json:"inventory_count" gorm:"default:1"`
	WeightOunces      decimal.Decimal `json:"weight_ounces" gorm:"type:decimal(5,2);default:2.0"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// IsInStock reports whether the product can currently be purchased
func (p *Product) IsInStock() bool {
	return !p.IsSoldOut && p.InventoryCount > 0
}

// Category represents a product category
type Category struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null;unique"`
	Slug        string         `json:"slug" gorm:"type:varchar(100);not null;unique"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
