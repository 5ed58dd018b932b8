package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID      *uint
	SoldOut         *bool
	IncludeInactive bool
}

// ProductRepository persists catalog products
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID returns a product by its id
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &product, nil
}

// GetBySlug returns a product by its unique slug
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &product, nil
}

// GetByIDs returns the active products matching the given ids.
// Missing or inactive ids are simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	return products, err
}

// List returns products matching the filter, ordered by name
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := r.db.WithContext(ctx).Preload("Category")

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SoldOut != nil {
		query = query.Where("is_sold_out = ?", *filter.SoldOut)
	}

	var products []model.Product
	err := query.Order("name").Find(&products).Error
	return products, err
}

// Create inserts a product, generating an id when none was supplied
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// Save updates all fields of an existing product
func (r *ProductRepository) Save(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes a product from the catalog
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive deactivates a product without removing it
func (r *ProductRepository) Archive(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePriceRefs writes provider references without touching any other
// column, so ref writes can never re-trigger a price sync.
func (r *ProductRepository) UpdatePriceRefs(ctx context.Context, id string, productRef string, priceRef string) error {
	updates := map[string]interface{}{}
	if productRef != "" {
		updates["stripe_product_id"] = productRef
	}
	if priceRef != "" {
		updates["stripe_price_id"] = priceRef
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateImageURLs overwrites the image references of an existing product
func (r *ProductRepository) UpdateImageURLs(ctx context.Context, id string, primary string, secondary string) error {
	updates := map[string]interface{}{"primary_image_url": primary}
	if secondary != "" {
		updates["secondary_image_url"] = secondary
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeductInventory atomically subtracts sold quantity, clamping at zero and
// flagging the product sold out when the remaining count reaches zero. Both
// expressions evaluate against the row as it was before the update.
func (r *ProductRepository) DeductInventory(ctx context.Context, id string, quantity int) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory_count": gorm.Expr("GREATEST(inventory_count - ?, 0)", quantity),
			"is_sold_out":     gorm.Expr("CASE WHEN inventory_count - ? <= 0 THEN TRUE ELSE is_sold_out END", quantity),
		}).Error
}
