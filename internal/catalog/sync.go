// Package catalog keeps provider-side products and prices aligned with the
// local catalog. Provider prices are immutable, so every price change mints
// a new reference; superseded references are left in place.
package catalog

import (
	"context"
	"errors"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"go.uber.org/zap"
)

type productStore interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	UpdatePriceRefs(ctx context.Context, id string, productRef string, priceRef string) error
	UpdateImageURLs(ctx context.Context, id string, primary string, secondary string) error
}

type categoryStore interface {
	GetOrCreateByName(ctx context.Context, name string) (*model.Category, error)
}

type priceGateway interface {
	CreateProduct(ctx context.Context, spec payments.ProductSpec) (string, error)
	CreatePrice(ctx context.Context, spec payments.PriceSpec) (string, error)
	ArchiveProduct(ctx context.Context, productRef string, note string) error
}

// Sync mints provider price references for catalog products
type Sync struct {
	products   productStore
	categories categoryStore
	gateway    priceGateway
	log        *zap.Logger
}

// NewSync creates a catalog sync service
func NewSync(products productStore, categories categoryStore, gateway priceGateway, log *zap.Logger) *Sync {
	return &Sync{products: products, categories: categories, gateway: gateway, log: log}
}

// EnsurePriceRef creates the provider product on first sync and always
// mints a new price for the product's current amount. References are
// written back through the dedicated ref-update path, one at a time, so a
// failure between the two steps loses no work.
func (s *Sync) EnsurePriceRef(ctx context.Context, product *model.Product) error {
	if product.StripeProductID == "" {
		productRef, err := s.gateway.CreateProduct(ctx, payments.ProductSpec{
			Name:      product.Name,
			ProductID: product.ID,
		})
		if err != nil {
			prometheus.RecordPriceSync("failed")
			return err
		}
		if err := s.products.UpdatePriceRefs(ctx, product.ID, productRef, ""); err != nil {
			prometheus.RecordPriceSync("failed")
			return err
		}
		product.StripeProductID = productRef
	}

	priceRef, err := s.gateway.CreatePrice(ctx, payments.PriceSpec{
		ProductRef: product.StripeProductID,
		UnitAmount: product.Price,
		Currency:   product.Currency,
	})
	if err != nil {
		prometheus.RecordPriceSync("failed")
		return err
	}
	if err := s.products.UpdatePriceRefs(ctx, product.ID, "", priceRef); err != nil {
		prometheus.RecordPriceSync("failed")
		return err
	}
	product.StripePriceID = priceRef

	prometheus.RecordPriceSync("success")
	s.log.Info("Provider price minted",
		zap.String("product_id", product.ID),
		zap.String("price_ref", priceRef),
		zap.Int64("unit_amount", product.Price))
	return nil
}

// SyncBatch mints fresh price references for each named product
func (s *Sync) SyncBatch(ctx context.Context, ids []string) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		product, err := s.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				result.Fail(id, "product not found")
			} else {
				result.Fail(id, err.Error())
			}
			continue
		}
		if err := s.EnsurePriceRef(ctx, product); err != nil {
			result.Fail(id, err.Error())
			continue
		}
		result.Succeed(id)
	}
	return result
}

// ArchiveProviderProduct deactivates the provider-side product when a
// catalog product is removed. Provider failures are logged, never allowed
// to block the removal.
func (s *Sync) ArchiveProviderProduct(ctx context.Context, product *model.Product) {
	if product.StripeProductID == "" {
		s.log.Info("Product has no provider reference, skipping archive",
			zap.String("product_id", product.ID))
		return
	}

	err := s.gateway.ArchiveProduct(ctx, product.StripeProductID, "[Archived] Product deleted from admin")
	if err != nil {
		s.log.Error("Failed to archive provider product",
			zap.String("product_id", product.ID),
			zap.String("product_ref", product.StripeProductID),
			zap.Error(err))
		return
	}

	s.log.Info("Provider product archived",
		zap.String("product_id", product.ID),
		zap.String("product_ref", product.StripeProductID))
}
