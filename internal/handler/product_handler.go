package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/catalog"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxBatchIDs caps the batch lookup endpoint to keep queries bounded
const maxBatchIDs = 100

var (
	productRepo *repository.ProductRepository
	catalogSync *catalog.Sync
)

// InitProductHandlers wires the product repository and the provider sync
// service into the package-level handlers
func InitProductHandlers(products *repository.ProductRepository, sync *catalog.Sync) {
	productRepo = products
	catalogSync = sync
}

// ProductRequest defines the structure for product creation/update requests.
// Price is entered in whole currency units and stored in minor units.
type ProductRequest struct {
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Description       string           `json:"description"`
	CategoryID        *uint            `json:"category_id"`
	Price             decimal.Decimal  `json:"price"`
	Currency          string           `json:"currency"`
	PrimaryImageURL   string           `json:"primary_image_url"`
	SecondaryImageURL string           `json:"secondary_image_url"`
	InventoryCount    *int             `json:"inventory_count"`
	WeightOunces      *decimal.Decimal `json:"weight_ounces"`
	IsSoldOut         *bool            `json:"is_sold_out"`
	IsActive          *bool            `json:"is_active"`
}

// ListProducts handles retrieving all active products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.ProductFilter{}

	// Filter by sold-out status if specified
	if soldOut := c.QueryParam("is_sold_out"); soldOut != "" {
		value, err := strconv.ParseBool(soldOut)
		if err == nil {
			filter.SoldOut = &value
		} else {
			log.Warn("Invalid is_sold_out parameter", zap.String("value", soldOut), zap.Error(err))
		}
	}

	// Filter by category if specified
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		value, err := strconv.ParseUint(categoryID, 10, 32)
		if err == nil {
			id := uint(value)
			filter.CategoryID = &id
		} else {
			log.Warn("Invalid category_id parameter", zap.String("value", categoryID), zap.Error(err))
		}
	}

	products, err := productRepo.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single active product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	product, err := productRepo.GetByID(c.Request().Context(), id)
	if err != nil || !product.IsActive {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to retrieve product",
			})
		}
		log.Warn("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(http.StatusOK, product)
}

// GetProductBatch handles retrieving multiple active products by their IDs
func GetProductBatch(c echo.Context) error {
	log := logger.FromContext(c)

	idsParam := c.QueryParam("ids")
	if idsParam == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "ids parameter is required",
		})
	}

	var ids []string
	for _, raw := range strings.Split(idsParam, ",") {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "No valid IDs provided",
		})
	}
	if len(ids) > maxBatchIDs {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("Maximum %d IDs allowed per request", maxBatchIDs),
		})
	}

	products, err := productRepo.GetByIDs(c.Request().Context(), ids)
	if err != nil {
		log.Error("Failed to retrieve product batch", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	foundIDs := make([]string, 0, len(products))
	for _, product := range products {
		foundIDs = append(foundIDs, product.ID)
	}

	log.Info("Product batch retrieved",
		zap.Int("requested", len(ids)),
		zap.Int("found", len(products)))
	return c.JSON(http.StatusOK, echo.Map{
		"products":      products,
		"count":         len(products),
		"requested_ids": ids,
		"found_ids":     foundIDs,
	})
}

// CheckAvailability reports whether a product can currently be purchased
func CheckAvailability(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	product, err := productRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		}
		log.Error("Failed to check availability", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve product",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"is_in_stock":     product.IsInStock(),
		"inventory_count": product.InventoryCount,
		"is_sold_out":     product.IsSoldOut,
	})
}

// CreateProduct handles creating a new product and minting its provider
// price reference
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new product")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Product name is required",
		})
	}
	if req.Price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Price cannot be negative",
		})
	}

	id := uuid.NewString()
	slug := req.Slug
	if slug == "" {
		slug = deriveSlug(req.Name, id)
	}
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	product := &model.Product{
		ID:                id,
		Name:              req.Name,
		Slug:              slug,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		Price:             toCents(req.Price),
		Currency:          currency,
		PrimaryImageURL:   req.PrimaryImageURL,
		SecondaryImageURL: req.SecondaryImageURL,
		InventoryCount:    1,
		IsActive:          true,
	}
	if req.InventoryCount != nil {
		product.InventoryCount = *req.InventoryCount
	}
	if req.WeightOunces != nil {
		product.WeightOunces = *req.WeightOunces
	}
	if req.IsSoldOut != nil {
		product.IsSoldOut = *req.IsSoldOut
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := productRepo.Create(c.Request().Context(), product); err != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.String("slug", slug),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	// Mint the provider price reference. A provider failure leaves the
	// product created but unsellable until the next sync.
	if err := catalogSync.EnsurePriceRef(c.Request().Context(), product); err != nil {
		log.Error("Provider price sync failed for new product",
			zap.String("product_id", product.ID),
			zap.Error(err))
	}

	log.Info("Product created successfully",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("slug", product.Slug))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product. A price change mints
// a fresh provider price reference.
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating product", zap.String("product_id", id))

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	product, err := productRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Product not found for update", zap.String("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		}
		log.Error("Failed to load product for update", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve product",
		})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Product name is required",
		})
	}
	if req.Price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Price cannot be negative",
		})
	}

	oldPrice := product.Price

	product.Name = req.Name
	product.Description = req.Description
	product.CategoryID = req.CategoryID
	product.Price = toCents(req.Price)
	product.PrimaryImageURL = req.PrimaryImageURL
	product.SecondaryImageURL = req.SecondaryImageURL
	if req.Slug != "" {
		product.Slug = req.Slug
	}
	if req.Currency != "" {
		product.Currency = req.Currency
	}
	if req.InventoryCount != nil {
		product.InventoryCount = *req.InventoryCount
	}
	if req.WeightOunces != nil {
		product.WeightOunces = *req.WeightOunces
	}
	if req.IsSoldOut != nil {
		product.IsSoldOut = *req.IsSoldOut
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := productRepo.Save(c.Request().Context(), product); err != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	if product.Price != oldPrice || product.StripePriceID == "" {
		if err := catalogSync.EnsurePriceRef(c.Request().Context(), product); err != nil {
			log.Error("Provider price sync failed after update",
				zap.String("product_id", product.ID),
				zap.Error(err))
		}
	}

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.Int64("old_price", oldPrice),
		zap.Int64("new_price", product.Price))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product (soft delete). The provider-side
// product is archived first so the storefront and provider stay consistent.
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deleting product", zap.String("product_id", id))

	product, err := productRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Product not found for deletion", zap.String("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		}
		log.Error("Failed to load product for deletion", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve product",
		})
	}

	catalogSync.ArchiveProviderProduct(c.Request().Context(), product)

	if err := productRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		}
		log.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete product",
		})
	}

	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted successfully",
	})
}

// ArchiveProduct handles hiding a product from the storefront without
// deleting it
func ArchiveProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	if err := productRepo.Archive(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Product not found for archive", zap.String("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		}
		log.Error("Failed to archive product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to archive product",
		})
	}

	log.Info("Product archived", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message":    fmt.Sprintf("Product %s has been archived", id),
		"product_id": id,
		"is_active":  false,
	})
}

// ImportRequest is a bulk import payload. When UpdateExisting is set,
// records whose slug is already taken refresh that product's images
// instead of being skipped.
type ImportRequest struct {
	Products       []catalog.ImportRecord `json:"products"`
	UpdateExisting bool                   `json:"update_existing"`
}

// ImportProducts handles bulk product import
func ImportProducts(c echo.Context) error {
	log := logger.FromContext(c)

	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid import payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if len(req.Products) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "No products provided",
		})
	}

	summary := catalogSync.Import(c.Request().Context(), req.Products, req.UpdateExisting)

	log.Info("Product import finished",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)))
	return c.JSON(http.StatusOK, summary)
}

// SyncRequest names the products to push to the payment provider
type SyncRequest struct {
	IDs []string `json:"ids"`
}

// SyncProductPrices handles pushing provider product/price references for
// a batch of products
func SyncProductPrices(c echo.Context) error {
	log := logger.FromContext(c)

	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid sync payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "No product IDs provided",
		})
	}

	result := catalogSync.SyncBatch(c.Request().Context(), req.IDs)

	log.Info("Price sync finished",
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("errors", len(result.Errors)))
	return c.JSON(http.StatusOK, result)
}

func toCents(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).IntPart()
}

// deriveSlug builds a stable slug from the product name and a short id
// suffix to dodge collisions
func deriveSlug(name string, id string) string {
	base := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	return fmt.Sprintf("%s-%s", base, id[:8])
}
