package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportRecord is one product of a bulk import payload. Price is in whole
// currency units and is converted to minor units on creation.
type ImportRecord struct {
	Name              string           `json:"name"`
	Slug              string           `json:"slug,omitempty"`
	Category          string           `json:"category,omitempty"`
	Description       string           `json:"description,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	Currency          string           `json:"currency,omitempty"`
	PrimaryImageURL   string           `json:"primary_image_url"`
	SecondaryImageURL string           `json:"secondary_image_url,omitempty"`
	InventoryCount    *int             `json:"inventory_count,omitempty"`
	WeightOunces      *decimal.Decimal `json:"weight_ounces,omitempty"`
}

// ImportSummary reports what a bulk import did
type ImportSummary struct {
	Created int                `json:"created"`
	Updated int                `json:"updated"`
	Skipped int                `json:"skipped"`
	Errors  []model.BatchError `json:"errors"`
}

// Import creates products from a bulk payload. A record whose slug is
// already taken is skipped, or has its images refreshed when update is set.
// Each created product gets a provider price minted; a provider failure is
// logged and leaves the product importable again via sync.
func (s *Sync) Import(ctx context.Context, records []ImportRecord, update bool) *ImportSummary {
	summary := &ImportSummary{}

	for i, record := range records {
		label := record.Slug
		if label == "" {
			label = record.Name
		}
		if label == "" {
			label = fmt.Sprintf("record %d", i+1)
		}

		outcome, err := s.importOne(ctx, record, update)
		if err != nil {
			summary.Errors = append(summary.Errors, model.BatchError{ID: label, Error: err.Error()})
			continue
		}

		switch outcome {
		case importCreated:
			summary.Created++
		case importUpdated:
			summary.Updated++
		case importSkipped:
			summary.Skipped++
		}
	}
	return summary
}

type importOutcome int

const (
	importCreated importOutcome = iota
	importUpdated
	importSkipped
)

func (s *Sync) importOne(ctx context.Context, record ImportRecord, update bool) (importOutcome, error) {
	if record.Name == "" {
		return 0, errors.New("name is required")
	}
	if record.PrimaryImageURL == "" {
		return 0, errors.New("primary image is required")
	}
	if record.Price.IsNegative() {
		return 0, errors.New("price cannot be negative")
	}

	if record.Slug != "" {
		existing, err := s.products.GetBySlug(ctx, record.Slug)
		if err == nil {
			if !update {
				return importSkipped, nil
			}
			if uerr := s.products.UpdateImageURLs(ctx, existing.ID, record.PrimaryImageURL, record.SecondaryImageURL); uerr != nil {
				return 0, uerr
			}
			return importUpdated, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return 0, err
		}
	}

	id := uuid.NewString()
	slug := record.Slug
	if slug == "" {
		slug = fmt.Sprintf("%s-%s", slugify(record.Name), id[:8])
	}

	currency := record.Currency
	if currency == "" {
		currency = "usd"
	}

	product := &model.Product{
		ID:                id,
		Name:              record.Name,
		Slug:              slug,
		Description:       record.Description,
		Price:             record.Price.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:          currency,
		PrimaryImageURL:   record.PrimaryImageURL,
		SecondaryImageURL: record.SecondaryImageURL,
		IsActive:          true,
	}
	if record.InventoryCount != nil {
		product.InventoryCount = *record.InventoryCount
	}
	if record.WeightOunces != nil {
		product.WeightOunces = *record.WeightOunces
	}

	if record.Category != "" {
		category, err := s.categories.GetOrCreateByName(ctx, record.Category)
		if err != nil {
			return 0, err
		}
		product.CategoryID = &category.ID
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return importSkipped, nil
		}
		return 0, err
	}

	if err := s.EnsurePriceRef(ctx, product); err != nil {
		s.log.Error("Price sync failed for imported product",
			zap.String("product_id", product.ID),
			zap.Error(err))
	}

	return importCreated, nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
