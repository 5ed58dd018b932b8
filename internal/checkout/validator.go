// Package checkout validates carts and opens payment provider sessions
// for them.
package checkout

import (
	"context"
	"errors"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
)

// Validation error codes reported per cart entry
const (
	CodeNotFound              = "not_found"
	CodeInvalidQuantity       = "invalid_quantity"
	CodeInactive              = "inactive"
	CodeSoldOut               = "sold_out"
	CodeInsufficientInventory = "insufficient_inventory"
	CodeMissingPriceReference = "missing_price_reference"
)

// ErrEmptyCart rejects carts with no entries
var ErrEmptyCart = errors.New("cart is empty")

// CartItem is one entry of a submitted cart
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ItemError reports why one cart entry failed validation
type ItemError struct {
	ProductID string `json:"product_id"`
	Code      string `json:"error"`
	Message   string `json:"message"`
}

// LineItem is a validated cart entry with its price snapshot
type LineItem struct {
	Product   *model.Product
	UnitPrice int64
	Quantity  int
}

// ValidatedCart holds the line items and pre-shipping total of a cart in
// which every entry passed validation
type ValidatedCart struct {
	Items []LineItem
	Total int64
}

type productGetter interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// Validator checks cart entries against the catalog
type Validator struct {
	products productGetter
}

// NewValidator creates a cart validator
func NewValidator(products productGetter) *Validator {
	return &Validator{products: products}
}

// Validate applies ordered checks to every cart entry: the product must
// exist, the quantity must be positive, the product must be active, not
// sold out, have enough inventory, and carry a provider price reference.
// The first failing check ends that entry's validation but the batch
// continues, so the caller gets one error per invalid entry. Validation is
// all or nothing: any entry error means no cart is returned.
func (v *Validator) Validate(ctx context.Context, items []CartItem) (*ValidatedCart, []ItemError, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyCart
	}

	cart := &ValidatedCart{}
	var itemErrors []ItemError

	for _, item := range items {
		product, err := v.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				itemErrors = append(itemErrors, ItemError{
					ProductID: item.ProductID,
					Code:      CodeNotFound,
					Message:   "product not found",
				})
				continue
			}
			return nil, nil, err
		}

		if fieldErr := validateEntry(product, item.Quantity); fieldErr != nil {
			fieldErr.ProductID = item.ProductID
			itemErrors = append(itemErrors, *fieldErr)
			continue
		}

		cart.Items = append(cart.Items, LineItem{
			Product:   product,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
		cart.Total += product.Price * int64(item.Quantity)
	}

	if len(itemErrors) > 0 {
		return nil, itemErrors, nil
	}
	return cart, nil, nil
}

// validateEntry runs the ordered checks on a product that exists
func validateEntry(product *model.Product, quantity int) *ItemError {
	switch {
	case quantity < 1:
		return &ItemError{Code: CodeInvalidQuantity, Message: "quantity must be at least 1"}
	case !product.IsActive:
		return &ItemError{Code: CodeInactive, Message: "product is no longer available"}
	case product.IsSoldOut:
		return &ItemError{Code: CodeSoldOut, Message: "product is sold out"}
	case quantity > product.InventoryCount:
		return &ItemError{Code: CodeInsufficientInventory, Message: "requested quantity exceeds available inventory"}
	case product.StripePriceID == "":
		return &ItemError{Code: CodeMissingPriceReference, Message: "product has no payment price configured"}
	default:
		return nil
	}
}
