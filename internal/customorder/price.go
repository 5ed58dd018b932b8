// Package customorder runs the quote workflow for made-to-order requests:
// submission, staff quoting, approval with a payment link, and fulfilment.
package customorder

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrice rejects quotes that are not plain amounts with zero
	// or exactly two decimal places
	ErrInvalidPrice = errors.New("invalid price format, must have 0 or 2 decimal places")
	// ErrNegativePrice rejects negative quotes
	ErrNegativePrice = errors.New("quoted price cannot be negative")
)

// ParseQuotedPrice parses a staff-entered quote. Dollar signs, spaces, and
// thousands separators are accepted, so "$1,111.11" and "1111.11" parse the
// same. Empty input clears the quote.
func ParseQuotedPrice(input string) (decimal.NullDecimal, error) {
	cleaned := strings.NewReplacer("$", "", " ", "", ",", "").Replace(strings.TrimSpace(input))
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, ErrInvalidPrice
	}
	if price.IsNegative() {
		return decimal.NullDecimal{}, ErrNegativePrice
	}
	if idx := strings.Index(cleaned, "."); idx >= 0 && len(cleaned)-idx-1 != 2 {
		return decimal.NullDecimal{}, ErrInvalidPrice
	}

	return decimal.NullDecimal{Decimal: price, Valid: true}, nil
}
