// Package payments integrates the storefront with its payment provider:
// checkout session and payment link creation on the way out, signed webhook
// events on the way back in.
package payments

import (
	"errors"
	"fmt"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
)

// EventCheckoutSessionCompleted is the provider event emitted when a
// customer finishes paying for a checkout session or payment link.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// MetadataCustomRequestKey is the metadata key correlating a payment link
// back to the custom order request it was minted for.
const MetadataCustomRequestKey = "custom_request_id"

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ProviderError is a diagnostic error surfaced when the provider rejects an
// operation. Hint carries likely-cause guidance for common rejections.
type ProviderError struct {
	Code    string
	Message string
	Hint    string
}

func (e *ProviderError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("payment provider rejected request (%s): %s (%s)", e.Code, e.Message, e.Hint)
	}
	return fmt.Sprintf("payment provider rejected request (%s): %s", e.Code, e.Message)
}

// SessionLineItem references a provider price for one cart entry
type SessionLineItem struct {
	PriceRef string
	Quantity int64
}

// SessionSpec describes a checkout session to create
type SessionSpec struct {
	LineItems        []SessionLineItem
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	ShippingRateRef  string
}

// Session is a created checkout session
type Session struct {
	ID  string
	URL string
}

// ShippingRateSpec describes a fixed-amount shipping rate to create
type ShippingRateSpec struct {
	DisplayName string
	Amount      int64
	Currency    string
	MinDays     int64
	MaxDays     int64
}

// ProductSpec describes a provider-side product to create
type ProductSpec struct {
	Name      string
	ProductID string
}

// PriceSpec describes an immutable provider price to mint. When ProductRef
// is empty, inline product data (name + description excerpt) is sent
// instead, which is how custom order quotes are priced.
type PriceSpec struct {
	ProductRef  string
	UnitAmount  int64
	Currency    string
	ProductName string
	Description string
}

// PaymentLinkSpec describes a shareable payment link for a minted price
type PaymentLinkSpec struct {
	PriceRef        string
	Quantity        int64
	RedirectURL     string
	CustomRequestID string
}

// PaymentLink is a created payment link
type PaymentLink struct {
	ID  string
	URL string
}

// Event is a verified provider event
type Event struct {
	ID   string
	Type string
	Raw  []byte
}

// CompletedSession is the checkout session carried by a completed event
type CompletedSession struct {
	SessionID       string
	PaymentIntentID string
	CustomerEmail   string
	AmountTotal     int64
	Currency        string
	ShippingAddress *model.ShippingAddress
	CustomRequestID string
}
