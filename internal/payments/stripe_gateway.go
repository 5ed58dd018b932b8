package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/paymentlink"
	"github.com/stripe/stripe-go/v76/price"
	"github.com/stripe/stripe-go/v76/product"
	"github.com/stripe/stripe-go/v76/shippingrate"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway talks to Stripe. All methods translate provider rejections
// into ProviderError so callers can surface diagnostics.
type StripeGateway struct {
	webhookSecret string
}

// NewStripeGateway configures the Stripe client and returns the gateway
func NewStripeGateway(secretKey string, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

// CreateCheckoutSession creates a hosted checkout session for validated
// cart line items
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, spec SessionSpec) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(spec.SuccessURL),
		CancelURL:          stripe.String(spec.CancelURL),
	}
	params.Context = ctx

	for _, item := range spec.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceRef),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	if len(spec.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(spec.AllowedCountries),
		}
	}
	if spec.ShippingRateRef != "" {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(spec.ShippingRateRef)},
		}
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, wrapProviderError(err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// CreateShippingRate creates a fixed-amount shipping rate with a delivery
// estimate, returning its reference
func (g *StripeGateway) CreateShippingRate(ctx context.Context, spec ShippingRateSpec) (string, error) {
	params := &stripe.ShippingRateParams{
		DisplayName: stripe.String(spec.DisplayName),
		Type:        stripe.String("fixed_amount"),
		FixedAmount: &stripe.ShippingRateFixedAmountParams{
			Amount:   stripe.Int64(spec.Amount),
			Currency: stripe.String(spec.Currency),
		},
		DeliveryEstimate: &stripe.ShippingRateDeliveryEstimateParams{
			Minimum: &stripe.ShippingRateDeliveryEstimateMinimumParams{
				Unit:  stripe.String("business_day"),
				Value: stripe.Int64(spec.MinDays),
			},
			Maximum: &stripe.ShippingRateDeliveryEstimateMaximumParams{
				Unit:  stripe.String("business_day"),
				Value: stripe.Int64(spec.MaxDays),
			},
		},
	}
	params.Context = ctx

	rate, err := shippingrate.New(params)
	if err != nil {
		return "", wrapProviderError(err)
	}
	return rate.ID, nil
}

// CreateProduct creates a provider-side product, returning its reference
func (g *StripeGateway) CreateProduct(ctx context.Context, spec ProductSpec) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(spec.Name),
	}
	params.Context = ctx
	params.AddMetadata("product_id", spec.ProductID)

	p, err := product.New(params)
	if err != nil {
		return "", wrapProviderError(err)
	}
	return p.ID, nil
}

// ArchiveProduct deactivates a provider-side product, keeping its history
func (g *StripeGateway) ArchiveProduct(ctx context.Context, productRef string, note string) error {
	params := &stripe.ProductParams{
		Active: stripe.Bool(false),
	}
	if note != "" {
		params.Description = stripe.String(note)
	}
	params.Context = ctx

	if _, err := product.Update(productRef, params); err != nil {
		return wrapProviderError(err)
	}
	return nil
}

// CreatePrice mints a new immutable price, returning its reference.
// Provider prices cannot be amended, so every price change mints a fresh one.
func (g *StripeGateway) CreatePrice(ctx context.Context, spec PriceSpec) (string, error) {
	params := &stripe.PriceParams{
		UnitAmount: stripe.Int64(spec.UnitAmount),
		Currency:   stripe.String(spec.Currency),
	}
	params.Context = ctx

	if spec.ProductRef != "" {
		params.Product = stripe.String(spec.ProductRef)
	} else {
		data := &stripe.PriceProductDataParams{
			Name: stripe.String(spec.ProductName),
		}
		if spec.Description != "" {
			data.Metadata = map[string]string{"description": spec.Description}
		}
		params.ProductData = data
	}

	pr, err := price.New(params)
	if err != nil {
		return "", wrapProviderError(err)
	}
	return pr.ID, nil
}

// CreatePaymentLink creates a shareable payment link carrying the custom
// request correlation id in its metadata
func (g *StripeGateway) CreatePaymentLink(ctx context.Context, spec PaymentLinkSpec) (*PaymentLink, error) {
	quantity := spec.Quantity
	if quantity < 1 {
		quantity = 1
	}

	params := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(spec.PriceRef),
				Quantity: stripe.Int64(quantity),
			},
		},
	}
	params.Context = ctx

	if spec.RedirectURL != "" {
		params.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String("redirect"),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(spec.RedirectURL),
			},
		}
	}
	if spec.CustomRequestID != "" {
		params.AddMetadata(MetadataCustomRequestKey, spec.CustomRequestID)
	}

	link, err := paymentlink.New(params)
	if err != nil {
		return nil, wrapProviderError(err)
	}
	return &PaymentLink{ID: link.ID, URL: link.URL}, nil
}

// VerifyEvent authenticates a webhook payload against the signing secret.
// Any verification failure maps to ErrInvalidSignature.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &Event{ID: ev.ID, Type: string(ev.Type), Raw: ev.Data.Raw}, nil
}

// ParseCompletedSession extracts the fields the reconciler needs from a
// completed-checkout event
func ParseCompletedSession(ev *Event) (*CompletedSession, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(ev.Raw, &sess); err != nil {
		return nil, fmt.Errorf("parsing checkout session payload: %w", err)
	}

	completed := &CompletedSession{
		SessionID:   sess.ID,
		AmountTotal: sess.AmountTotal,
		Currency:    string(sess.Currency),
	}
	if sess.PaymentIntent != nil {
		completed.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.CustomerDetails != nil {
		completed.CustomerEmail = sess.CustomerDetails.Email
	}
	if len(sess.Metadata) > 0 {
		completed.CustomRequestID = sess.Metadata[MetadataCustomRequestKey]
	}
	completed.ShippingAddress = shippingAddressFrom(&sess)

	return completed, nil
}

// shippingAddressFrom prefers the session's shipping details and falls back
// to customer details; either can be absent depending on the payment flow.
func shippingAddressFrom(sess *stripe.CheckoutSession) *model.ShippingAddress {
	var name string
	var addr *stripe.Address

	switch {
	case sess.ShippingDetails != nil && sess.ShippingDetails.Address != nil:
		name = sess.ShippingDetails.Name
		addr = sess.ShippingDetails.Address
	case sess.CustomerDetails != nil && sess.CustomerDetails.Address != nil:
		name = sess.CustomerDetails.Name
		addr = sess.CustomerDetails.Address
	default:
		return nil
	}

	return &model.ShippingAddress{
		Name:       name,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}

func wrapProviderError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		pe := &ProviderError{Code: string(stripeErr.Code), Message: stripeErr.Msg}
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			pe.Hint = "referenced object may belong to the other provider mode (test vs live)"
		}
		return pe
	}
	return err
}
