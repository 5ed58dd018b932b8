package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/shipping"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"go.uber.org/zap"
)

// ValidationError carries the per-entry failures of a rejected cart
type ValidationError struct {
	Items []ItemError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart validation failed for %d item(s)", len(e.Items))
}

type sessionGateway interface {
	CreateShippingRate(ctx context.Context, spec payments.ShippingRateSpec) (string, error)
	CreateCheckoutSession(ctx context.Context, spec payments.SessionSpec) (*payments.Session, error)
}

type orderCreator interface {
	Create(ctx context.Context, order *model.Order) error
}

// Initiator turns a validated cart into a pending order and a provider
// checkout session the customer is redirected to.
type Initiator struct {
	validator        *Validator
	resolver         *shipping.Resolver
	gateway          sessionGateway
	orders           orderCreator
	allowedCountries []string
	frontendURL      string
	currency         string
	log              *zap.Logger
}

// NewInitiator creates a checkout session initiator
func NewInitiator(validator *Validator, resolver *shipping.Resolver, gateway sessionGateway, orders orderCreator, allowedCountries []string, frontendURL string, currency string, log *zap.Logger) *Initiator {
	return &Initiator{
		validator:        validator,
		resolver:         resolver,
		gateway:          gateway,
		orders:           orders,
		allowedCountries: allowedCountries,
		frontendURL:      frontendURL,
		currency:         currency,
		log:              log,
	}
}

// CheckoutRequest carries the cart and the request attributes used for
// shipping detection and redirect URLs
type CheckoutRequest struct {
	Items       []CartItem
	Origin      string
	CountryHint string
	ClientIP    string
}

// Initiate validates the cart, prices shipping, opens the provider session,
// and persists the pending order with one item snapshot per line. The
// persisted amount is the pre-shipping sum: the full total is only known
// once the provider reports the completed session back.
func (i *Initiator) Initiate(ctx context.Context, req CheckoutRequest) (string, error) {
	cart, itemErrors, err := i.validator.Validate(ctx, req.Items)
	if err != nil {
		prometheus.RecordCheckoutAttempt("error")
		return "", err
	}
	if len(itemErrors) > 0 {
		prometheus.RecordCheckoutAttempt("validation_failed")
		return "", &ValidationError{Items: itemErrors}
	}

	rate := i.resolver.Quote(ctx, req.CountryHint, req.ClientIP)

	// Shipping rate creation failing only degrades the session: the
	// customer checks out without shipping options
	rateRef, err := i.gateway.CreateShippingRate(ctx, payments.ShippingRateSpec{
		DisplayName: rate.DisplayName,
		Amount:      rate.Amount,
		Currency:    rate.Currency,
		MinDays:     rate.MinDays,
		MaxDays:     rate.MaxDays,
	})
	if err != nil {
		i.log.Warn("Shipping rate creation failed, continuing without shipping options",
			zap.String("tier", string(rate.Tier)),
			zap.Error(err))
		rateRef = ""
	}

	base := strings.TrimRight(req.Origin, "/")
	if base == "" {
		base = strings.TrimRight(i.frontendURL, "/")
	}

	spec := payments.SessionSpec{
		SuccessURL:       base + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        base + "/cancel",
		AllowedCountries: i.allowedCountries,
		ShippingRateRef:  rateRef,
	}
	for _, item := range cart.Items {
		spec.LineItems = append(spec.LineItems, payments.SessionLineItem{
			PriceRef: item.Product.StripePriceID,
			Quantity: int64(item.Quantity),
		})
	}

	session, err := i.gateway.CreateCheckoutSession(ctx, spec)
	if err != nil {
		prometheus.RecordCheckoutAttempt("provider_rejected")
		return "", err
	}

	order := &model.Order{
		StripeSessionID: session.ID,
		AmountTotal:     cart.Total,
		Currency:        i.currency,
		Status:          model.OrderStatusPending,
		// First item's image represents the order in emails
		ProductImageURL: cart.Items[0].Product.PrimaryImageURL,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	if err := i.orders.Create(ctx, order); err != nil {
		prometheus.RecordCheckoutAttempt("error")
		i.log.Error("Failed to persist pending order for session",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return "", err
	}

	prometheus.RecordCheckoutAttempt("success")
	i.log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("order_id", order.ID.String()),
		zap.Int64("amount_total", cart.Total),
		zap.String("shipping_tier", string(rate.Tier)))
	return session.URL, nil
}
