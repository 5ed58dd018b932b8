package handler

import (
	"errors"
	"net/http"

	"github.com/keycasey/Spirit-Beads-Service/internal/checkout"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	checkoutInitiator *checkout.Initiator
	countryHeader     string
)

// InitCheckoutHandler wires the checkout service and the header carrying
// the edge-detected customer country
func InitCheckoutHandler(initiator *checkout.Initiator, header string) {
	checkoutInitiator = initiator
	countryHeader = header
}

// CheckoutSessionRequest is the cart submitted by the storefront
type CheckoutSessionRequest struct {
	Items []checkout.CartItem `json:"items"`
}

// CreateCheckoutSession validates the cart and opens a payment session,
// responding with the URL the customer is redirected to
func CreateCheckoutSession(c echo.Context) error {
	log := logger.FromContext(c)

	var req CheckoutSessionRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid checkout request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	checkoutURL, err := checkoutInitiator.Initiate(c.Request().Context(), checkout.CheckoutRequest{
		Items:       req.Items,
		Origin:      c.Request().Header.Get("Origin"),
		CountryHint: c.Request().Header.Get(countryHeader),
		ClientIP:    c.RealIP(),
	})
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			log.Warn("Checkout attempted with empty cart")
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "No items provided",
			})
		}

		var validationErr *checkout.ValidationError
		if errors.As(err, &validationErr) {
			log.Warn("Cart failed validation", zap.Int("item_errors", len(validationErr.Items)))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "Invalid items in cart",
				"details": validationErr.Items,
			})
		}

		var providerErr *payments.ProviderError
		if errors.As(err, &providerErr) {
			log.Error("Payment provider rejected checkout session",
				zap.String("code", providerErr.Code),
				zap.String("hint", providerErr.Hint),
				zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error": providerErr.Message,
				"code":  providerErr.Code,
				"hint":  providerErr.Hint,
			})
		}

		log.Error("Failed to create checkout session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create checkout session",
		})
	}

	log.Info("Checkout session created")
	return c.JSON(http.StatusOK, echo.Map{
		"checkout_url": checkoutURL,
	})
}
