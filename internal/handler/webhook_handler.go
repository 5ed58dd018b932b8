package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// maxWebhookBody caps event payload reads at 1 MiB, well above any real
// provider event
const maxWebhookBody = 1 << 20

var webhookReconciler *payments.Reconciler

// InitWebhookHandler wires the webhook reconciler
func InitWebhookHandler(reconciler *payments.Reconciler) {
	webhookReconciler = reconciler
}

// HandleStripeWebhook verifies and applies a provider event. Every verified
// event is acknowledged with 200 so the provider stops redelivering it; only
// a signature failure earns a 400.
func HandleStripeWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		log.Error("Failed to read webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Failed to read request body",
		})
	}

	signature := c.Request().Header.Get("Stripe-Signature")

	result, err := webhookReconciler.HandleEvent(c.Request().Context(), payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			log.Warn("Webhook signature verification failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid signature",
			})
		}
		// Processing failures are logged and acknowledged; the provider
		// redelivers and the event log keeps the retry safe
		log.Error("Webhook event processing failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": string(result),
	})
}
