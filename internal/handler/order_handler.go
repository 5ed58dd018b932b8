package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/order"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	orderRepo        *repository.OrderRepository
	orderFulfillment *order.Fulfillment
)

// InitOrderHandlers wires the order repository and fulfilment service
func InitOrderHandlers(orders *repository.OrderRepository, fulfillment *order.Fulfillment) {
	orderRepo = orders
	orderFulfillment = fulfillment
}

// ListOrders handles retrieving orders with optional status and custom-order
// filtering
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.OrderFilter{}

	if status := c.QueryParam("status"); status != "" {
		value := model.OrderStatus(status)
		filter.Status = &value
	}
	if isCustom := c.QueryParam("is_custom"); isCustom != "" {
		value, err := strconv.ParseBool(isCustom)
		if err == nil {
			filter.IsCustomOrder = &value
		} else {
			log.Warn("Invalid is_custom parameter", zap.String("value", isCustom), zap.Error(err))
		}
	}

	orders, err := orderRepo.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve orders",
		})
	}

	log.Info("Orders retrieved", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles retrieving a single order with its items
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	ord, err := orderRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Order not found",
			})
		}
		log.Error("Failed to get order", zap.String("order_id", id.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve order",
		})
	}

	return c.JSON(http.StatusOK, ord)
}

// TrackingRequest carries the shipment details recorded on an order
type TrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// SetOrderTracking handles recording tracking details on an order
func SetOrderTracking(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	var req TrackingRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid tracking payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.TrackingNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Tracking number is required",
		})
	}

	ord, err := orderFulfillment.SetTracking(c.Request().Context(), id, req.TrackingNumber, req.Carrier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Order not found",
			})
		}
		log.Error("Failed to set tracking", zap.String("order_id", id.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to set tracking",
		})
	}

	log.Info("Tracking recorded",
		zap.String("order_id", id.String()),
		zap.String("tracking_number", req.TrackingNumber))
	return c.JSON(http.StatusOK, ord)
}

// ShipOrder handles marking a single order shipped, optionally recording
// tracking in the same call
func ShipOrder(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	var req TrackingRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid ship payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	result := orderFulfillment.MarkShipped(c.Request().Context(), []order.ShipInput{{
		OrderID:        id,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	}})
	if len(result.Errors) > 0 {
		failure := result.Errors[0]
		log.Warn("Order could not be shipped",
			zap.String("order_id", id.String()),
			zap.String("reason", failure.Error))
		status := http.StatusBadRequest
		if failure.Error == "order not found" {
			status = http.StatusNotFound
		}
		return c.JSON(status, echo.Map{
			"error": failure.Error,
		})
	}

	ord, err := orderRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		log.Error("Failed to reload shipped order", zap.String("order_id", id.String()), zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Order marked shipped",
		})
	}
	return c.JSON(http.StatusOK, ord)
}

// ShipOrdersRequest names the orders of a batch ship action
type ShipOrdersRequest struct {
	Orders []struct {
		ID             string `json:"id"`
		TrackingNumber string `json:"tracking_number"`
		Carrier        string `json:"carrier"`
	} `json:"orders"`
}

// ShipOrders handles marking a batch of orders shipped. Failures are
// reported per record and never abort the batch.
func ShipOrders(c echo.Context) error {
	log := logger.FromContext(c)

	var req ShipOrdersRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid batch ship payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if len(req.Orders) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "No orders provided",
		})
	}

	result := &model.BatchResult{}
	inputs := make([]order.ShipInput, 0, len(req.Orders))
	for _, entry := range req.Orders {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			result.Fail(entry.ID, "invalid order ID")
			continue
		}
		inputs = append(inputs, order.ShipInput{
			OrderID:        id,
			TrackingNumber: entry.TrackingNumber,
			Carrier:        entry.Carrier,
		})
	}

	shipped := orderFulfillment.MarkShipped(c.Request().Context(), inputs)
	result.Succeeded = append(result.Succeeded, shipped.Succeeded...)
	result.Errors = append(result.Errors, shipped.Errors...)

	log.Info("Batch ship finished",
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("errors", len(result.Errors)))
	return c.JSON(http.StatusOK, result)
}
