package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/keycasey/Spirit-Beads-Service/internal/customorder"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	customOrderWorkflow *customorder.Workflow
	customOrderRepo     *repository.CustomOrderRepository
)

// InitCustomOrderHandlers wires the quote workflow and the request
// repository into the handlers
func InitCustomOrderHandlers(workflow *customorder.Workflow, requests *repository.CustomOrderRepository) {
	customOrderWorkflow = workflow
	customOrderRepo = requests
}

// CustomOrderSubmission is the public request form payload
type CustomOrderSubmission struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Description string   `json:"description"`
	Colors      string   `json:"colors"`
	Images      []string `json:"images"`
}

// customOrderView decorates a request with the classification of its
// submitted image references for staff screens
type customOrderView struct {
	*model.CustomOrderRequest
	ImageDetails []customorder.ImageRef `json:"image_details,omitempty"`
}

func viewOf(request *model.CustomOrderRequest) customOrderView {
	return customOrderView{
		CustomOrderRequest: request,
		ImageDetails:       customorder.ClassifyImageRefs(request.Images),
	}
}

// SubmitCustomOrder handles the public custom order request form
func SubmitCustomOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req CustomOrderSubmission
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid custom order submission", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.Email == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Name, email, and description are required",
		})
	}

	request, err := customOrderWorkflow.Submit(c.Request().Context(), customorder.Submission{
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
		Colors:      req.Colors,
		Images:      req.Images,
	})
	if err != nil {
		log.Error("Failed to create custom order request", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to submit request",
		})
	}

	return c.JSON(http.StatusCreated, request)
}

// ListCustomOrders handles the staff listing with optional status filtering
func ListCustomOrders(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.CustomOrderFilter{}
	if status := c.QueryParam("status"); status != "" {
		value := model.CustomOrderStatus(status)
		filter.Status = &value
	}

	requests, err := customOrderRepo.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list custom order requests", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve requests",
		})
	}

	views := make([]customOrderView, 0, len(requests))
	for i := range requests {
		views = append(views, viewOf(&requests[i]))
	}

	log.Info("Custom order requests retrieved", zap.Int("count", len(views)))
	return c.JSON(http.StatusOK, views)
}

// GetCustomOrder handles retrieving a single request with image details
func GetCustomOrder(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request ID",
		})
	}

	request, err := customOrderRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Request not found",
			})
		}
		log.Error("Failed to get custom order request", zap.String("request_id", id.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve request",
		})
	}

	return c.JSON(http.StatusOK, viewOf(request))
}

// QuoteRequest carries a staff quote. The price is accepted as entered,
// dollar signs and commas included.
type QuoteRequest struct {
	QuotedPrice string `json:"quoted_price"`
	AdminNotes  string `json:"admin_notes"`
}

// SetCustomOrderQuote handles recording a staff quote on a request
func SetCustomOrderQuote(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request ID",
		})
	}

	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid quote payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	request, err := customOrderWorkflow.SetQuote(c.Request().Context(), id, req.QuotedPrice, req.AdminNotes)
	if err != nil {
		if errors.Is(err, customorder.ErrInvalidPrice) || errors.Is(err, customorder.ErrNegativePrice) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": err.Error(),
			})
		}
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Request not found",
			})
		}
		log.Error("Failed to set quote", zap.String("request_id", id.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to set quote",
		})
	}

	log.Info("Quote recorded", zap.String("request_id", id.String()))
	return c.JSON(http.StatusOK, viewOf(request))
}

// BatchIDsRequest names the requests a staff batch action applies to
type BatchIDsRequest struct {
	IDs []string `json:"ids"`
}

// parseBatchIDs splits a batch body into parseable UUIDs and per-record
// errors for the rest
func parseBatchIDs(raw []string) ([]uuid.UUID, *model.BatchResult) {
	result := &model.BatchResult{}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, entry := range raw {
		id, err := uuid.Parse(entry)
		if err != nil {
			result.Fail(entry, "invalid request ID")
			continue
		}
		ids = append(ids, id)
	}
	return ids, result
}

func runCustomOrderBatch(c echo.Context, action string, run func([]uuid.UUID) *model.BatchResult) error {
	log := logger.FromContext(c)

	var req BatchIDsRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid batch payload", zap.String("action", action), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "No request IDs provided",
		})
	}

	ids, result := parseBatchIDs(req.IDs)
	applied := run(ids)
	result.Succeeded = append(result.Succeeded, applied.Succeeded...)
	result.Errors = append(result.Errors, applied.Errors...)

	log.Info("Custom order batch finished",
		zap.String("action", action),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("errors", len(result.Errors)))
	return c.JSON(http.StatusOK, result)
}

// ApproveCustomOrders handles batch approval: payment links are minted and
// emailed for every pending quoted request
func ApproveCustomOrders(c echo.Context) error {
	return runCustomOrderBatch(c, "approve", func(ids []uuid.UUID) *model.BatchResult {
		return customOrderWorkflow.Approve(c.Request().Context(), ids)
	})
}

// RejectCustomOrders handles batch rejection
func RejectCustomOrders(c echo.Context) error {
	return runCustomOrderBatch(c, "reject", func(ids []uuid.UUID) *model.BatchResult {
		return customOrderWorkflow.Reject(c.Request().Context(), ids)
	})
}

// StartCustomOrderProduction handles batch transition of paid requests
// into production
func StartCustomOrderProduction(c echo.Context) error {
	return runCustomOrderBatch(c, "start_production", func(ids []uuid.UUID) *model.BatchResult {
		return customOrderWorkflow.StartProduction(c.Request().Context(), ids)
	})
}

// ShipCustomOrders handles batch shipping of in-production requests
func ShipCustomOrders(c echo.Context) error {
	return runCustomOrderBatch(c, "ship", func(ids []uuid.UUID) *model.BatchResult {
		return customOrderWorkflow.MarkShipped(c.Request().Context(), ids)
	})
}
