package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keycasey/Spirit-Beads-Service/internal/checkout"
	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/internal/shipping"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockCheckoutCatalog struct {
	Products map[string]*model.Product
}

func (m *MockCheckoutCatalog) GetByID(ctx context.Context, id string) (*model.Product, error) {
	product, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return product, nil
}

type MockCheckoutGateway struct {
	SessionErr error
	RateSpec   payments.ShippingRateSpec
	Session    payments.Session
}

func (m *MockCheckoutGateway) CreateShippingRate(ctx context.Context, spec payments.ShippingRateSpec) (string, error) {
	m.RateSpec = spec
	return "shr_test", nil
}

func (m *MockCheckoutGateway) CreateCheckoutSession(ctx context.Context, spec payments.SessionSpec) (*payments.Session, error) {
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	return &m.Session, nil
}

type MockOrderWriter struct {
	Created []*model.Order
}

func (m *MockOrderWriter) Create(ctx context.Context, order *model.Order) error {
	m.Created = append(m.Created, order)
	return nil
}

func initCheckoutForTest(gateway *MockCheckoutGateway, orders *MockOrderWriter, products map[string]*model.Product) {
	validator := checkout.NewValidator(&MockCheckoutCatalog{Products: products})
	table := shipping.NewTable("US", []string{"CA", "MX"}, "usd", map[shipping.Tier]shipping.Rate{
		shipping.TierDomestic:      {DisplayName: "Standard Shipping", Amount: 500, MinDays: 3, MaxDays: 5},
		shipping.TierRegional:      {DisplayName: "North America Shipping", Amount: 1500, MinDays: 7, MaxDays: 14},
		shipping.TierInternational: {DisplayName: "International Shipping", Amount: 2500, MinDays: 10, MaxDays: 21},
	})
	resolver := shipping.NewResolver(table, nil, zap.NewNop())
	initiator := checkout.NewInitiator(validator, resolver, gateway, orders,
		[]string{"US"}, "https://spiritbeads.example.com", "usd", zap.NewNop())
	InitCheckoutHandler(initiator, "CF-IPCountry")
}

func postJSON(path string, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("logger", zap.NewNop())
	return c, rec
}

// --- Tests ---

func TestCreateCheckoutSession(t *testing.T) {
	products := map[string]*model.Product{
		"p1": {ID: "p1", Name: "Amethyst Strand", Price: 2500, InventoryCount: 5, IsActive: true, StripePriceID: "price_p1"},
	}

	t.Run("valid cart responds with the session URL", func(t *testing.T) {
		gateway := &MockCheckoutGateway{Session: payments.Session{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}}
		orders := &MockOrderWriter{}
		initCheckoutForTest(gateway, orders, products)

		c, rec := postJSON("/api/checkout/session", `{"items": [{"product_id": "p1", "quantity": 2}]}`)
		require.NoError(t, CreateCheckoutSession(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"checkout_url": "https://checkout.example.com/cs_test_1"}`, rec.Body.String())
		require.Len(t, orders.Created, 1)
		assert.Equal(t, "cs_test_1", orders.Created[0].StripeSessionID)
	})

	t.Run("edge country header picks the shipping tier", func(t *testing.T) {
		gateway := &MockCheckoutGateway{Session: payments.Session{ID: "cs_test_2", URL: "https://checkout.example.com/cs_test_2"}}
		initCheckoutForTest(gateway, &MockOrderWriter{}, products)

		c, rec := postJSON("/api/checkout/session", `{"items": [{"product_id": "p1", "quantity": 1}]}`)
		c.Request().Header.Set("CF-IPCountry", "CA")
		require.NoError(t, CreateCheckoutSession(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1500), gateway.RateSpec.Amount)
		assert.Equal(t, "North America Shipping", gateway.RateSpec.DisplayName)
	})

	t.Run("empty cart", func(t *testing.T) {
		initCheckoutForTest(&MockCheckoutGateway{}, &MockOrderWriter{}, products)

		c, rec := postJSON("/api/checkout/session", `{"items": []}`)
		require.NoError(t, CreateCheckoutSession(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "No items provided"}`, rec.Body.String())
	})

	t.Run("invalid cart items are itemized in the response", func(t *testing.T) {
		initCheckoutForTest(&MockCheckoutGateway{}, &MockOrderWriter{}, products)

		c, rec := postJSON("/api/checkout/session", `{"items": [{"product_id": "ghost", "quantity": 1}]}`)
		require.NoError(t, CreateCheckoutSession(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Error   string               `json:"error"`
			Details []checkout.ItemError `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Invalid items in cart", body.Error)
		require.Len(t, body.Details, 1)
		assert.Equal(t, "ghost", body.Details[0].ProductID)
		assert.Equal(t, checkout.CodeNotFound, body.Details[0].Code)
	})

	t.Run("provider rejection maps to bad gateway", func(t *testing.T) {
		gateway := &MockCheckoutGateway{SessionErr: &payments.ProviderError{
			Code:    "resource_missing",
			Message: "No such price",
			Hint:    "referenced object may belong to the other provider mode (test vs live)",
		}}
		initCheckoutForTest(gateway, &MockOrderWriter{}, products)

		c, rec := postJSON("/api/checkout/session", `{"items": [{"product_id": "p1", "quantity": 1}]}`)
		require.NoError(t, CreateCheckoutSession(c))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "resource_missing", body["code"])
		assert.Equal(t, "No such price", body["error"])
		assert.NotEmpty(t, body["hint"])
	})

	t.Run("malformed body", func(t *testing.T) {
		initCheckoutForTest(&MockCheckoutGateway{}, &MockOrderWriter{}, products)

		c, rec := postJSON("/api/checkout/session", `{"items": [`)
		require.NoError(t, CreateCheckoutSession(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "Invalid request data"}`, rec.Body.String())
	})
}
