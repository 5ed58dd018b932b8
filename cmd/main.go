package main

import (
	"github.com/keycasey/Spirit-Beads-Service/internal/catalog"
	"github.com/keycasey/Spirit-Beads-Service/internal/checkout"
	"github.com/keycasey/Spirit-Beads-Service/internal/customorder"
	"github.com/keycasey/Spirit-Beads-Service/internal/handler"
	mid "github.com/keycasey/Spirit-Beads-Service/internal/middleware"
	"github.com/keycasey/Spirit-Beads-Service/internal/notification"
	"github.com/keycasey/Spirit-Beads-Service/internal/order"
	"github.com/keycasey/Spirit-Beads-Service/internal/payments"
	"github.com/keycasey/Spirit-Beads-Service/internal/repository"
	"github.com/keycasey/Spirit-Beads-Service/internal/shipping"
	"github.com/keycasey/Spirit-Beads-Service/pkg/config"
	"github.com/keycasey/Spirit-Beads-Service/pkg/database"
	"github.com/keycasey/Spirit-Beads-Service/pkg/jwtutil"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	appConfig, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting spirit-beads-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility for staff tokens
	jwtutil.Initialize(appConfig)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database (includes migrations automatically)
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")
	db := database.GetDB()

	// Repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customOrderRepo := repository.NewCustomOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	// Payment provider gateway
	gateway := payments.NewStripeGateway(appConfig.Stripe.SecretKey, appConfig.Stripe.WebhookSecret)

	// Shipping tier resolution
	rateTable := shipping.NewTable(
		appConfig.Shipping.DomesticCountry,
		appConfig.Shipping.RegionalCountries,
		appConfig.Store.Currency,
		map[shipping.Tier]shipping.Rate{
			shipping.TierDomestic: {
				DisplayName: "Standard Shipping",
				Amount:      appConfig.Shipping.DomesticAmount,
				MinDays:     appConfig.Shipping.DomesticDays.Min,
				MaxDays:     appConfig.Shipping.DomesticDays.Max,
			},
			shipping.TierRegional: {
				DisplayName: "North America Shipping",
				Amount:      appConfig.Shipping.RegionalAmount,
				MinDays:     appConfig.Shipping.RegionalDays.Min,
				MaxDays:     appConfig.Shipping.RegionalDays.Max,
			},
			shipping.TierInternational: {
				DisplayName: "International Shipping",
				Amount:      appConfig.Shipping.InternationalAmount,
				MinDays:     appConfig.Shipping.InternationalDays.Min,
				MaxDays:     appConfig.Shipping.InternationalDays.Max,
			},
		},
	)
	geoClient := shipping.NewGeoClient(appConfig.Geo.ServiceURL, appConfig.Geo.Timeout, log)
	shippingResolver := shipping.NewResolver(rateTable, geoClient, log)

	// Notifications
	mailer := notification.NewSMTPMailer(appConfig.Mail)
	notifier := notification.NewService(mailer, appConfig, log)

	// Domain services
	cartValidator := checkout.NewValidator(productRepo)
	checkoutInitiator := checkout.NewInitiator(
		cartValidator,
		shippingResolver,
		gateway,
		orderRepo,
		appConfig.Shipping.AllowedCountries,
		appConfig.Store.FrontendURL,
		appConfig.Store.Currency,
		log,
	)
	reconciler := payments.NewReconciler(
		gateway,
		webhookEventRepo,
		orderRepo,
		productRepo,
		customOrderRepo,
		notifier,
		log,
	)
	customOrderWorkflow := customorder.NewWorkflow(
		customOrderRepo,
		orderRepo,
		gateway,
		notifier,
		appConfig.Store.FrontendURL,
		appConfig.Store.Currency,
		log,
	)
	fulfillment := order.NewFulfillment(orderRepo, customOrderRepo, notifier, log)
	catalogSync := catalog.NewSync(productRepo, categoryRepo, gateway, log)

	// Handlers
	handler.InitCheckoutHandler(checkoutInitiator, appConfig.Shipping.CountryHeader)
	handler.InitWebhookHandler(reconciler)
	handler.InitProductHandlers(productRepo, catalogSync)
	handler.InitCategoryHandlers(categoryRepo)
	handler.InitOrderHandlers(orderRepo, fulfillment)
	handler.InitCustomOrderHandlers(customOrderWorkflow, customOrderRepo)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(mid.MetricsMiddleware)

	// Public routes - no authentication required
	e.GET("/", handler.Hello)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Storefront API
	e.POST("/api/checkout/session", handler.CreateCheckoutSession)
	e.POST("/api/payments/webhook", handler.HandleStripeWebhook)

	e.GET("/api/products", handler.ListProducts)
	e.GET("/api/products/batch", handler.GetProductBatch)
	e.GET("/api/products/:id", handler.GetProduct)
	e.GET("/api/products/:id/availability", handler.CheckAvailability)

	e.GET("/api/categories", handler.ListCategories)
	e.GET("/api/categories/:id", handler.GetCategory)

	e.POST("/api/custom-orders", handler.SubmitCustomOrder)

	// Staff routes - require a staff JWT
	staff := e.Group("/api/staff", mid.StaffAuthMiddleware)

	staff.POST("/products", handler.CreateProduct)
	staff.PUT("/products/:id", handler.UpdateProduct)
	staff.DELETE("/products/:id", handler.DeleteProduct)
	staff.POST("/products/:id/archive", handler.ArchiveProduct)
	staff.POST("/products/import", handler.ImportProducts)
	staff.POST("/products/sync", handler.SyncProductPrices)

	staff.POST("/categories", handler.CreateCategory)
	staff.PUT("/categories/:id", handler.UpdateCategory)
	staff.DELETE("/categories/:id", handler.DeleteCategory)

	staff.GET("/orders", handler.ListOrders)
	staff.GET("/orders/:id", handler.GetOrder)
	staff.PUT("/orders/:id/tracking", handler.SetOrderTracking)
	staff.POST("/orders/:id/ship", handler.ShipOrder)
	staff.POST("/orders/ship", handler.ShipOrders)

	staff.GET("/custom-orders", handler.ListCustomOrders)
	staff.GET("/custom-orders/:id", handler.GetCustomOrder)
	staff.PUT("/custom-orders/:id/quote", handler.SetCustomOrderQuote)
	staff.POST("/custom-orders/approve", handler.ApproveCustomOrders)
	staff.POST("/custom-orders/reject", handler.RejectCustomOrders)
	staff.POST("/custom-orders/start-production", handler.StartCustomOrderProduction)
	staff.POST("/custom-orders/ship", handler.ShipCustomOrders)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
