package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/config"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/internal/presentation/http/handler"
	"github.com/sangkips/qbo-connector/internal/presentation/http/middleware"
	"github.com/sangkips/qbo-connector/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth       *handler.AuthHandler
	Connection *handler.ConnectionHandler
	Webhook    *handler.WebhookHandler
	ERP        *handler.ERPHandler
	Sync       *handler.SyncHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          *logrus.Logger
	// Done stops background route helpers such as limiter cleanup
	Done <-chan struct{}
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	rateLimiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
		Requests:        deps.Cfg.RateLimit.Requests,
		Window:          time.Duration(deps.Cfg.RateLimit.Duration) * time.Second,
		CleanupInterval: 5 * time.Minute,
		EntryTTL:        10 * time.Minute,
	})
	if deps.Done != nil {
		go rateLimiter.Run(deps.Done)
	}

	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		// Public routes (no authentication required)
		registerPublicRoutes(v1, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.RequireRole(service.OperatorRole))
		protected.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: deps.Logger,
		}))

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerPublicRoutes(v1 *gin.RouterGroup, h *Handlers) {
	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/webhooks/qbo", h.Webhook.Receive)

	oauth := v1.Group("/oauth/qbo")
	{
		oauth.GET("/connect", h.Connection.Connect)
		oauth.GET("/callback", h.Connection.Callback)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	oauth := protected.Group("/oauth/qbo")
	{
		oauth.POST("/refresh", h.Connection.Refresh)
		oauth.GET("/status", h.Connection.Status)
	}

	erp := protected.Group("/erp")
	{
		erp.POST("/orders/pricing", h.ERP.PriceOrder)
		erp.POST("/customers/validate", h.ERP.ValidateCustomer)
		erp.POST("/customers/:id/updated", h.ERP.CustomerUpdated)
		erp.POST("/invoices/:id/submitted", h.ERP.InvoiceSubmitted)
		erp.POST("/payments/:id/submitted", h.ERP.PaymentSubmitted)
		erp.POST("/items/:code/cost", h.ERP.ItemCostChanged)
		erp.POST("/items/:code/price", h.ERP.ItemPriceChanged)
	}

	sync := protected.Group("/sync")
	{
		sync.POST("/invoices/:externalId/reconcile", h.Sync.ReconcileInvoice)
		sync.POST("/payments/:externalId/reconcile", h.Sync.ReconcilePayment)
		sync.GET("/:kind", h.Sync.List)
		sync.POST("/:kind/retry-failed", h.Sync.RetryFailed)
	}
}
