package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/qbo-connector/internal/application/mapper"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/internal/config"
	domainRepo "github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/internal/infrastructure/database"
	"github.com/sangkips/qbo-connector/internal/infrastructure/lock"
	"github.com/sangkips/qbo-connector/internal/infrastructure/qbo"
	"github.com/sangkips/qbo-connector/internal/infrastructure/repository"
	"github.com/sangkips/qbo-connector/internal/presentation/http/handler"
	"github.com/sangkips/qbo-connector/internal/presentation/http/routes"
	"github.com/sangkips/qbo-connector/pkg/logger"
	"github.com/sangkips/qbo-connector/pkg/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if err := database.AutoMigrate(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	if err := database.SeedDefaultData(db, log); err != nil {
		log.WithError(err).Warn("Failed to seed default data")
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	settingsRepo := repository.NewSettingsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	repos := service.Repositories{
		Transactor: repository.NewTransactor(db),
		Invoices:   repository.NewInvoiceRepository(db),
		Payments:   repository.NewPaymentRepository(db),
		Customers:  repository.NewCustomerRepository(db),
		Items:      repository.NewItemRepository(db),
		Trackers:   repository.NewShipmentTrackerRepository(db),
		Ledger:     repository.NewLedgerRepository(db),
		SyncStates: repository.NewSyncStateRepository(db),
		StateTax:   repository.NewStateTaxRepository(db),
		Settings:   settingsRepo,
	}

	locker := newLocker(ctx, cfg, log)

	// QuickBooks client and OAuth
	client := qbo.NewClient(qbo.Config{
		BaseURL:           cfg.QBO.BaseURL(),
		MinorVersion:      cfg.QBO.MinorVersion,
		Timeout:           cfg.QBO.HTTPTimeout,
		RequestsPerMinute: cfg.QBO.RequestsPerMinute,
	}, settingsRepo, log)
	oauth := qbo.NewOAuth(qbo.OAuthConfig{
		ClientID:     cfg.QBO.ClientID,
		ClientSecret: cfg.QBO.ClientSecret,
		RedirectURL:  cfg.QBO.RedirectURL,
		HTTPClient:   &http.Client{Timeout: cfg.QBO.HTTPTimeout},
	})

	pool := worker.NewPool(cfg.Sync.Workers, cfg.Sync.QueueSize, log)
	pool.Start()

	// Initialize services
	authService := service.NewAuthService(cfg.Operator, jwtManager)
	connectionService := service.NewConnectionService(oauth, settingsRepo, jwtManager, log)
	statusService := service.NewSyncStatusService(repos.SyncStates, log)
	reconciliationService := service.NewReconciliationService(client, repos, locker, service.ReconcileConfig{
		GraceWindow: cfg.Sync.GraceWindow,
		Tolerance:   cfg.Sync.TotalTolerance,
	}, log)
	paymentReconciler := service.NewPaymentReconciler(client, repos, locker, log)
	webhookService := service.NewWebhookService(reconciliationService, paymentReconciler, pool, cfg.Webhook.Async, log)
	outboundService := service.NewOutboundService(client, repos, statusService, pool, mapper.PaymentSettings{
		DepositAccountID: cfg.QBO.DepositAccountID,
		PaymentMethods:   cfg.QBO.PaymentMethods,
	}, log)
	statusService.SetDispatcher(outboundService)
	pricingService := service.NewPricingService(repos.Customers, repos.StateTax, log)
	customerService := service.NewCustomerService(repos.StateTax)

	go connectionService.RunRefreshLoop(ctx, cfg.QBO.TokenRefreshInterval)
	go purgeIdempotencyKeys(ctx, idempotencyRepo, log)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Connection: handler.NewConnectionHandler(connectionService),
		Webhook:    handler.NewWebhookHandler(webhookService, cfg.Webhook.VerifierToken, cfg.Webhook.MaxBodyBytes, log),
		ERP:        handler.NewERPHandler(pricingService, customerService, outboundService),
		Sync:       handler.NewSyncHandler(statusService, reconciliationService, paymentReconciler),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Logger:          log,
		Done:            ctx.Done(),
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": port, "env": cfg.App.Env}).Infof("Starting %s server", cfg.App.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Worker pool did not drain")
	}
}

// purgeIdempotencyKeys drops expired hook replay records once an hour
func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.WithError(err).Warn("Failed to purge expired idempotency keys")
			}
		}
	}
}

// newLocker uses Redis when configured so several replicas share the
// per-entity locks. A single instance falls back to in-process locks.
func newLocker(ctx context.Context, cfg *config.Config, log *logrus.Logger) service.EntityLocker {
	if cfg.Redis.Addr == "" {
		log.Info("REDIS_ADDR not set, using in-process entity locks")
		return lock.NewLocalLocker()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to redis")
	}
	return lock.NewRedisLocker(rdb, cfg.Sync.LockTTL, log)
}
