package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace.backend/internal/config"
	"marketplace.backend/internal/infrastructure/datasources/postgres"
	"marketplace.backend/internal/infrastructure/gateway"
	"marketplace.backend/internal/infrastructure/jobs"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/internal/infrastructure/notifier"
	"marketplace.backend/internal/infrastructure/repositories"
	"marketplace.backend/internal/interfaces/http/handlers"
	"marketplace.backend/internal/interfaces/http/middleware"
	"marketplace.backend/internal/usecases"
	"marketplace.backend/pkg/jwt"
	"marketplace.backend/pkg/logger"
	"marketplace.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.OpenGorm
	getStdDB   = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	runServer  = func(ctx context.Context, handler http.Handler, port string) error {
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	if err := logger.SetLevel(cfg.Server.LogLevel); err != nil {
		logger.Warn(context.Background(), "Invalid log level, keeping default", zap.String("level", cfg.Server.LogLevel))
	}
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Redis backs the outbox, events and idempotency keys. Without it those
	// degrade to direct delivery and pass-through.
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Warn(context.Background(), "Redis unavailable, outbox falls back to direct delivery", zap.Error(err))
	} else {
		logger.Info(context.Background(), "Redis initialized")
		defer func() { _ = redis.Close() }()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	logger.Info(context.Background(), "Connected to PostgreSQL")

	m := metrics.New()
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	sellerRequestRepo := repositories.NewSellerRequestRepository(db)
	sellerProfileRepo := repositories.NewSellerProfileRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Outbox
	var queue *notifier.Queue
	if redis.Available() {
		queue = notifier.NewQueue(redis.GetClient(), cfg.Outbox.Workers, cfg.Outbox.MaxRetries, m)
	}
	events := notifier.NewEventPublisher(redis.GetClient(), cfg.Outbox.Channel)
	dispatcher := notifier.NewDispatcher(queue, notifier.NewMailer(cfg.SMTP), notificationRepo, events, m)
	paymentGateway := gateway.NewClient(cfg.Gateway, m)

	// Usecases
	authUsecase := usecases.NewAuthUsecase(userRepo, jwtService)
	provisioner := usecases.NewSellerProvisioner(sellerProfileRepo, userRepo, sellerRequestRepo, notificationRepo, dispatcher)
	sellerRequestUsecase := usecases.NewSellerRequestUsecase(uow, sellerRequestRepo, userRepo, provisioner, dispatcher)
	subscriptionUsecase := usecases.NewSubscriptionUsecase(uow, userRepo, sellerProfileRepo, subscriptionRepo, paymentGateway, dispatcher,
		usecases.SubscriptionConfig{
			TrialDays:       cfg.Subscription.TrialDays,
			CallbackBaseURL: cfg.Server.PublicURL,
			ExpiryBatchSize: cfg.Subscription.SweepBatch,
		})
	capabilityUsecase := usecases.NewCapabilityUsecase(userRepo, sellerProfileRepo, subscriptionRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authUsecase)
	sellerHandler := handlers.NewSellerHandler(sellerRequestUsecase, capabilityUsecase)
	adminHandler := handlers.NewAdminHandler(sellerRequestUsecase)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionUsecase)
	webhookHandler := handlers.NewWebhookHandler(subscriptionUsecase)

	// Background workers
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if queue != nil {
		queue.Start(ctx)
		defer queue.Stop()
	}
	defer dispatcher.Wait()

	expiryJob := jobs.NewSubscriptionExpiryJob(subscriptionUsecase, cfg.Subscription.SweepInterval, m)
	go expiryJob.Start(ctx)
	defer expiryJob.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(m))

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, m)
	registerAPIV1Routes(r, routeDeps{
		authHandler:         authHandler,
		sellerHandler:       sellerHandler,
		adminHandler:        adminHandler,
		subscriptionHandler: subscriptionHandler,
		webhookHandler:      webhookHandler,
		authMiddleware:      middleware.AuthMiddleware(jwtService),
		adminMiddleware:     middleware.RequireAdmin(),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	logger.Info(ctx, "Marketplace backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("public_url", cfg.Server.PublicURL))

	if err := runServer(ctx, r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(context.Background(), "Server stopped")
	return nil
}
