package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shareit-platform/service-booking/internal/application"
	"github.com/shareit-platform/service-booking/internal/config"
	"github.com/shareit-platform/service-booking/internal/database"
	bookingDomain "github.com/shareit-platform/service-booking/internal/domain/booking"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"github.com/shareit-platform/service-booking/internal/domain/user"
	bookingEvents "github.com/shareit-platform/service-booking/internal/events"
	"github.com/shareit-platform/service-booking/internal/handler"
	"github.com/shareit-platform/service-booking/internal/logger"
	"github.com/shareit-platform/service-booking/internal/metrics"
	"github.com/shareit-platform/service-booking/internal/middleware"
	"github.com/shareit-platform/service-booking/internal/repository"
	"github.com/shareit-platform/service-booking/internal/repository/cache"
	"github.com/shareit-platform/service-booking/internal/repository/memory"
	"github.com/shareit-platform/service-booking/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
		zap.String("events", cfg.Events.Driver),
	)

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing, serviceName, log)
	if err != nil {
		log.Fatal("failed to set up tracing", zap.Error(err))
	}

	// Initialize repositories
	var (
		bookingRepo bookingDomain.BookingRepository
		itemRepo    item.ItemRepository
		userRepo    user.UserRepository
		ping        handler.PingFunc
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		items := memory.NewItemRepository()
		bookingRepo = memory.NewBookingRepository(items)
		itemRepo = items
		userRepo = memory.NewUserRepository()
		log.Warn("using in-memory storage; data is lost on restart")

	default:
		db, err := database.Connect(cfg.DBConfig, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("failed to get database handle", zap.Error(err))
		}
		defer func() { _ = sqlDB.Close() }()
		ping = sqlDB.PingContext

		if cfg.IsDevelopment() {
			if err := db.AutoMigrate(&repository.UserModel{}, &repository.ItemModel{}, &repository.BookingModel{}); err != nil {
				log.Fatal("failed to run auto-migration", zap.Error(err))
			}
			log.Info("database migration completed (dev auto-migrate)")
		} else if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}

		bookingRepo = repository.NewGormBookingRepository(db)
		itemRepo = repository.NewGormItemRepository(db)
		userRepo = repository.NewGormUserRepository(db)
	}

	// Wrap replica lookups with the Redis cache
	if cfg.RedisConfig.Enabled() {
		rdb := cache.NewRedisClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB, cfg.RedisConfig.PoolSize)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, lookups fall back to storage", zap.Error(err))
		}
		itemRepo = cache.NewItemRepository(itemRepo, rdb, cfg.RedisConfig.TTL, log)
		userRepo = cache.NewUserRepository(userRepo, rdb, cfg.RedisConfig.TTL, log)
		log.Info("replica lookup cache enabled", zap.String("addr", cfg.RedisConfig.Addr))
	}

	// Initialize event publisher
	publisher, err := bookingEvents.NewPublisher(cfg.Events, log)
	if err != nil {
		log.Fatal("failed to create event publisher", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, itemRepo, userRepo, publisher, application.SystemClock, log)
	directoryService := application.NewDirectoryService(userRepo, itemRepo, log)

	// Start the catalog consumer in a goroutine
	if cfg.Events.Driver == config.EventsDriverKafka && cfg.Events.ConsumerEnabled {
		groupID := cfg.Events.GroupPrefix + "booking-service"
		catalogConsumer := bookingEvents.NewCatalogConsumer(cfg.Events.Brokers, groupID, directoryService, log)
		defer func() { _ = catalogConsumer.Close() }()

		go func() {
			log.Info("starting catalog event consumer", zap.String("group", groupID))
			if err := catalogConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("catalog event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(limiter))

	handler.NewHealthHandler(serviceName, ping).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewDirectoryHandler(directoryService).RegisterRoutes(&router.RouterGroup)
	handler.NewAdminHandler(bookingService, directoryService).RegisterRoutes(&router.RouterGroup, cfg.AdminToken)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("failed to flush traces", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
