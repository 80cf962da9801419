package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/useradmin/userapi/shared/config"
	"github.com/useradmin/userapi/shared/events"
	"github.com/useradmin/userapi/shared/logger"
	"github.com/useradmin/userapi/shared/middleware"
	"github.com/useradmin/userapi/shared/models"
	redisClient "github.com/useradmin/userapi/shared/redis"
	"github.com/useradmin/userapi/shared/utils"
	usercmd "github.com/useradmin/userapi/user-service/internal/command"
	"github.com/useradmin/userapi/user-service/internal/handler"
	userqry "github.com/useradmin/userapi/user-service/internal/query"
	"github.com/useradmin/userapi/user-service/internal/repository"
	"github.com/useradmin/userapi/user-service/internal/service"
)

const eventsStreamMaxLen = 10000

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logger.New("user-service", logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, logger); err != nil {
		logger.Error("user service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hasher := utils.NewPasswordHasher(cfg.PasswordHasher)

	// Write store
	var store repository.AccountStore
	switch cfg.StoreDriver {
	case "postgres":
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		store = repository.NewPostgresAccountStore(db, hasher)
		logger.Info("using postgres account store")
	default:
		store = repository.NewMemoryAccountStore(hasher)
		logger.Info("using in-memory account store")
	}

	// Redis (read model cache + event streaming) is optional
	var (
		cache     repository.ViewCache
		publisher usercmd.EventPublisher
	)
	if cfg.RedisAddr != "" {
		redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redis.Close()

		cache = redisClient.NewViewCache[models.AccountView](redis.Client, cfg.ViewCacheTTL, logger)
		publisher = events.NewPublisher(redis.Client, events.AccountEventsStream, eventsStreamMaxLen)

		audit := service.NewAuditService(logger)
		subscriber := events.NewSubscriber(redis.Client, logger, events.SubscriberConfig{
			Group:    "user-audit-group",
			Consumer: cfg.EventsConsumer,
			Stream:   events.AccountEventsStream,
			Handler:  audit.HandleAccountEvent,
		})
		go func() {
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("subscriber stopped", "error", err)
			}
		}()
	} else {
		logger.Info("REDIS_ADDR not set; view cache and account events disabled")
	}

	// --- CQRS wiring ---
	readRepo := repository.NewAccountReadRepository(store, cache)
	commandSvc := usercmd.NewAccountCommandService(store, readRepo, hasher, publisher, logger)
	querySvc := userqry.NewAccountQueryService(store, readRepo)
	authSvc := userqry.NewAuthQueryService(store, userqry.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})

	if err := commandSvc.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword); err != nil {
		return err
	}

	router := newRouter(logger, handler.NewAccountHandler(commandSvc, querySvc), handler.NewAuthHandler(authSvc), []byte(cfg.JWTSecret), cfg.JWTIssuer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("user service starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newRouter(logger *slog.Logger, accounts *handler.AccountHandler, auth *handler.AuthHandler, secret []byte, issuer string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	metrics := middleware.NewMetrics("userapi")

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(logger), metrics.Middleware())

	auth.RegisterRoutes(router.Group("/api/auth"))
	accounts.RegisterRoutes(router.Group("/api/users", middleware.AuthMiddleware(secret, issuer)), middleware.RequireAdmin())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	return router
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := repository.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
