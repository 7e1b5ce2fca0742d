package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/dualauth/internal/auth"
	"github.com/BradenHooton/dualauth/internal/config"
	"github.com/BradenHooton/dualauth/internal/database"
	"github.com/BradenHooton/dualauth/internal/handlers"
	middlewareCustom "github.com/BradenHooton/dualauth/internal/middleware"
	"github.com/BradenHooton/dualauth/internal/observability"
	"github.com/BradenHooton/dualauth/internal/repositories"
	"github.com/BradenHooton/dualauth/internal/routes"
	"github.com/BradenHooton/dualauth/internal/services"
	pkgauth "github.com/BradenHooton/dualauth/pkg/auth"
	pkghttp "github.com/BradenHooton/dualauth/pkg/http"
	pkglogger "github.com/BradenHooton/dualauth/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// userStore is what the server needs from either backend
type userStore interface {
	services.UserRepository
	HealthCheck(ctx context.Context) error
}

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(os.Stdout, cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("db_driver", cfg.Database.Driver),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, &cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open user store", slog.Any("error", err))
		os.Exit(1)
	}

	// Metrics
	meterProvider, err := observability.InitMetrics(context.Background(), &cfg.Telemetry, logger)
	if err != nil {
		logger.Error("failed to initialize metrics", slog.Any("error", err))
		os.Exit(1)
	}
	authMetrics, err := observability.NewAuthMetrics(meterProvider)
	if err != nil {
		logger.Error("failed to create auth metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// Credentials
	hasher, err := pkgauth.NewHasher(cfg.Auth.BcryptCost, int64(cfg.Auth.HashConcurrency))
	if err != nil {
		logger.Error("failed to initialize password hasher", slog.Any("error", err))
		os.Exit(1)
	}
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, cfg.Auth.RememberMeTTL)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:    cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs:  cfg.Auth.TimingDelayRandomMs,
		DelayOnSuccess: cfg.Auth.TimingDelayOnSuccess,
	})

	// Services
	auditLogger := pkglogger.NewAuditLogger(logger)
	authService := services.NewAuthService(store, tokenManager, hasher, timingDelay, logger, auditLogger, services.AuthOptions{
		TrackPasswordLogins: cfg.Auth.TrackPasswordLogins,
	})
	userService := services.NewUserService(store, logger)

	// Handlers
	ipResolver := pkghttp.NewClientIPResolver(cfg.Server.TrustedProxies)
	authHandler := handlers.NewAuthHandler(authService, ipResolver, authMetrics, logger)
	userHandler := handlers.NewUserHandler(userService, authMetrics, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipResolver))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	rateLimit := middlewareCustom.DefaultAuthRateLimit(ipResolver)
	rateLimit.RequestsPerMinute = cfg.Auth.RateLimitPerMinute
	routes.RegisterRoutes(router, authHandler, userHandler, tokenManager, rateLimit, logger)

	router.Get("/health", handlers.Health(store, logger))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "dualauth"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	if err := serve(server, sigChan, logger); err != nil {
		logger.Error("server error", slog.Any("error", err))
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown error", slog.Any("error", err))
	}
	shutdownCancel()
	closeStore()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	logger.Info("server stopped gracefully")
}

// serve runs the server until a stop signal arrives or it fails to serve.
// It returns nil on a stop signal; the caller still owns shutdown.
func serve(server *http.Server, stop <-chan os.Signal, logger *slog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		return nil
	case err := <-serverErr:
		return err
	}
}

// openStore connects the configured backend and, when enabled, brings its
// schema up to date.
func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (userStore, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewSQLiteUserRepository(db)
		if cfg.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = sqlDB.Close()
				return nil, nil, err
			}
		}
		return repo, func() { _ = sqlDB.Close() }, nil

	case config.DriverPostgres:
		db, err := database.NewConnection(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return repositories.NewUserRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
