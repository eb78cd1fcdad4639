// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ammerola/consum-be/internal/adapters/db"
	"github.com/ammerola/consum-be/internal/handlers"
	"github.com/ammerola/consum-be/internal/handlers/middleware"
	"github.com/ammerola/consum-be/internal/pkg/auth"
	"github.com/ammerola/consum-be/internal/pkg/config"
	"github.com/ammerola/consum-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:           "consum",
		Short:         "Consignment accounting API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "consum %s (built %s, %s, %s/%s)\n",
				Version, BuildTime, GoVersion, runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})

	root.AddCommand(newTokenCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve() error {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting consum api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.Setup(logConfig(cfg))
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}

	return nil
}

// dependencies holds all application dependencies
type dependencies struct {
	database *db.Database
	registry *prometheus.Registry
	signer   *auth.Signer

	orderHandler    *handlers.OrderHandler
	categoryHandler *handlers.CategoryHandler
	supplierHandler *handlers.SupplierHandler
	healthHandler   *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
}

func logConfig(cfg *config.Config) *logger.LogConfig {
	output := "stdout"
	if cfg.App.LogFile != "" {
		output = "file:" + cfg.App.LogFile
	}
	return &logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		Output:         output,
		SampleRate:     cfg.App.LogSampleRate,
		Environment:    cfg.App.Environment,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	}
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		URL:                cfg.Database.URL,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		AcquireTimeout:     cfg.Database.AcquireTimeout,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		HealthCheckTimeout: cfg.Database.HealthCheckTimeout,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		TestOnCheckout:     cfg.Database.TestOnCheckout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
		slog.Int("max_connections", int(cfg.Database.MaxConnections)),
	)

	database, err := db.NewDatabase(ctx, databaseConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	signer, err := auth.NewSigner(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	deps.signer = signer

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		db.NewPoolCollector(database.Pool(), prometheus.Labels{"database": cfg.Database.Name}),
	)
	deps.registry = reg

	orderRepo := db.NewOrderRepository(database, cfg.Database.OrdersListLimit, logger)
	categoryRepo := db.NewCategoryRepository(database, logger)
	supplierRepo := db.NewSupplierRepository(database, logger)

	deps.orderHandler = handlers.NewOrderHandler(orderRepo, logger)
	deps.categoryHandler = handlers.NewCategoryHandler(categoryRepo, logger)
	deps.supplierHandler = handlers.NewSupplierHandler(supplierRepo, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, cfg, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, l *logger.Logger) *http.Server {
	mux := http.NewServeMux()

	routes := handlers.Routes{
		Orders:     deps.orderHandler,
		Categories: deps.categoryHandler,
		Suppliers:  deps.supplierHandler,
		Auth:       middleware.Auth(deps.signer, l.Logger),
	}
	if cfg.Server.EnableHealthCheck {
		routes.Health = deps.healthHandler
	}
	if cfg.Server.EnableMetrics {
		routes.Metrics = promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{Registry: deps.registry})
	}
	routes.Register(mux)

	// The metrics middleware reads r.Pattern, which the mux sets on the
	// request it was handed, so it must wrap the mux directly.
	httpMetrics := middleware.NewHTTPMetrics(deps.registry)
	var handler http.Handler = httpMetrics.Middleware(mux)

	mws := []middleware.Middleware{
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.RealIP(cfg.Security.TrustedProxies),
		middleware.Logger(l),
		middleware.Recovery(l.Logger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	if cfg.Server.RequestTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))
	}
	handler = middleware.Chain(handler, mws...)

	return &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(l.Handler(), slog.LevelError),
	}
}
