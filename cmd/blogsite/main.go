package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"blogsite/internal/blog"
	"blogsite/internal/config"
	"blogsite/internal/content"
	"blogsite/internal/handlers"
	"blogsite/internal/middleware"
	"blogsite/internal/router"
	"blogsite/internal/storage"
	"blogsite/internal/storage/postgres"
	"blogsite/internal/storage/sqlite"
	"blogsite/internal/telemetry"

	"github.com/gofrs/uuid/v5"
)

const version = "0.1.0"

type App struct {
	Server    *http.Server
	Logger    *slog.Logger
	Config    *config.Config
	Store     storage.Store
	Processor *content.Processor
	Telemetry *telemetry.Telemetry
}

func NewApp(cfg *config.Config, logger *slog.Logger, store storage.Store, processor *content.Processor, tel *telemetry.Telemetry, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server:    server,
		Logger:    logger,
		Config:    cfg,
		Store:     store,
		Processor: processor,
		Telemetry: tel,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	shutdownErr := a.Server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			shutdownErr = errors.Join(shutdownErr, closeErr)
		}
	}

	// workers exit once the root context is cancelled
	select {
	case <-a.Processor.Done():
	case <-shutdownCtx.Done():
		a.Logger.Warn("variant workers still busy at shutdown")
	}

	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("telemetry shutdown", "err", err)
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("closing store", "err", err)
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}
	a.Logger.Info("server stopped")
	return nil
}

// openStore returns the configured store and, for sqlite, the handle sessions persist to
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, *sql.DB, error) {
	switch cfg.DB.Driver {
	case "postgres":
		if err := postgres.Migrate(cfg.DB.URL, filepath.Join(cfg.DB.MigrationsPath, "postgres")); err != nil {
			return nil, nil, fmt.Errorf("migrating postgres: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.DB.URL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool), nil, nil
	default:
		store, err := sqlite.NewStore(cfg.DB.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(filepath.Join(cfg.DB.MigrationsPath, "sqlite")); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("migrating sqlite: %w", err)
		}
		return store, store.RawDB(), nil
	}
}

func openMedia(cfg *config.Config) (storage.Provider, error) {
	if cfg.Media.Backend == "s3" {
		return storage.NewS3Store(cfg.S3)
	}
	return storage.NewLocalStorage(cfg.Media.LocalDir)
}

func main() {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db_driver", cfg.DB.Driver,
		"media_backend", cfg.Media.Backend,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, version, cfg.App.Environment, cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		logger.Error("telemetry init", "err", err)
		os.Exit(1)
	}
	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("metrics init", "err", err)
		os.Exit(1)
	}

	store, sessionDB, err := openStore(rootCtx, cfg)
	if err != nil {
		logger.Error("could not open store", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}

	mediaStore, err := openMedia(cfg)
	if err != nil {
		logger.Error("could not open media storage", "backend", cfg.Media.Backend, "err", err)
		os.Exit(1)
	}

	// validated above
	namespace := uuid.Must(uuid.FromString(cfg.Media.KeyNamespace))
	uploader := content.NewUploader(mediaStore, cfg.Media.PublicBaseURL, namespace)
	processor := content.NewProcessor(rootCtx, mediaStore, cfg.Media.VariantWorkers, logger)

	imported, err := content.NewImporter(store, uploader, logger).ImportIfEmpty(rootCtx, cfg.App.SourcesDir)
	if err != nil {
		logger.Error("importing sources failed", "dir", cfg.App.SourcesDir, "err", err)
	} else if imported > 0 {
		logger.Info("imported posts from sources", "count", imported)
	}

	service := blog.NewService(store, uploader, logger,
		blog.WithVariants(processor),
		blog.WithMetrics(metrics),
		blog.WithFetchTimeout(cfg.Blog.FetchTimeout),
	)

	sessions := middleware.NewSessionManager(cfg.Session.Lifetime, cfg.IsProd(), sessionDB)
	markdown := content.NewMarkdownRenderer(cfg.Media.PublicBaseURL)
	blogHandler := handlers.NewBlogHandler(cfg.App.Name, service, sessions, markdown, cfg.HTTP.MaxUploadBytes, logger)
	mediaHandler := &handlers.MediaHandler{
		Store:     mediaStore,
		Processor: processor,
		Tracer:    tel.Tracer,
		Metrics:   metrics,
		Logger:    logger,
	}

	limiter := middleware.NewIPRateLimiter(rootCtx, cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)
	// form posts and deletes get a tenth of the read budget
	writeLimiter := middleware.NewIPRateLimiter(rootCtx, max(1, cfg.Limiter.RPS/10), max(1, cfg.Limiter.Burst/10), cfg.Proxy.Trusted, metrics)

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:          cfg,
		Logger:       logger,
		BlogHandler:  blogHandler,
		MediaHandler: mediaHandler,
		Limiter:      limiter,
		WriteLimiter: writeLimiter,
		Tracer:       tel.Tracer,
		Metrics:      metrics,
		Session:      sessions,
		CSRF:         middleware.NewCSRF(cfg.IsProd(), blogHandler.Forbidden),
		CSP:          middleware.NewCSP(cfg.IsProd(), cfg.Media.PublicBaseURL),
	})

	app := NewApp(cfg, logger, store, processor, tel, handler)

	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
}
