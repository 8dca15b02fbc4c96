// Command pwcatalog serves the password-requirements catalog as an HTML GUI
// and a JSON API.
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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/pwcatalog/internal/adapter/driven/filesource"
	"github.com/ericfisherdev/pwcatalog/internal/adapter/driven/remote"
	sqliteadapter "github.com/ericfisherdev/pwcatalog/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/pwcatalog/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/pwcatalog/internal/adapter/driving/web"
	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/config"
	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 250 * time.Millisecond

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"mode", cfg.Mode,
		"locale", cfg.Locale.String(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := application.NewQueryPipeline(cfg.Locale)

	// 3. Build the catalog for the configured mode.
	var catalog *application.CatalogService
	if cfg.Mode == model.ModeViewer {
		catalog = application.NewViewerCatalog(viewerStrategies(cfg), pipeline, slog.Default())
	} else {
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		slog.Info("database opened", "path", cfg.DBPath)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		slog.Info("migrations complete")

		catalog = application.NewEditableCatalog(sqliteadapter.NewBlobRepo(db), cfg.StorageKey, pipeline, slog.Default())
	}

	// 4. Initial load. A viewer with no reachable source starts empty.
	if err := catalog.Load(ctx); err != nil {
		slog.Warn("catalog started empty", "error", err)
	}
	slog.Info("catalog loaded", "mode", catalog.Mode(), "services", catalog.Len())

	var refreshInterval time.Duration
	if cfg.Mode == model.ModeViewer {
		refreshInterval = cfg.RefreshInterval
	}
	refresher := application.NewRefreshService(catalog, refreshInterval, slog.Default())

	// 5. Register API and GUI routes on one mux.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(catalog, refresher, slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(catalog, slog.Default()))

	handler := httphandler.ApplyMiddleware(mux, slog.Default(), httphandler.MiddlewareOptions{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORSOrigins:    cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var watcher *filesource.Watcher
	if cfg.Mode == model.ModeViewer && cfg.Watch {
		if watcher, err = newSourceWatcher(cfg, refresher); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// 6. Serve until the context ends.
	g.Go(func() error {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// 7. Refresh viewer sources periodically and on file change.
	g.Go(func() error {
		refresher.Start(gctx)
		return nil
	})

	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	// 8. Graceful shutdown with 10s timeout once a signal arrives or a
	// goroutine fails.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	slog.Info("pwcatalog started",
		"listen_addr", cfg.ListenAddr,
		"mode", cfg.Mode,
		"refresh_interval", refreshInterval,
		"watch", cfg.Watch,
	)

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}

// viewerStrategies orders the configured sources: remote JSON, remote text,
// local JSON, local text.
func viewerStrategies(cfg *config.Config) []application.LoadStrategy {
	fetcher := remote.NewFetcher(cfg.FetchTimeout)

	var strategies []application.LoadStrategy
	if cfg.SourceURL != "" {
		strategies = append(strategies, application.JSONStrategy(fetcher.Source(cfg.SourceURL)))
	}
	if cfg.FallbackURL != "" {
		strategies = append(strategies, application.TextStrategy(fetcher.Source(cfg.FallbackURL)))
	}
	if cfg.SourceFile != "" {
		strategies = append(strategies, application.JSONStrategy(filesource.New(cfg.SourceFile)))
	}
	if cfg.FallbackFile != "" {
		strategies = append(strategies, application.TextStrategy(filesource.New(cfg.FallbackFile)))
	}
	return strategies
}

// newSourceWatcher returns nil when no local files are configured.
func newSourceWatcher(cfg *config.Config, refresher *application.RefreshService) (*filesource.Watcher, error) {
	var paths []string
	for _, p := range []string{cfg.SourceFile, cfg.FallbackFile} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		slog.Warn("watch enabled but no local source files configured")
		return nil, nil
	}

	reload := func(ctx context.Context) {
		_ = refresher.Refresh(ctx)
	}

	watcher, err := filesource.NewWatcher(paths, watchDebounce, reload, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("watch catalog files: %w", err)
	}
	slog.Info("watching catalog files", "paths", paths)
	return watcher, nil
}
