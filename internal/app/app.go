// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the roast relay.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ckiertz4887/website-roast/config"
	"github.com/ckiertz4887/website-roast/internal/analysis"
	"github.com/ckiertz4887/website-roast/internal/cache"
	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/filter"
	"github.com/ckiertz4887/website-roast/internal/httpclient"
	"github.com/ckiertz4887/website-roast/internal/kv"
	"github.com/ckiertz4887/website-roast/internal/observability"
	"github.com/ckiertz4887/website-roast/internal/ogimage"
	"github.com/ckiertz4887/website-roast/internal/pkg/llmclient"
	"github.com/ckiertz4887/website-roast/internal/providers/anthropic"
	"github.com/ckiertz4887/website-roast/internal/providers/elevenlabs"
	"github.com/ckiertz4887/website-roast/internal/server"
	"github.com/ckiertz4887/website-roast/internal/share"
	"github.com/ckiertz4887/website-roast/internal/speech"
	"github.com/ckiertz4887/website-roast/internal/version"
)

// App represents the main application with all its dependencies.
type App struct {
	config  *config.Config
	metrics *observability.Metrics
	store   kv.Store
	server  *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the options for creating an App.
type Config struct {
	// AppConfig is the loaded configuration produced by config.Load.
	AppConfig *config.Config

	// Registry receives the Prometheus collectors when metrics are enabled.
	// Defaults to the global registry.
	Registry *prometheus.Registry
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.AppConfig

	app := &App{config: appCfg}

	serverCfg := &server.Config{
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   appCfg.Server.BodySizeLimit,
		PublicDir:       appCfg.Server.PublicDir,
	}
	if appCfg.Metrics.Enabled {
		if cfg.Registry != nil {
			app.metrics = observability.NewMetrics(cfg.Registry)
			serverCfg.MetricsHandler = promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})
		} else {
			app.metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
		}
	}

	contentFilter, err := filter.NewFromFile(appCfg.Filter.BlocklistFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load content filter: %w", err)
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = appCfg.HTTP.Timeout
	httpCfg.UserAgent = version.UserAgent()
	httpClient := httpclient.NewHTTPClient(&httpCfg)

	var upstreamObserver llmclient.Observer
	var cacheOpts []cache.Option
	if app.metrics != nil {
		upstreamObserver = app.metrics
		cacheOpts = append(cacheOpts, cache.WithObserver(app.metrics))
	}

	analyzer := anthropic.New(anthropic.Config{
		APIKey:  appCfg.Anthropic.APIKey,
		BaseURL: appCfg.Anthropic.BaseURL,
		Model:   appCfg.Anthropic.Model,
	}, httpClient, upstreamObserver)

	synthesizer := elevenlabs.New(elevenlabs.Config{
		APIKey:  appCfg.ElevenLabs.APIKey,
		BaseURL: appCfg.ElevenLabs.BaseURL,
		VoiceID: appCfg.ElevenLabs.VoiceID,
		ModelID: appCfg.ElevenLabs.ModelID,
	}, httpClient, upstreamObserver)

	app.store = openShareStore(ctx, appCfg.Share)

	shares := share.New(app.store, appCfg.Server.PublicBaseURL)
	if app.metrics != nil {
		shares = shares.WithRecorder(app.metrics)
	}

	renderer, err := ogimage.New()
	if err != nil {
		closeErr := app.closeStore()
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize image renderer: %w (also: store close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize image renderer: %w", err)
	}

	handler := server.NewHandler(server.Dependencies{
		Analysis:   analysis.New(contentFilter, cache.New[core.Analysis]("analysis", cacheOpts...), analyzer),
		Speech:     speech.New(cache.New[[]byte]("audio", cacheOpts...), synthesizer, appCfg.ElevenLabs.StylePrefix),
		Shares:     shares,
		Images:     renderer,
		ImageCache: cache.New[[]byte]("og_image", cacheOpts...),
		PublicDir:  appCfg.Server.PublicDir,
	})

	app.logStartupInfo(analyzer.Model(), synthesizer.VoiceID(), contentFilter.PatternCount())

	app.server = server.New(handler, serverCfg)

	return app, nil
}

// Handler exposes the HTTP surface, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server
}

// SharingEnabled reports whether a share store was connected at startup.
func (a *App) SharingEnabled() bool {
	return a.store != nil
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, honoring ctx, and then closes the share store.
// It is idempotent; after the first call, subsequent calls are no-ops.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if err := a.closeStore(); err != nil {
		slog.Error("share store close error", "error", err)
		errs = append(errs, fmt.Errorf("share store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// openShareStore connects to the configured share store. Sharing is optional:
// a missing URL or a failed connection is logged and yields a nil store.
func openShareStore(ctx context.Context, cfg config.ShareConfig) kv.Store {
	store, err := kv.New(ctx, kv.Config{URL: cfg.StoreURL, Token: cfg.StoreToken})
	switch {
	case errors.Is(err, kv.ErrNotConfigured):
		slog.Warn("SHARE_STORE_URL not set - sharing disabled")
		return nil
	case err != nil:
		slog.Warn("share store unavailable - sharing disabled", "error", err)
		return nil
	}
	return store
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo(model, voiceID string, filterPatterns int) {
	cfg := a.config

	slog.Info("analysis configured", "model", model, "filter_patterns", filterPatterns)
	slog.Info("speech configured", "voice_id", voiceID, "style_prefix", cfg.ElevenLabs.StylePrefix != "")

	if a.SharingEnabled() {
		slog.Info("sharing enabled", "public_base_url", cfg.Server.PublicBaseURL)
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	if cfg.Server.PublicDir != "" {
		slog.Info("serving static front-end", "dir", cfg.Server.PublicDir)
	}
}
