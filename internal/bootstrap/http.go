package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hellforge/tradepost/config"
	httpx "github.com/hellforge/tradepost/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the HTTP server with the full middleware stack.
// The caller owns the listen/shutdown lifecycle.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Auth:             cfg.Services.Auth,
		TradeOffers:      cfg.Services.TradeOffers,
		PriceChecks:      cfg.Services.PriceChecks,
		Reference:        cfg.Services.Reference,
		Profiles:         cfg.Services.Profiles,
		RoleAdmin:        cfg.Services.RoleAdmin,
		GameStatus:       cfg.Services.GameStatus,
		Feed:             cfg.Services.Feed,
		Watcher:          cfg.Services.RoleWatcher,
		Roles:            cfg.Services.Roles,
		Metrics:          cfg.Services.Observability.MetricsSink,
		Notices:          cfg.Services.Notices,
		CookieDomain:     appCfg.HTTP.CookieDomain,
		OAuthRedirectURL: appCfg.Auth.OAuth.RedirectURL,
		WebhookAPIKey:    appCfg.Auth.WebhookAPIKey,
		SSEKeepAlive:     appCfg.Realtime.KeepAlive,
		Logger:           logger,
	})

	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE connections outlive any fixed write deadline
		IdleTimeout:  120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, shutdownWaitTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
