package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hellforge/tradepost/config"
	redisadapter "github.com/hellforge/tradepost/internal/adapters/redis"
	"github.com/hellforge/tradepost/internal/data"
	"github.com/hellforge/tradepost/internal/notice"
	"github.com/hellforge/tradepost/internal/observability/notify"
	"github.com/hellforge/tradepost/internal/observability/notify/slack"
	"github.com/hellforge/tradepost/internal/observability/statsd"
	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/realtime"
	"github.com/hellforge/tradepost/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	TradeOffers   *service.TradeOfferService
	PriceChecks   *service.PriceCheckService
	Reference     *service.ReferenceService
	Profiles      *service.ProfileService
	RoleAdmin     *service.RoleAdminService
	GameStatus    *service.GameStatusService
	Roles         *service.RoleResolver
	RoleWatcher   *realtime.RoleWatcher
	Feed          ports.ChangeFeed
	Notices       ports.Notifier
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink    *statsd.Client
	MetricsConfig  config.ObservabilityMetricsConfig
	StatusNotifier notify.Sink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Feed        ports.ChangeFeed
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB             *sql.DB
	Redis          redis.UniversalClient
	TradeOfferRepo *data.TradeOfferRepo
	PriceCheckRepo *data.PriceCheckRepo
	ReferenceRepo  *data.ReferenceRepo
	ProfileRepo    *data.ProfileRepo
	RoleRepo       *data.RoleRepo
	GameStatusRepo *data.GameStatusRepo
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "tradepost",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	var statusNotifier notify.Sink
	if cfg.Notify.SlackEnabled() {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Notify.SlackWebhookURL,
			Channel:    cfg.Notify.SlackChannel,
			Username:   cfg.Notify.SlackUsername,
			RetryLimit: cfg.Notify.RetryLimit,
		})
		if err != nil {
			obsLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			statusNotifier = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:    metricsSink,
		MetricsConfig:  cfg.Metrics,
		StatusNotifier: statusNotifier,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		DB:             db,
		Redis:          redisClient,
		TradeOfferRepo: data.NewTradeOfferRepo(db),
		PriceCheckRepo: data.NewPriceCheckRepo(db),
		ReferenceRepo:  data.NewReferenceRepo(db),
		ProfileRepo:    data.NewProfileRepo(db),
		RoleRepo:       data.NewRoleRepo(db),
		GameStatusRepo: data.NewGameStatusRepo(db),
	}
}

// NewServices wires the domain services from repositories, the change feed,
// and observability adapters.
func NewServices(deps *ServiceDeps) ServiceContainer {
	if deps == nil {
		return ServiceContainer{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obsCfg config.ObservabilityConfig
	var authCfg config.AuthConfig
	if deps.Config != nil {
		obsCfg = deps.Config.Observability
		authCfg = deps.Config.Auth
	}
	observability := buildObservability(logger, obsCfg)
	repos := buildRepositories(deps.DB, deps.RedisClient)
	notices := buildNotices(deps.RedisClient, logger)

	// One resolver and one watcher for the whole process: the auth service,
	// the HTTP stream trackers, and the realtime service all share them.
	roles := service.NewRoleResolver(repos.RoleRepo, logger)
	var roleWatcher *realtime.RoleWatcher
	if deps.Feed != nil {
		roleWatcher = realtime.NewRoleWatcher(deps.Feed, logger)
	}

	gameStatus := service.NewGameStatusService(repos.GameStatusRepo, deps.Feed, logger)
	if observability.StatusNotifier != nil {
		gameStatus = gameStatus.WithNotifier(observability.StatusNotifier)
	}

	return ServiceContainer{
		Auth: BuildAuthService(AuthConfig{
			Auth:        authCfg,
			DB:          deps.DB,
			RedisClient: deps.RedisClient,
			Roles:       roles,
			Notices:     notices,
			Logger:      logger,
		}),
		TradeOffers: service.NewTradeOfferService(repos.TradeOfferRepo, deps.Feed, logger),
		PriceChecks: service.NewPriceCheckService(repos.PriceCheckRepo, deps.Feed, logger),
		Reference:   service.NewReferenceService(repos.ReferenceRepo),
		Profiles:    service.NewProfileService(repos.ProfileRepo),
		RoleAdmin: service.NewRoleAdminService(service.RoleAdminServiceOptions{
			Store:  repos.RoleRepo,
			Lister: repos.RoleRepo,
			Feed:   deps.Feed,
			Logger: logger,
		}),
		GameStatus:    gameStatus,
		Roles:         roles,
		RoleWatcher:   roleWatcher,
		Feed:          deps.Feed,
		Notices:       notices,
		Observability: observability,
	}
}

// buildNotices composes the user-notice sinks: the structured log always, the
// per-user Redis stream when Redis is available.
//
//nolint:ireturn // notices are consumed through the port everywhere else.
func buildNotices(redisClient redis.UniversalClient, logger *slog.Logger) ports.Notifier {
	sinks := []ports.Notifier{notice.Log(logger)}
	if redisClient != nil {
		sinks = append(sinks, redisadapter.NewNoticeStream(redisClient, redisadapter.NoticeStreamConfig{
			Logger: logger,
		}))
	}
	return notice.Fanout(sinks...)
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		server := NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		g.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", serveErr)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return ShutdownHTTPServer(ShutdownConfig{
				Context: context.Background(),
				Server:  server,
				Logger:  logger,
			})
		})
	}

	if enabled[config.ServiceModeRealtime] {
		g.Go(func() error {
			logger.Info("starting realtime watcher")
			if runErr := RunRealtimeWatcher(gctx, RealtimeWatcherConfig{
				Watcher: cfg.Services.RoleWatcher,
			}); runErr != nil && !errors.Is(runErr, context.Canceled) {
				return fmt.Errorf("realtime watcher: %w", runErr)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		logger.Error("service error", "error", waitErr)
	}
	return waitErr
}
