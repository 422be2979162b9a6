package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hellforge/tradepost/config"
	"github.com/hellforge/tradepost/internal/adapters/oidc"
	"github.com/hellforge/tradepost/internal/adapters/passwordauth"
	redisadapter "github.com/hellforge/tradepost/internal/adapters/redis"
	"github.com/hellforge/tradepost/internal/data"
	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Roles       *service.RoleResolver // optional; built from DB when absent
	Notices     ports.Notifier
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}
	if cfg.DB == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: database not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Redis session store and role resolver are shared by both modes.
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")
	profileRepo := data.NewProfileRepo(cfg.DB)
	resolver := cfg.Roles
	if resolver == nil {
		resolver = service.NewRoleResolver(data.NewRoleRepo(cfg.DB), cfg.Logger)
	}

	switch cfg.Auth.Mode {
	case config.AuthModePassword:
		return buildPasswordAuthService(cfg, sessionStore, resolver, profileRepo)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, sessionStore, resolver, profileRepo)

	default:
		return nil
	}
}

func buildPasswordAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	resolver *service.RoleResolver,
	profileRepo *data.ProfileRepo,
) *service.AuthService {
	authenticator := passwordauth.New(profileRepo, cfg.Auth.Session.TTL)

	return service.NewAuthService(service.AuthServiceOptions{
		Password: authenticator,
		Sessions: sessionStore,
		Roles:    resolver,
		Profiles: profileRepo,
		Notices:  cfg.Notices,
	})
}

func buildOAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	resolver *service.RoleResolver,
	profileRepo *data.ProfileRepo,
) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		Roles:    resolver,
		Profiles: profileRepo,
		Notices:  cfg.Notices,
	})
}
