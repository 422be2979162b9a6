package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModePassword authenticates email/password against the profiles table
	// (development and self-hosted deployments).
	AuthModePassword AuthMode = "password"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "password":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, password)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"tradepost"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"tradepost"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// SessionConfig controls server-side session records.
type SessionConfig struct {
	// TTL is the lifetime of a password-mode session. OAuth sessions inherit
	// the IdP token expiry instead.
	TTL time.Duration `env:"TTL" envDefault:"12h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Session configuration.
	Session SessionConfig `envPrefix:"SESSION_"`

	// WebhookAPIKey authenticates status webhook calls (X-Api-Key header).
	WebhookAPIKey string `env:"WEBHOOK_API_KEY"`
}
