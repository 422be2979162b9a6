package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// PasswordAuthenticator verifies email/password credentials directly.
// Used by the password auth mode instead of the OAuth redirect dance.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleStore reads and mutates the role-lookup table. Absence of a row is
// reported via a not-found error, never as an empty role.
type RoleStore interface {
	GetRole(ctx context.Context, identityID string) (domainauth.Role, error)
	UpsertRole(ctx context.Context, identityID string, role domainauth.Role, grantedBy string) error
	DeleteRole(ctx context.Context, identityID string) error
}
