// Package passwordauth implements ports.PasswordAuthenticator against the
// profiles table for development and self-hosted deployments.
package passwordauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

// ErrInvalidCredentials is returned for any bad email/password combination.
// Callers must not distinguish unknown emails from wrong passwords.
var ErrInvalidCredentials = errors.New("invalid email or password")

// CredentialSource looks up stored credentials for an email address.
type CredentialSource interface {
	GetCredentials(ctx context.Context, email string) (domainauth.Identity, string, error)
}

// Authenticator verifies email/password pairs against bcrypt hashes.
type Authenticator struct {
	source     CredentialSource
	sessionTTL time.Duration
}

// New creates an Authenticator. sessionTTL bounds the issued identity's expiry.
func New(source CredentialSource, sessionTTL time.Duration) *Authenticator {
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &Authenticator{source: source, sessionTTL: sessionTTL}
}

// Authenticate checks the password and returns the identity on success.
// Lookup failures and hash mismatches collapse to ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domainauth.Identity{}, ErrInvalidCredentials
	}

	ident, hash, err := a.source.GetCredentials(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Burn a comparison anyway to keep timing uniform.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return domainauth.Identity{}, ErrInvalidCredentials
		}
		return domainauth.Identity{}, err
	}

	if compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); compareErr != nil {
		return domainauth.Identity{}, ErrInvalidCredentials
	}

	ident.ExpiresAt = time.Now().Add(a.sessionTTL)
	return ident, nil
}

// HashPassword produces a bcrypt hash for account provisioning.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// dummyHash is a bcrypt hash of an unguessable value, used to equalize timing
// for unknown emails.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
