package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/ports"
)

// ProfileEnsurer creates or refreshes the profile row for an authenticated
// identity. Implemented by data.ProfileRepo.
type ProfileEnsurer interface {
	EnsureForIdentity(ctx context.Context, ident domainauth.Identity) (*model.Profile, error)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider          // oauth mode
	Password ports.PasswordAuthenticator // password mode
	Sessions ports.SessionStore
	Roles    *RoleResolver
	Profiles ProfileEnsurer // optional
	Notices  ports.Notifier // optional
}

// AuthService orchestrates authentication flows: provider exchange, role
// resolution, profile provisioning, and session persistence.
type AuthService struct {
	provider ports.AuthProvider
	password ports.PasswordAuthenticator
	sessions ports.SessionStore
	roles    *RoleResolver
	profiles ProfileEnsurer
	notices  ports.Notifier
}

var errSessionExpired = errors.New("session expired")

// ErrSessionExpired reports whether err means the session outlived its expiry.
func ErrSessionExpired(err error) bool { return errors.Is(err, errSessionExpired) }

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		password: opts.Password,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		profiles: opts.Profiles,
		notices:  opts.Notices,
	}
}

// notify emits a fire-and-forget user notice when a sink is wired.
func (s *AuthService) notify(ctx context.Context, n ports.Notice) {
	if s.notices == nil {
		return
	}
	s.notices.Notify(ctx, n)
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an OAuth flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("oauth login is not enabled")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing an OAuth login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the authorization code for an identity, resolves
// the role, provisions the profile, and persists a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	if s.provider == nil {
		return nil, errors.New("oauth login is not enabled")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	return s.establishSession(ctx, identity)
}

// PasswordLogin authenticates email/password credentials and persists a session.
func (s *AuthService) PasswordLogin(ctx context.Context, email, password string) (*domainauth.Session, error) {
	if s.password == nil {
		return nil, errors.New("password login is not enabled")
	}

	identity, err := s.password.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, identity)
}

// establishSession is the shared tail of both login modes. The resolved role
// is computed once here and stamped into the session; request handling trusts
// the session copy until a refresh.
func (s *AuthService) establishSession(ctx context.Context, identity domainauth.Identity) (*domainauth.Session, error) {
	if s.profiles != nil {
		if _, err := s.profiles.EnsureForIdentity(ctx, identity); err != nil {
			return nil, fmt.Errorf("ensure profile: %w", err)
		}
	}

	role := s.roles.Resolve(ctx, identity.UserID)

	session := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		Username:  identity.Username,
		Email:     identity.Email,
		AvatarURL: identity.AvatarURL,
		Role:      role,
		ExpiresAt: identity.ExpiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.notify(ctx, ports.Notice{
		Kind:   ports.NoticeInfo,
		Title:  "Signed in",
		UserID: session.UserID,
	})
	return &session, nil
}

// GetSession retrieves a session by ID, deleting it if expired.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &session, nil
}

// RefreshRole re-resolves the role for an existing session and persists the
// result. Returns the updated session.
func (s *AuthService) RefreshRole(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	role := s.roles.Resolve(ctx, session.UserID)
	if role == session.Role {
		return session, nil
	}

	session.Role = role
	if saveErr := s.sessions.Save(ctx, *session); saveErr != nil {
		return nil, fmt.Errorf("save refreshed session: %w", saveErr)
	}
	return session, nil
}

// Logout removes a session. The session stays intact when deletion fails so
// the caller can retry; a missing session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	// Best-effort lookup so the sign-out notice can be addressed to the user.
	var userID string
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		userID = sess.UserID
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.notify(ctx, ports.Notice{
			Kind:    ports.NoticeError,
			Title:   "Sign out failed",
			Message: "Your session is still active. Please try again.",
			UserID:  userID,
		})
		return fmt.Errorf("delete session: %w", err)
	}

	s.notify(ctx, ports.Notice{
		Kind:   ports.NoticeInfo,
		Title:  "Signed out",
		UserID: userID,
	})
	return nil
}
