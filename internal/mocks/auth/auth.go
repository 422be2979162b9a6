package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider          = (*MockAuthProvider)(nil)
	_ ports.PasswordAuthenticator = (*MockPasswordAuthenticator)(nil)
	_ ports.SessionStore          = (*MemorySessionStore)(nil)
	_ ports.RoleStore             = (*MemoryRoleStore)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			Username:  "mockuser",
			Email:     "mock.user@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	return m.AuthURL,
		fmt.Sprintf("state-%d", m.callCount),
		fmt.Sprintf("nonce-%d", m.callCount),
		nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MockPasswordAuthenticator returns a fixed identity for one credential pair.
type MockPasswordAuthenticator struct {
	Email    string
	Password string
	Identity domainauth.Identity
}

func (m *MockPasswordAuthenticator) Authenticate(_ context.Context, email, password string) (domainauth.Identity, error) {
	if email != m.Email || password != m.Password {
		return domainauth.Identity{}, errors.New("invalid email or password")
	}
	ident := m.Identity
	if ident.ExpiresAt.IsZero() {
		ident.ExpiresAt = time.Now().Add(time.Hour)
	}
	return ident, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// SaveErr and DeleteErr, when set, are returned by the corresponding
	// operation. Useful for exercising failure paths.
	SaveErr   error
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MemoryRoleStore is an in-memory role-lookup table for unit tests.
type MemoryRoleStore struct {
	mu    sync.Mutex
	roles map[string]domainauth.Role

	// GetErr, when set, is returned by every GetRole call to simulate a
	// backend outage.
	GetErr error
}

// NewMemoryRoleStore creates a MemoryRoleStore seeded with the given assignments.
func NewMemoryRoleStore(roles map[string]domainauth.Role) *MemoryRoleStore {
	if roles == nil {
		roles = make(map[string]domainauth.Role)
	}
	return &MemoryRoleStore{roles: roles}
}

func (m *MemoryRoleStore) GetRole(_ context.Context, identityID string) (domainauth.Role, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[identityID]
	if !ok {
		return "", apperrors.NotFoundf("no role assignment for identity %s", identityID)
	}
	return role, nil
}

func (m *MemoryRoleStore) UpsertRole(_ context.Context, identityID string, role domainauth.Role, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[identityID] = role
	return nil
}

func (m *MemoryRoleStore) DeleteRole(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[identityID]; !ok {
		return apperrors.NotFoundf("no role assignment for identity %s", identityID)
	}
	delete(m.roles, identityID)
	return nil
}
