package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	mockauth "github.com/hellforge/tradepost/internal/mocks/auth"
	"github.com/hellforge/tradepost/internal/ports"
)

func newTestAuthService(roles map[string]domainauth.Role) (*AuthService, *mockauth.MemorySessionStore, *mockauth.MockAuthProvider) {
	provider := mockauth.NewMockAuthProvider()
	sessions := mockauth.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Roles:    NewRoleResolver(mockauth.NewMemoryRoleStore(roles), nil),
	})
	return svc, sessions, provider
}

func TestBeginLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)

	result, err := svc.BeginLogin(context.Background(), "http://localhost/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", result.AuthURL)
	assert.NotEmpty(t, result.State)
	assert.NotEmpty(t, result.Nonce)
}

func TestBeginLogin_RequiresRedirectURL(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)

	_, err := svc.BeginLogin(context.Background(), "")
	assert.Error(t, err)
}

func TestCompleteLogin_ResolvesRoleAndPersists(t *testing.T) {
	svc, sessions, _ := newTestAuthService(map[string]domainauth.Role{
		"mock-user-1": domainauth.RoleModerator,
	})

	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "code", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleModerator, sess.Role)
	assert.Equal(t, "mock-user-1", sess.UserID)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, sessions.Len())
}

func TestCompleteLogin_UnknownUserGetsUserRole(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)

	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "code", State: "s", Nonce: "n",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, sess.Role)
}

func TestCompleteLogin_ValidatesInputs(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()

	_, err := svc.CompleteLogin(ctx, CompleteLoginInput{State: "s", Nonce: "n"})
	assert.Error(t, err)
	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", Nonce: "n"})
	assert.Error(t, err)
	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s"})
	assert.Error(t, err)
}

func TestCompleteLogin_ExchangeFailure(t *testing.T) {
	svc, sessions, provider := newTestAuthService(nil)
	provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
		return domainauth.Identity{}, errors.New("idp unavailable")
	}

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "c", State: "s", Nonce: "n",
	})
	assert.Error(t, err)
	assert.Equal(t, 0, sessions.Len())
}

func TestPasswordLogin(t *testing.T) {
	sessions := mockauth.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Password: &mockauth.MockPasswordAuthenticator{
			Email:    "sorc@example.com",
			Password: "hunter2hunter2",
			Identity: domainauth.Identity{UserID: "u1", Username: "sorc", Email: "sorc@example.com"},
		},
		Sessions: sessions,
		Roles:    NewRoleResolver(mockauth.NewMemoryRoleStore(nil), nil),
	})

	sess, err := svc.PasswordLogin(context.Background(), "sorc@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, domainauth.RoleUser, sess.Role)

	_, err = svc.PasswordLogin(context.Background(), "sorc@example.com", "wrong")
	assert.Error(t, err)
}

func TestPasswordLogin_NotEnabled(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)

	_, err := svc.PasswordLogin(context.Background(), "a@b.c", "pw")
	assert.Error(t, err)
}

func TestGetSession_Expired(t *testing.T) {
	svc, sessions, _ := newTestAuthService(nil)
	require.NoError(t, sessions.Save(context.Background(), domainauth.Session{
		ID:        "expired",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := svc.GetSession(context.Background(), "expired")
	assert.True(t, ErrSessionExpired(err))
	assert.Equal(t, 0, sessions.Len())
}

func TestRefreshRole_PicksUpGrant(t *testing.T) {
	store := mockauth.NewMemoryRoleStore(nil)
	sessions := mockauth.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider: mockauth.NewMockAuthProvider(),
		Sessions: sessions,
		Roles:    NewRoleResolver(store, nil),
	})

	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "c", State: "s", Nonce: "n",
	})
	require.NoError(t, err)
	require.Equal(t, domainauth.RoleUser, sess.Role)

	// Grant moderator out of band and refresh.
	require.NoError(t, store.UpsertRole(context.Background(), sess.UserID, domainauth.RoleModerator, "admin-1"))

	refreshed, err := svc.RefreshRole(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleModerator, refreshed.Role)

	stored, err := svc.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleModerator, stored.Role)
}

func TestLogout_FailureKeepsSession(t *testing.T) {
	svc, sessions, _ := newTestAuthService(nil)
	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "c", State: "s", Nonce: "n",
	})
	require.NoError(t, err)

	sessions.DeleteErr = errors.New("redis down")
	err = svc.Logout(context.Background(), sess.ID)
	assert.Error(t, err)

	// Session must still be retrievable after a failed logout.
	sessions.DeleteErr = nil
	got, err := svc.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
}

func TestLogout_EmptyIDIsNoop(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	assert.NoError(t, svc.Logout(context.Background(), ""))
}

func TestAuthNotices(t *testing.T) {
	var notices []ports.Notice
	recordNotice := ports.NotifierFunc(func(_ context.Context, n ports.Notice) {
		notices = append(notices, n)
	})

	sessions := mockauth.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider: mockauth.NewMockAuthProvider(),
		Sessions: sessions,
		Roles:    NewRoleResolver(mockauth.NewMemoryRoleStore(nil), nil),
		Notices:  recordNotice,
	})

	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "c", State: "s", Nonce: "n",
	})
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "Signed in", notices[0].Title)
	assert.Equal(t, sess.UserID, notices[0].UserID)

	// Failed logout emits an error notice and keeps the session.
	sessions.DeleteErr = errors.New("redis down")
	require.Error(t, svc.Logout(context.Background(), sess.ID))
	require.Len(t, notices, 2)
	assert.Equal(t, ports.NoticeError, notices[1].Kind)
	assert.Equal(t, "Sign out failed", notices[1].Title)

	sessions.DeleteErr = nil
	require.NoError(t, svc.Logout(context.Background(), sess.ID))
	require.Len(t, notices, 3)
	assert.Equal(t, "Signed out", notices[2].Title)
	assert.Equal(t, sess.UserID, notices[2].UserID)
}
