package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	mockauth "github.com/hellforge/tradepost/internal/mocks/auth"
)

func TestRoleResolver_KnownRoles(t *testing.T) {
	store := mockauth.NewMemoryRoleStore(map[string]domainauth.Role{
		"admin-1": domainauth.RoleAdmin,
		"mod-1":   domainauth.RoleModerator,
		"user-1":  domainauth.RoleUser,
	})
	resolver := NewRoleResolver(store, nil)
	ctx := context.Background()

	assert.Equal(t, domainauth.RoleAdmin, resolver.Resolve(ctx, "admin-1"))
	assert.Equal(t, domainauth.RoleModerator, resolver.Resolve(ctx, "mod-1"))
	assert.Equal(t, domainauth.RoleUser, resolver.Resolve(ctx, "user-1"))
}

func TestRoleResolver_MissingRowIsUser(t *testing.T) {
	resolver := NewRoleResolver(mockauth.NewMemoryRoleStore(nil), nil)

	assert.Equal(t, domainauth.RoleUser, resolver.Resolve(context.Background(), "stranger"))
}

func TestRoleResolver_LookupErrorIsUser(t *testing.T) {
	store := mockauth.NewMemoryRoleStore(map[string]domainauth.Role{
		"admin-1": domainauth.RoleAdmin,
	})
	store.GetErr = errors.New("database unreachable")
	resolver := NewRoleResolver(store, nil)

	// Even an identity that actually holds admin degrades to user while the
	// lookup backend is failing.
	assert.Equal(t, domainauth.RoleUser, resolver.Resolve(context.Background(), "admin-1"))
}

func TestRoleResolver_UnknownRoleStringIsUser(t *testing.T) {
	store := mockauth.NewMemoryRoleStore(map[string]domainauth.Role{
		"odd-1": domainauth.Role("superuser"),
	})
	var buf bytes.Buffer
	resolver := NewRoleResolver(store, slog.New(slog.NewJSONHandler(&buf, nil)))

	assert.Equal(t, domainauth.RoleUser, resolver.Resolve(context.Background(), "odd-1"))

	// The corrupt stored value must be diagnosable from the log.
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "superuser")
	assert.Contains(t, buf.String(), "odd-1")
}

func TestRoleResolver_EmptyIdentityIsUser(t *testing.T) {
	resolver := NewRoleResolver(mockauth.NewMemoryRoleStore(nil), nil)

	assert.Equal(t, domainauth.RoleUser, resolver.Resolve(context.Background(), ""))
}
