package service

import (
	"context"
	"log/slog"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/ports"
)

// RoleResolver turns an identity ID into an application role. Every ambiguous
// outcome collapses to the plain user role: no row, a lookup failure, or an
// unrecognized role string. Elevated access only ever comes from a clean read
// of a recognized role.
type RoleResolver struct {
	store  ports.RoleStore
	logger *slog.Logger
}

// NewRoleResolver constructs a RoleResolver.
func NewRoleResolver(store ports.RoleStore, logger *slog.Logger) *RoleResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{store: store, logger: logger.With("component", "roles")}
}

// Resolve returns the role for an identity. It never returns an error: the
// degraded answer is always the user role, logged so operators can tell
// outages apart from genuinely unprivileged accounts.
func (r *RoleResolver) Resolve(ctx context.Context, identityID string) domainauth.Role {
	if identityID == "" {
		return domainauth.RoleUser
	}

	role, err := r.store.GetRole(ctx, identityID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			r.logger.WarnContext(ctx, "role lookup failed, treating identity as plain user",
				"identity_id", identityID, "err", err)
		}
		return domainauth.RoleUser
	}
	if !role.Valid() {
		r.logger.WarnContext(ctx, "unrecognized role value, treating identity as plain user",
			"identity_id", identityID, "role", string(role))
		return domainauth.RoleUser
	}
	return role
}
