package service

import (
	"context"
	"log/slog"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/ports"
)

// RoleLister pages through role assignments. Implemented by data.RoleRepo.
type RoleLister interface {
	List(ctx context.Context, limit, offset int) ([]*model.UserRole, error)
}

// RoleAdminService is the admin-only surface for granting and revoking roles.
// Every mutation lands on the change feed so live sessions can refresh.
type RoleAdminService struct {
	store  ports.RoleStore
	lister RoleLister
	feed   ports.ChangeFeed
	logger *slog.Logger
}

// RoleAdminServiceOptions groups dependencies for RoleAdminService.
type RoleAdminServiceOptions struct {
	Store  ports.RoleStore
	Lister RoleLister
	Feed   ports.ChangeFeed // optional
	Logger *slog.Logger     // optional
}

// NewRoleAdminService constructs a RoleAdminService.
func NewRoleAdminService(opts RoleAdminServiceOptions) *RoleAdminService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleAdminService{
		store:  opts.Store,
		lister: opts.Lister,
		feed:   opts.Feed,
		logger: logger.With("component", "role_admin"),
	}
}

// Grant assigns a role to an identity. Admins cannot demote themselves; this
// keeps at least the acting admin able to undo a mistake.
func (s *RoleAdminService) Grant(
	ctx context.Context,
	actor *domainauth.Session,
	identityID string,
	role domainauth.Role,
) error {
	if actor == nil || !actor.IsAdmin() {
		return apperrors.Forbidden("admin role required")
	}
	if identityID == actor.UserID && role != domainauth.RoleAdmin {
		return apperrors.Validation("cannot demote your own account")
	}
	if !role.Valid() {
		return apperrors.Validation("role must be one of: user, moderator, admin")
	}

	if err := s.store.UpsertRole(ctx, identityID, role, actor.UserID); err != nil {
		return err
	}
	s.publish(ctx, "update", identityID)
	s.logger.InfoContext(ctx, "role granted",
		"identity_id", identityID, "role", string(role), "granted_by", actor.UserID)
	return nil
}

// Revoke removes an identity's role assignment, reverting it to a plain user.
func (s *RoleAdminService) Revoke(ctx context.Context, actor *domainauth.Session, identityID string) error {
	if actor == nil || !actor.IsAdmin() {
		return apperrors.Forbidden("admin role required")
	}
	if identityID == actor.UserID {
		return apperrors.Validation("cannot revoke your own role")
	}

	if err := s.store.DeleteRole(ctx, identityID); err != nil {
		return err
	}
	s.publish(ctx, "delete", identityID)
	s.logger.InfoContext(ctx, "role revoked",
		"identity_id", identityID, "revoked_by", actor.UserID)
	return nil
}

// List pages through role assignments. Admin-only.
func (s *RoleAdminService) List(
	ctx context.Context,
	actor *domainauth.Session,
	limit, offset int,
) ([]*model.UserRole, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}
	return s.lister.List(ctx, limit, offset)
}

func (s *RoleAdminService) publish(ctx context.Context, op, identityID string) {
	if s.feed == nil {
		return
	}
	change := ports.Change{
		Table:   "user_roles",
		Op:      op,
		Payload: map[string]any{"identity_id": identityID},
	}
	if err := s.feed.Publish(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "change feed publish failed", "op", op, "err", err)
	}
}
