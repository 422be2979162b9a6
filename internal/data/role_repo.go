package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hellforge/tradepost/internal/data/pgxutil"
	"github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

// RoleRepo provides database operations for the role-lookup table.
// It implements ports.RoleStore.
type RoleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRoleRepo creates a RoleRepo backed by the system clock.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewRoleRepoWithTimeProvider creates a RoleRepo with a custom time provider.
func NewRoleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: tp}
}

const roleGetQuery = `
	SELECT role
	FROM user_roles
	WHERE identity_id = $1`

// GetRole returns the stored role for an identity. Missing rows surface as a
// not-found error; the caller decides what absence means.
func (r *RoleRepo) GetRole(ctx context.Context, identityID string) (auth.Role, error) {
	var raw string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, roleGetQuery, identityID).Scan(&raw)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFoundf("no role assignment for identity %s", identityID)
		}
		return "", apperrors.MapDBError(err)
	}

	role, ok := auth.ParseRole(raw)
	if !ok {
		// A corrupt row is not the same as a missing one; surface it so the
		// caller can log the stored value before degrading.
		return "", apperrors.Internal(fmt.Sprintf("unrecognized role %q for identity %s", raw, identityID))
	}
	return role, nil
}

// UpsertRole assigns a role to an identity, replacing any existing assignment.
func (r *RoleRepo) UpsertRole(ctx context.Context, identityID string, role auth.Role, grantedBy string) error {
	if strings.TrimSpace(identityID) == "" {
		return apperrors.Validation("identity id is required")
	}
	if !role.Valid() {
		return apperrors.Validation("role must be one of: user, moderator, admin")
	}

	now := r.timeProvider.Now().UTC()
	var granted *string
	if strings.TrimSpace(grantedBy) != "" {
		granted = &grantedBy
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO user_roles (identity_id, role, granted_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (identity_id)
			DO UPDATE SET role = EXCLUDED.role, granted_by = EXCLUDED.granted_by, updated_at = EXCLUDED.updated_at`,
			identityID, string(role), granted, now)
		return execErr
	})
	return apperrors.MapDBError(err)
}

// DeleteRole removes an identity's role assignment, reverting it to a plain user.
func (r *RoleRepo) DeleteRole(ctx context.Context, identityID string) error {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx, `DELETE FROM user_roles WHERE identity_id = $1`, identityID)
		if execErr != nil {
			return execErr
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if rows == 0 {
		return apperrors.NotFoundf("no role assignment for identity %s", identityID)
	}
	return nil
}

const roleListQuery = `
	SELECT identity_id, role, granted_by, created_at, updated_at
	FROM user_roles
	ORDER BY updated_at DESC
	LIMIT $1 OFFSET $2`

// List returns role assignments with pagination, most recently changed first.
func (r *RoleRepo) List(ctx context.Context, limit, offset int) ([]*model.UserRole, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []model.UserRole
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, roleListQuery, limit, offset)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.UserRole])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.UserRole, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
