package data

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hellforge/tradepost/internal/data/pgxutil"
	"github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

// ProfileRepo provides database operations for user profiles, including the
// password-hash column used by the password auth mode.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a ProfileRepo backed by the system clock.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom time provider.
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

const profileColumnsSQL = `identity_id, username, email, avatar_url, bio, created_at, updated_at`

// EnsureForIdentity creates a profile row for a freshly authenticated identity
// if one does not exist yet, and returns the current row either way.
func (r *ProfileRepo) EnsureForIdentity(ctx context.Context, ident auth.Identity) (*model.Profile, error) {
	now := r.timeProvider.Now().UTC()
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			INSERT INTO profiles (identity_id, username, email, avatar_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (identity_id)
			DO UPDATE SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
			RETURNING `+profileColumnsSQL,
			ident.UserID,
			ident.Username,
			ident.Email,
			nullIfEmpty(ident.AvatarURL),
			now,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByIdentityID retrieves a profile by its identity ID.
func (r *ProfileRepo) GetByIdentityID(ctx context.Context, identityID string) (*model.Profile, error) {
	return r.getByQuery(ctx,
		`SELECT `+profileColumnsSQL+` FROM profiles WHERE identity_id = $1`, identityID)
}

// GetByUsername retrieves a profile by username.
func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return r.getByQuery(ctx,
		`SELECT `+profileColumnsSQL+` FROM profiles WHERE username = $1`, username)
}

// Update applies the provided fields to a profile.
func (r *ProfileRepo) Update(
	ctx context.Context,
	identityID string,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid profile update")
	}

	setParts := make([]string, 0, 4)
	args := make([]any, 0, 5)
	nextIdx := func() int { return len(args) + 1 }

	if req.Username != nil {
		setParts = append(setParts, fmt.Sprintf("username = $%d", nextIdx()))
		args = append(args, *req.Username)
	}
	if req.AvatarURL != nil {
		if strings.TrimSpace(*req.AvatarURL) == "" {
			setParts = append(setParts, "avatar_url = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("avatar_url = $%d", nextIdx()))
			args = append(args, strings.TrimSpace(*req.AvatarURL))
		}
	}
	if req.Bio != nil {
		if strings.TrimSpace(*req.Bio) == "" {
			setParts = append(setParts, "bio = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("bio = $%d", nextIdx()))
			args = append(args, *req.Bio)
		}
	}
	if len(setParts) == 0 {
		return r.GetByIdentityID(ctx, identityID)
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	args = append(args, identityID)

	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := "UPDATE profiles SET " + strings.Join(setParts, ", ") +
			" WHERE identity_id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + profileColumnsSQL
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetCredentials returns the identity and stored password hash for an email
// address. Used only by the password auth mode.
func (r *ProfileRepo) GetCredentials(ctx context.Context, email string) (auth.Identity, string, error) {
	var (
		ident     auth.Identity
		hash      sql.NullString
		avatarURL sql.NullString
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT identity_id, username, email, avatar_url, password_hash
			FROM profiles
			WHERE email = $1`, email).
			Scan(&ident.UserID, &ident.Username, &ident.Email, &avatarURL, &hash)
	})
	if err != nil {
		return auth.Identity{}, "", apperrors.MapDBError(err)
	}
	if avatarURL.Valid {
		ident.AvatarURL = avatarURL.String
	}
	if !hash.Valid || hash.String == "" {
		return auth.Identity{}, "", apperrors.NotFoundf("no password credentials for %s", email)
	}
	return ident, hash.String, nil
}

// SetPasswordHash stores a bcrypt hash for an identity. Used by the admin CLI
// to provision password-mode accounts.
func (r *ProfileRepo) SetPasswordHash(ctx context.Context, identityID, hash string) error {
	now := r.timeProvider.Now().UTC()
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx,
			`UPDATE profiles SET password_hash = $1, updated_at = $2 WHERE identity_id = $3`,
			hash, now, identityID)
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
		return apperrors.NotFoundf("profile %s not found", identityID)
	}
	return nil
}

func (r *ProfileRepo) getByQuery(ctx context.Context, query string, arg any) (*model.Profile, error) {
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, arg)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
