package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hellforge/tradepost/internal/data/database"
	"github.com/hellforge/tradepost/internal/data/pgxutil"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

// PriceCheckRepo provides database operations for price checks and their estimates.
type PriceCheckRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPriceCheckRepo creates a PriceCheckRepo backed by the system clock.
func NewPriceCheckRepo(db *sql.DB) *PriceCheckRepo {
	return &PriceCheckRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewPriceCheckRepoWithTimeProvider creates a PriceCheckRepo with a custom time provider.
func NewPriceCheckRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PriceCheckRepo {
	return &PriceCheckRepo{DB: db, timeProvider: tp}
}

const priceCheckColumnsSQL = `id, requester_id, game, item_name, description, status, created_at, updated_at`

// Create opens a new price check for requesterID.
func (r *PriceCheckRepo) Create(
	ctx context.Context,
	requesterID string,
	req *model.CreatePriceCheckRequest,
) (*model.PriceCheck, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid price check")
	}

	now := r.timeProvider.Now().UTC()
	var out model.PriceCheck
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			INSERT INTO price_checks (requester_id, game, item_name, description, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING `+priceCheckColumnsSQL,
			requesterID,
			req.Game,
			strings.TrimSpace(req.ItemName),
			req.Description,
			model.PriceCheckStatusOpen,
			now,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PriceCheck])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a price check by ID.
func (r *PriceCheckRepo) GetByID(ctx context.Context, id string) (*model.PriceCheck, error) {
	var out model.PriceCheck
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+priceCheckColumnsSQL+` FROM price_checks WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PriceCheck])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves price checks with optional filters and paging.
func (r *PriceCheckRepo) List(
	ctx context.Context,
	opts model.PriceChecksListOptions,
) ([]*model.PriceCheck, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "requester_id", "game", "item_name", "description", "status", "created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("created_at", sortDirDesc),
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("item_name", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%"),
		))
	}
	if opts.Game != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("game", database.Equal, *opts.Game),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, *opts.Status),
		))
	}
	if opts.RequesterID != nil && *opts.RequesterID != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("requester_id", database.Equal, *opts.RequesterID),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("price_checks", queryOpts...))

	var rowsOut []model.PriceCheck
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.PriceCheck])
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("list price checks: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.PriceCheck, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// SetStatus moves a price check between open and closed.
func (r *PriceCheckRepo) SetStatus(
	ctx context.Context,
	id string,
	status model.PriceCheckStatus,
) (*model.PriceCheck, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status must be one of: open, closed")
	}

	now := r.timeProvider.Now().UTC()
	var out model.PriceCheck
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			UPDATE price_checks SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+priceCheckColumnsSQL,
			status, now, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PriceCheck])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete removes a price check. Estimates cascade at the schema level.
func (r *PriceCheckRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx, `DELETE FROM price_checks WHERE id = $1`, id)
		if execErr != nil {
			return execErr
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return rows > 0, nil
}

const priceEstimateColumnsSQL = `id, price_check_id, author_id, estimate, note, created_at`

// CreateEstimate records a community estimate on a price check.
func (r *PriceCheckRepo) CreateEstimate(
	ctx context.Context,
	priceCheckID, authorID string,
	req *model.CreatePriceEstimateRequest,
) (*model.PriceEstimate, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid price estimate")
	}

	now := r.timeProvider.Now().UTC()
	var out model.PriceEstimate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			INSERT INTO price_estimates (price_check_id, author_id, estimate, note, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+priceEstimateColumnsSQL,
			priceCheckID,
			authorID,
			strings.TrimSpace(req.Estimate),
			req.Note,
			now,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PriceEstimate])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListEstimates returns the estimates on a price check, oldest first.
func (r *PriceCheckRepo) ListEstimates(ctx context.Context, priceCheckID string) ([]*model.PriceEstimate, error) {
	var rowsOut []model.PriceEstimate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+priceEstimateColumnsSQL+` FROM price_estimates WHERE price_check_id = $1 ORDER BY created_at ASC`,
			priceCheckID)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.PriceEstimate])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.PriceEstimate, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
