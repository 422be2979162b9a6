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

// ReferenceRepo provides read access to the item and runeword reference
// tables, plus bulk import used by the admin CLI.
type ReferenceRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewReferenceRepo creates a ReferenceRepo backed by the system clock.
func NewReferenceRepo(db *sql.DB) *ReferenceRepo {
	return &ReferenceRepo{DB: db, timeProvider: RealTimeProvider{}}
}

const itemColumnsSQL = `id, game, name, category, quality, level_req, properties, created_at`

// GetItem retrieves a reference item by ID.
func (r *ReferenceRepo) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var out model.Item
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `SELECT `+itemColumnsSQL+` FROM items WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Item])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListItems retrieves reference items with optional filters and paging.
func (r *ReferenceRepo) ListItems(
	ctx context.Context,
	opts model.ReferenceListOptions,
) ([]*model.Item, error) {
	query, args := buildReferenceListQuery("items",
		[]string{"id", "game", "name", "category", "quality", "level_req", "properties", "created_at"},
		opts, opts.Category)

	var rowsOut []model.Item
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.Item])
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Item, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// ImportItems bulk-inserts reference items inside one transaction, replacing
// rows that collide on (game, name).
func (r *ReferenceRepo) ImportItems(ctx context.Context, items []*model.Item) (int, error) {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid item record")
		}
	}

	now := r.timeProvider.Now().UTC()
	count := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		for _, item := range items {
			_, execErr := tx.Exec(ctx, `
				INSERT INTO items (game, name, category, quality, level_req, properties, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (game, name)
				DO UPDATE SET category = EXCLUDED.category, quality = EXCLUDED.quality,
				              level_req = EXCLUDED.level_req, properties = EXCLUDED.properties`,
				item.Game,
				strings.TrimSpace(item.Name),
				item.Category,
				item.Quality,
				item.LevelReq,
				item.Properties,
				now,
			)
			if execErr != nil {
				return execErr
			}
			count++
		}
		return nil
	}})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

const runewordColumnsSQL = `id, game, name, runes, base_types, sockets, level_req, created_at`

// GetRuneword retrieves a runeword recipe by ID.
func (r *ReferenceRepo) GetRuneword(ctx context.Context, id string) (*model.Runeword, error) {
	var out model.Runeword
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `SELECT `+runewordColumnsSQL+` FROM runewords WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Runeword])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListRunewords retrieves runeword recipes with optional filters and paging.
func (r *ReferenceRepo) ListRunewords(
	ctx context.Context,
	opts model.ReferenceListOptions,
) ([]*model.Runeword, error) {
	query, args := buildReferenceListQuery("runewords",
		[]string{"id", "game", "name", "runes", "base_types", "sockets", "level_req", "created_at"},
		opts, nil)

	var rowsOut []model.Runeword
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.Runeword])
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("list runewords: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Runeword, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// ImportRunewords bulk-inserts runeword recipes inside one transaction,
// replacing rows that collide on (game, name).
func (r *ReferenceRepo) ImportRunewords(ctx context.Context, runewords []*model.Runeword) (int, error) {
	for _, rw := range runewords {
		if err := rw.Validate(); err != nil {
			return 0, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid runeword record")
		}
	}

	now := r.timeProvider.Now().UTC()
	count := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		for _, rw := range runewords {
			_, execErr := tx.Exec(ctx, `
				INSERT INTO runewords (game, name, runes, base_types, sockets, level_req, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (game, name)
				DO UPDATE SET runes = EXCLUDED.runes, base_types = EXCLUDED.base_types,
				              sockets = EXCLUDED.sockets, level_req = EXCLUDED.level_req`,
				rw.Game,
				strings.TrimSpace(rw.Name),
				rw.Runes,
				rw.BaseTypes,
				rw.Sockets,
				rw.LevelReq,
				now,
			)
			if execErr != nil {
				return execErr
			}
			count++
		}
		return nil
	}})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

func buildReferenceListQuery(
	table string,
	columns []string,
	opts model.ReferenceListOptions,
	category *string,
) (string, []any) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(columns...),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("name", sortDirAsc),
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("name", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%"),
		))
	}
	if opts.Game != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("game", database.Equal, *opts.Game),
		))
	}
	if category != nil && strings.TrimSpace(*category) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("category", database.Equal, strings.TrimSpace(*category)),
		))
	}

	return database.BuildListQuery(database.NewListQueryOptions(table, queryOpts...))
}
