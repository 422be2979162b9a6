package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/hellforge/tradepost/internal/data/pgxutil"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

// GameStatusRepo provides database operations for the per-game status rows.
type GameStatusRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewGameStatusRepo creates a GameStatusRepo backed by the system clock.
func NewGameStatusRepo(db *sql.DB) *GameStatusRepo {
	return &GameStatusRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewGameStatusRepoWithTimeProvider creates a GameStatusRepo with a custom time provider.
func NewGameStatusRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *GameStatusRepo {
	return &GameStatusRepo{DB: db, timeProvider: tp}
}

const gameStatusColumnsSQL = `game, state, message, updated_at`

// Upsert replaces the status row for a game.
func (r *GameStatusRepo) Upsert(ctx context.Context, req *model.UpdateGameStatusRequest) (*model.GameStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid game status")
	}

	now := r.timeProvider.Now().UTC()
	var out model.GameStatus
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			INSERT INTO game_status (game, state, message, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game)
			DO UPDATE SET state = EXCLUDED.state, message = EXCLUDED.message, updated_at = EXCLUDED.updated_at
			RETURNING `+gameStatusColumnsSQL,
			req.Game, req.State, req.Message, now)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.GameStatus])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Get retrieves the status row for one game.
func (r *GameStatusRepo) Get(ctx context.Context, game model.Game) (*model.GameStatus, error) {
	var out model.GameStatus
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+gameStatusColumnsSQL+` FROM game_status WHERE game = $1`, game)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.GameStatus])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List returns status rows for every game that has reported at least once.
func (r *GameStatusRepo) List(ctx context.Context) ([]*model.GameStatus, error) {
	var rowsOut []model.GameStatus
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+gameStatusColumnsSQL+` FROM game_status ORDER BY game ASC`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.GameStatus])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.GameStatus, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
