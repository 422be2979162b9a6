package data

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hellforge/tradepost/internal/data/database"
	"github.com/hellforge/tradepost/internal/data/pgxutil"
	"github.com/hellforge/tradepost/internal/domain/model"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

const (
	sortDirAsc  = "asc"
	sortDirDesc = "desc"
)

// TradeOfferRepo provides database operations for trade offers and their
// counter-offers.
type TradeOfferRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTradeOfferRepo creates a TradeOfferRepo backed by the system clock.
func NewTradeOfferRepo(db *sql.DB) *TradeOfferRepo {
	return &TradeOfferRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewTradeOfferRepoWithTimeProvider creates a TradeOfferRepo with a custom time provider.
func NewTradeOfferRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *TradeOfferRepo {
	return &TradeOfferRepo{DB: db, timeProvider: tp}
}

const tradeOfferColumnsSQL = `id, owner_id, game, offering, wanting, note, status, created_at, updated_at`

// Create inserts a new open trade offer owned by ownerID.
func (r *TradeOfferRepo) Create(
	ctx context.Context,
	ownerID string,
	req *model.CreateTradeOfferRequest,
) (*model.TradeOffer, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid trade offer")
	}

	now := r.timeProvider.Now().UTC()
	var out model.TradeOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			INSERT INTO trade_offers (owner_id, game, offering, wanting, note, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING `+tradeOfferColumnsSQL,
			ownerID,
			req.Game,
			strings.TrimSpace(req.Offering),
			strings.TrimSpace(req.Wanting),
			req.Note,
			model.TradeOfferStatusOpen,
			now,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TradeOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a trade offer by ID.
func (r *TradeOfferRepo) GetByID(ctx context.Context, id string) (*model.TradeOffer, error) {
	var out model.TradeOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+tradeOfferColumnsSQL+` FROM trade_offers WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TradeOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves trade offers with optional filters and paging.
func (r *TradeOfferRepo) List(
	ctx context.Context,
	opts model.TradeOffersListOptions,
) ([]*model.TradeOffer, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query, args := database.BuildListQuery(r.buildListOptions(opts, limit, offset))

	var rowsOut []model.TradeOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.TradeOffer])
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("list trade offers: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.TradeOffer, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

func (r *TradeOfferRepo) buildListOptions(
	opts model.TradeOffersListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "owner_id", "game", "offering", "wanting", "note", "status", "created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("created_at", sortDirDesc),
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Q) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(offering ILIKE $1 OR wanting ILIKE $1)", pattern),
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
	if opts.OwnerID != nil && *opts.OwnerID != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("owner_id", database.Equal, *opts.OwnerID),
		))
	}

	return database.NewListQueryOptions("trade_offers", queryOpts...)
}

// Update applies the provided fields to a trade offer.
func (r *TradeOfferRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateTradeOfferRequest,
) (*model.TradeOffer, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid trade offer update")
	}

	setClause, args := r.buildUpdateClause(req)
	if setClause == "" {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)

	var out model.TradeOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := "UPDATE trade_offers SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + tradeOfferColumnsSQL
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TradeOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

func (r *TradeOfferRepo) buildUpdateClause(req model.UpdateTradeOfferRequest) (string, []any) {
	setParts := make([]string, 0, 5)
	args := make([]any, 0, 6)
	nextIdx := func() int { return len(args) + 1 }

	if req.Offering != nil {
		setParts = append(setParts, fmt.Sprintf("offering = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Offering))
	}
	if req.Wanting != nil {
		setParts = append(setParts, fmt.Sprintf("wanting = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Wanting))
	}
	if req.Note != nil {
		if strings.TrimSpace(*req.Note) == "" {
			setParts = append(setParts, "note = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("note = $%d", nextIdx()))
			args = append(args, *req.Note)
		}
	}
	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", nextIdx()))
		args = append(args, *req.Status)
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete removes a trade offer. Counter-offers cascade at the schema level.
func (r *TradeOfferRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx, `DELETE FROM trade_offers WHERE id = $1`, id)
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

const counterOfferColumnsSQL = `id, offer_id, author_id, offering, note, status, created_at, updated_at`

// CreateCounterOffer attaches a pending counter-offer to an existing trade offer.
func (r *TradeOfferRepo) CreateCounterOffer(
	ctx context.Context,
	offerID, authorID string,
	req *model.CreateCounterOfferRequest,
) (*model.CounterOffer, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid counter-offer")
	}

	now := r.timeProvider.Now().UTC()
	var out model.CounterOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			INSERT INTO counter_offers (offer_id, author_id, offering, note, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING `+counterOfferColumnsSQL,
			offerID,
			authorID,
			strings.TrimSpace(req.Offering),
			req.Note,
			model.CounterOfferStatusPending,
			now,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.CounterOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetCounterOffer retrieves a counter-offer by ID.
func (r *TradeOfferRepo) GetCounterOffer(ctx context.Context, id string) (*model.CounterOffer, error) {
	var out model.CounterOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+counterOfferColumnsSQL+` FROM counter_offers WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.CounterOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListCounterOffers returns the counter-offers on an offer, oldest first.
func (r *TradeOfferRepo) ListCounterOffers(ctx context.Context, offerID string) ([]*model.CounterOffer, error) {
	var rowsOut []model.CounterOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+counterOfferColumnsSQL+` FROM counter_offers WHERE offer_id = $1 ORDER BY created_at ASC`,
			offerID)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		rowsOut, queryErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.CounterOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.CounterOffer, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateCounterOfferStatus moves a counter-offer to accepted or declined.
func (r *TradeOfferRepo) UpdateCounterOfferStatus(
	ctx context.Context,
	id string,
	status model.CounterOfferStatus,
) (*model.CounterOffer, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status must be one of: pending, accepted, declined")
	}

	now := r.timeProvider.Now().UTC()
	var out model.CounterOffer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			UPDATE counter_offers SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+counterOfferColumnsSQL,
			status, now, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out, queryErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.CounterOffer])
		return queryErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
