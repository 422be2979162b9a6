package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_Basic(t *testing.T) {
	opts := NewListQueryOptions("trade_offers",
		WithColumns("id", "game", "status"),
		WithLimit(10),
		WithOffset(5),
	)
	query, args := BuildListQuery(opts)

	assert.Equal(t, `SELECT "id", "game", "status" FROM "trade_offers" LIMIT $1 OFFSET $2`, query)
	assert.Equal(t, []any{10, 5}, args)
}

func TestBuildListQuery_Conditions(t *testing.T) {
	opts := NewListQueryOptions("trade_offers",
		WithColumns("id"),
		WithCondition(WhereCond("game", Equal, "resurrected")),
		WithCondition(WhereCond("offering", ILike, "%shako%")),
		WithOrderBy("created_at", "desc"),
		WithLimit(20),
	)
	query, args := BuildListQuery(opts)

	assert.Equal(t,
		`SELECT "id" FROM "trade_offers" WHERE "game" = $1 AND "offering" ILIKE $2 ORDER BY "created_at" DESC LIMIT $3`,
		query)
	assert.Equal(t, []any{"resurrected", "%shako%", 20}, args)
}

func TestBuildListQuery_InCondition(t *testing.T) {
	opts := NewListQueryOptions("trade_offers",
		WithCondition(WhereCond("status", In, []string{"open", "pending"})),
	)
	query, args := BuildListQuery(opts)

	assert.Equal(t, `SELECT * FROM "trade_offers" WHERE "status" IN ($1, $2)`, query)
	assert.Equal(t, []any{"open", "pending"}, args)
}

func TestBuildListQuery_EmptyInConditionSkipped(t *testing.T) {
	opts := NewListQueryOptions("trade_offers",
		WithCondition(WhereCond("status", In, []string{})),
	)
	query, args := BuildListQuery(opts)

	assert.Equal(t, `SELECT * FROM "trade_offers"`, query)
	assert.Empty(t, args)
}

func TestBuildListQuery_CountOnly(t *testing.T) {
	opts := NewListQueryOptions("price_checks",
		WithCondition(WhereCond("game", Equal, "classic")),
		WithCountOnly(),
		WithLimit(10),
	)
	query, args := BuildListQuery(opts)

	assert.Equal(t, `SELECT COUNT(*) FROM "price_checks" WHERE "game" = $1`, query)
	assert.Equal(t, []any{"classic"}, args)
}

func TestBuildListQuery_RawConditionRenumbered(t *testing.T) {
	opts := NewListQueryOptions("trade_offers",
		WithCondition(WhereCond("game", Equal, "classic")),
		WithCondition(WhereRawCond("(offering ILIKE $1 OR wanting ILIKE $1)", "%ist%")),
	)
	query, args := BuildListQuery(opts)

	assert.Contains(t, query, `"game" = $1`)
	assert.Contains(t, query, "offering ILIKE $2 OR wanting ILIKE $2")
	require.Len(t, args, 2)
	assert.Equal(t, "classic", args[0])
	assert.Equal(t, "%ist%", args[1])
}

func TestBuildListQuery_SanitizesIdentifiers(t *testing.T) {
	opts := NewListQueryOptions(`trade_offers"; DROP TABLE x; --`,
		WithColumns("id"),
	)
	query, _ := BuildListQuery(opts)

	// Dangerous characters end up quoted inside the identifier, not executable.
	assert.Contains(t, query, `"trade_offers""; DROP TABLE x; --"`)
}

func TestBuildListQuery_NilOptions(t *testing.T) {
	query, args := BuildListQuery(nil)
	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestBuildListQuery_ZeroLimitKept(t *testing.T) {
	opts := NewListQueryOptions("items", WithLimit(0))
	query, args := BuildListQuery(opts)

	assert.Equal(t, `SELECT * FROM "items" LIMIT $1`, query)
	assert.Equal(t, []any{0}, args)
}
