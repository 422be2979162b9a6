package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellforge/tradepost/internal/ports"
)

func TestNewFilter_EmptyMatchesEverything(t *testing.T) {
	f, err := NewFilter("   ")
	require.NoError(t, err)

	assert.True(t, f.Match(ports.Change{Table: "trade_offers", Op: "insert"}))
	assert.True(t, f.Match(ports.Change{}))
}

func TestNewFilter_InvalidExpression(t *testing.T) {
	_, err := NewFilter("payload.[")
	assert.Error(t, err)
}

func TestFilter_MatchByOp(t *testing.T) {
	f, err := NewFilter(`op == 'insert'`)
	require.NoError(t, err)

	assert.True(t, f.Match(ports.Change{Table: "trade_offers", Op: "insert"}))
	assert.False(t, f.Match(ports.Change{Table: "trade_offers", Op: "delete"}))
}

func TestFilter_MatchByPayloadField(t *testing.T) {
	f, err := NewFilter(`payload.game == 'classic'`)
	require.NoError(t, err)

	assert.True(t, f.Match(ports.Change{
		Table:   "game_status",
		Op:      "update",
		Payload: map[string]any{"game": "classic", "state": "offline"},
	}))
	assert.False(t, f.Match(ports.Change{
		Table:   "game_status",
		Op:      "update",
		Payload: map[string]any{"game": "resurrected"},
	}))
	assert.False(t, f.Match(ports.Change{Table: "game_status", Op: "update"}))
}

func TestFilter_TruthinessFollowsJMESPath(t *testing.T) {
	// Selecting a field uses its value's truthiness, not just presence.
	f, err := NewFilter(`payload.message`)
	require.NoError(t, err)

	assert.True(t, f.Match(ports.Change{Payload: map[string]any{"message": "login queue"}}))
	assert.False(t, f.Match(ports.Change{Payload: map[string]any{"message": ""}}))
	assert.False(t, f.Match(ports.Change{Payload: map[string]any{}}))
}

func TestFilter_NilFilterMatches(t *testing.T) {
	var f *Filter
	assert.True(t, f.Match(ports.Change{Op: "insert"}))
}

func TestSubscribe_FiltersUpstream(t *testing.T) {
	feed := &stubFilterFeed{changes: []ports.Change{
		{Table: "game_status", Op: "update", Payload: map[string]any{"game": "classic"}},
		{Table: "game_status", Op: "update", Payload: map[string]any{"game": "resurrected"}},
		{Table: "game_status", Op: "update", Payload: map[string]any{"game": "classic"}},
	}}
	f, err := NewFilter(`payload.game == 'classic'`)
	require.NoError(t, err)

	ch, err := Subscribe(context.Background(), feed, "game_status", f)
	require.NoError(t, err)

	var got []ports.Change
	for change := range ch {
		got = append(got, change)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "classic", got[0].Payload["game"])
	assert.Equal(t, "classic", got[1].Payload["game"])
}

// stubFilterFeed delivers fixed changes then closes the channel.
type stubFilterFeed struct {
	changes []ports.Change
}

func (s *stubFilterFeed) Publish(context.Context, ports.Change) error { return nil }

func (s *stubFilterFeed) Subscribe(context.Context, string) (<-chan ports.Change, error) {
	ch := make(chan ports.Change, len(s.changes))
	for _, c := range s.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}
