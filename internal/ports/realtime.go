package ports

import "context"

// Change is a single row-change event on the change feed.
type Change struct {
	Table   string         `json:"table"`
	Op      string         `json:"op"` // insert, update, delete
	Payload map[string]any `json:"payload,omitempty"`
}

// ChangeFeed publishes and delivers row-change events. Publish failures must
// never fail the originating write; callers log and move on.
type ChangeFeed interface {
	Publish(ctx context.Context, change Change) error

	// Subscribe delivers changes for one table until the context is canceled.
	// The returned channel is closed when delivery stops.
	Subscribe(ctx context.Context, table string) (<-chan Change, error)
}
