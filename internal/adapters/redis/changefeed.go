package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hellforge/tradepost/internal/ports"
)

// ChangeFeed broadcasts row-change events over Redis pub/sub, one channel per
// table under the configured prefix. Implements ports.ChangeFeed.
type ChangeFeed struct {
	client redis.UniversalClient
	prefix string
	buffer int
	logger *slog.Logger
}

// ChangeFeedConfig groups construction parameters for NewChangeFeed.
type ChangeFeedConfig struct {
	// Prefix namespaces the pub/sub channels, e.g. "changes:".
	Prefix string
	// Buffer is the per-subscriber channel capacity. Subscribers that fall
	// this far behind have events dropped rather than blocking delivery.
	Buffer int
	Logger *slog.Logger
}

// NewChangeFeed creates a Redis pub/sub change feed.
func NewChangeFeed(client redis.UniversalClient, cfg ChangeFeedConfig) *ChangeFeed {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "changes:"
	}
	buffer := cfg.Buffer
	if buffer < 1 {
		buffer = 64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeFeed{
		client: client,
		prefix: prefix,
		buffer: buffer,
		logger: logger.With("component", "changefeed"),
	}
}

// Publish sends a change event to the table's channel.
func (f *ChangeFeed) Publish(ctx context.Context, change ports.Change) error {
	if change.Table == "" {
		return fmt.Errorf("change table is required")
	}
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, f.prefix+change.Table, data).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe delivers changes for one table until ctx is canceled. The
// returned channel is closed when delivery stops.
func (f *ChangeFeed) Subscribe(ctx context.Context, table string) (<-chan ports.Change, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}

	sub := f.client.Subscribe(ctx, f.prefix+table)
	// Force the subscription to be established before returning so callers
	// never miss events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	out := make(chan ports.Change, f.buffer)
	go func() {
		defer close(out)
		defer func() {
			_ = sub.Close()
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change ports.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					f.logger.WarnContext(ctx, "dropping malformed change event",
						"table", table, "err", err)
					continue
				}
				select {
				case out <- change:
				default:
					f.logger.WarnContext(ctx, "dropping change event for slow subscriber",
						"table", table)
				}
			}
		}
	}()
	return out, nil
}
