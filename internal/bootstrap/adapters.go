package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hellforge/tradepost/config"
	redisadapter "github.com/hellforge/tradepost/internal/adapters/redis"
	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/realtime"
)

// BuildChangeFeed creates the Redis pub/sub change feed shared by services
// and the realtime watcher. Returns nil when Redis is not available.
//
//nolint:ireturn // the feed is consumed through its port everywhere else.
func BuildChangeFeed(client redis.UniversalClient, cfg config.RealtimeConfig, logger *slog.Logger) ports.ChangeFeed {
	if client == nil {
		if logger != nil {
			logger.Warn("change feed disabled: redis client not configured")
		}
		return nil
	}
	return redisadapter.NewChangeFeed(client, redisadapter.ChangeFeedConfig{
		Prefix: cfg.ChannelPrefix,
		Buffer: cfg.ClientBuffer,
		Logger: logger,
	})
}

// RealtimeWatcherConfig contains configuration for the realtime watcher.
type RealtimeWatcherConfig struct {
	Watcher *realtime.RoleWatcher
}

// RunRealtimeWatcher runs the shared role watcher: it consumes role changes
// from the feed and refreshes the session trackers registered for affected
// identities. The watcher instance is the one HTTP stream connections
// register with, so both sides must share it. Blocks until the context is
// canceled or the feed closes.
func RunRealtimeWatcher(ctx context.Context, cfg RealtimeWatcherConfig) error {
	if cfg.Watcher == nil {
		return errors.New("realtime watcher requires a change feed")
	}
	return cfg.Watcher.Run(ctx)
}
