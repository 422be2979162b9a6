package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hellforge/tradepost/internal/ports"
)

// NoticeStream appends user notices to a per-user Redis stream so a client can
// replay what happened to its account between page loads. Implements
// ports.Notifier; delivery failures are logged, never surfaced.
type NoticeStream struct {
	client redis.UniversalClient
	prefix string
	maxLen int64
	logger *slog.Logger
}

// NoticeStreamConfig groups construction parameters for NewNoticeStream.
type NoticeStreamConfig struct {
	// Prefix namespaces the streams, e.g. "notices:". The user ID is appended.
	Prefix string
	// MaxLen caps each stream (approximate trim). Oldest entries drop first.
	MaxLen int64
	Logger *slog.Logger
}

// NewNoticeStream creates a Redis stream notice sink.
func NewNoticeStream(client redis.UniversalClient, cfg NoticeStreamConfig) *NoticeStream {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "notices:"
	}
	maxLen := cfg.MaxLen
	if maxLen < 1 {
		maxLen = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NoticeStream{
		client: client,
		prefix: prefix,
		maxLen: maxLen,
		logger: logger.With("component", "notice_stream"),
	}
}

var _ ports.Notifier = (*NoticeStream)(nil)

// Notify appends the notice to the recipient's stream. Notices without a
// recipient have nowhere to land here and are skipped; the log sink still
// records them.
func (s *NoticeStream) Notify(ctx context.Context, n ports.Notice) {
	if n.UserID == "" {
		return
	}

	values := map[string]any{
		"kind":  string(n.Kind),
		"title": n.Title,
	}
	if n.Message != "" {
		values["message"] = n.Message
	}

	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.prefix + n.UserID,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		s.logger.WarnContext(ctx, "notice delivery failed",
			"user_id", n.UserID, "title", n.Title, "err", err)
	}
}
