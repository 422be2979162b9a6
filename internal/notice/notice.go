// Package notice provides user-notice sinks and fan-out composition.
// The slog sink is always wired; deployment-specific sinks (the Redis
// per-user stream) are added through Fanout.
package notice

import (
	"context"
	"log/slog"

	"github.com/hellforge/tradepost/internal/ports"
)

// Log returns a notifier that records every notice on the structured log.
func Log(logger *slog.Logger) ports.Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return ports.NotifierFunc(func(ctx context.Context, n ports.Notice) {
		attrs := []any{
			"kind", string(n.Kind),
			"title", n.Title,
		}
		if n.Message != "" {
			attrs = append(attrs, "message", n.Message)
		}
		if n.UserID != "" {
			attrs = append(attrs, "user_id", n.UserID)
		}
		if n.Kind == ports.NoticeError {
			logger.WarnContext(ctx, "notice", attrs...)
			return
		}
		logger.InfoContext(ctx, "notice", attrs...)
	})
}

// Fanout returns a notifier that delivers each notice to every sink in order.
// Nil sinks are skipped.
func Fanout(sinks ...ports.Notifier) ports.Notifier {
	active := make([]ports.Notifier, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return ports.NotifierFunc(func(ctx context.Context, n ports.Notice) {
		for _, s := range active {
			s.Notify(ctx, n)
		}
	})
}
