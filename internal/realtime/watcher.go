// Package realtime connects the change feed to live client state: role
// changes refresh session trackers, and subscription filters narrow what
// each client receives.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/session"
)

// RoleWatcher consumes role-table changes and refreshes the session trackers
// registered for the affected identity, so a grant or revoke reaches live
// connections without a re-login.
type RoleWatcher struct {
	feed   ports.ChangeFeed
	logger *slog.Logger

	mu       sync.Mutex
	trackers map[string]map[*session.Tracker]struct{}
}

// NewRoleWatcher constructs a RoleWatcher.
func NewRoleWatcher(feed ports.ChangeFeed, logger *slog.Logger) *RoleWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleWatcher{
		feed:     feed,
		logger:   logger.With("component", "role_watcher"),
		trackers: make(map[string]map[*session.Tracker]struct{}),
	}
}

// Register attaches a tracker to an identity. The returned func detaches it;
// call it when the connection closes.
func (w *RoleWatcher) Register(identityID string, t *session.Tracker) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	set, ok := w.trackers[identityID]
	if !ok {
		set = make(map[*session.Tracker]struct{})
		w.trackers[identityID] = set
	}
	set[t] = struct{}{}

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if set, ok := w.trackers[identityID]; ok {
			delete(set, t)
			if len(set) == 0 {
				delete(w.trackers, identityID)
			}
		}
	}
}

// Run consumes the role change stream until the context is canceled or the
// feed closes the channel.
func (w *RoleWatcher) Run(ctx context.Context) error {
	changes, err := w.feed.Subscribe(ctx, "user_roles")
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "role watcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, open := <-changes:
			if !open {
				w.logger.InfoContext(ctx, "role change stream closed")
				return nil
			}
			w.handle(ctx, change)
		}
	}
}

func (w *RoleWatcher) handle(ctx context.Context, change ports.Change) {
	identityID, _ := change.Payload["identity_id"].(string)
	if identityID == "" {
		w.logger.WarnContext(ctx, "role change without identity_id", "op", change.Op)
		return
	}

	w.mu.Lock()
	affected := make([]*session.Tracker, 0, len(w.trackers[identityID]))
	for t := range w.trackers[identityID] {
		affected = append(affected, t)
	}
	w.mu.Unlock()

	for _, t := range affected {
		t.RefreshRole()
	}
	if len(affected) > 0 {
		w.logger.DebugContext(ctx, "refreshed trackers after role change",
			"identity_id", identityID, "count", len(affected))
	}
}
