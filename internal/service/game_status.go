package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/observability/notify"
	"github.com/hellforge/tradepost/internal/ports"
)

// GameStatusRepo is the persistence surface the service needs.
// Implemented by data.GameStatusRepo.
type GameStatusRepo interface {
	Upsert(ctx context.Context, req *model.UpdateGameStatusRequest) (*model.GameStatus, error)
	Get(ctx context.Context, game model.Game) (*model.GameStatus, error)
	List(ctx context.Context) ([]*model.GameStatus, error)
}

// GameStatusService records webhook status updates, fans them out over the
// change feed for the live status stream, and notifies operators when a
// server changes state.
type GameStatusService struct {
	repo     GameStatusRepo
	feed     ports.ChangeFeed
	notifier notify.Sink
	logger   *slog.Logger
}

// NewGameStatusService constructs a GameStatusService. feed and notifier
// may be nil.
func NewGameStatusService(repo GameStatusRepo, feed ports.ChangeFeed, logger *slog.Logger) *GameStatusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameStatusService{repo: repo, feed: feed, logger: logger.With("component", "game_status")}
}

// WithNotifier attaches a status change notification sink.
func (s *GameStatusService) WithNotifier(sink notify.Sink) *GameStatusService {
	s.notifier = sink
	return s
}

// Update applies a webhook status update and publishes the change. The write
// succeeds even when fan-out or notification delivery fails.
func (s *GameStatusService) Update(ctx context.Context, req *model.UpdateGameStatusRequest) (*model.GameStatus, error) {
	var prevState model.ServerState
	if prev, err := s.repo.Get(ctx, req.Game); err == nil {
		prevState = prev.State
	}

	status, err := s.repo.Upsert(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.feed != nil {
		change := ports.Change{
			Table: "game_status",
			Op:    "update",
			Payload: map[string]any{
				"game":  string(status.Game),
				"state": string(status.State),
			},
		}
		if publishErr := s.feed.Publish(ctx, change); publishErr != nil {
			s.logger.WarnContext(ctx, "change feed publish failed", "err", publishErr)
		}
	}

	if s.notifier != nil && status.State != prevState {
		var message string
		if status.Message != nil {
			message = *status.Message
		}
		payload := notify.StatusChangePayload{
			Game:       string(status.Game),
			State:      string(status.State),
			PrevState:  string(prevState),
			Message:    message,
			OccurredAt: time.Now(),
		}
		if notifyErr := s.notifier.SendStatusChange(ctx, payload); notifyErr != nil {
			s.logger.WarnContext(ctx, "status change notification failed",
				"game", payload.Game, "err", notifyErr)
		}
	}

	return status, nil
}

// Get returns the status row for one game.
func (s *GameStatusService) Get(ctx context.Context, game model.Game) (*model.GameStatus, error) {
	return s.repo.Get(ctx, game)
}

// List returns status rows for all reporting games.
func (s *GameStatusService) List(ctx context.Context) ([]*model.GameStatus, error) {
	return s.repo.List(ctx)
}
