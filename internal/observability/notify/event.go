package notify

import (
	"context"
	"time"
)

// StatusChangePayload is the canonical data emitted when a game server
// transitions between states.
type StatusChangePayload struct {
	Game       string
	State      string
	PrevState  string
	Message    string
	OccurredAt time.Time
}

// Sink describes a destination capable of consuming status change
// notifications.
type Sink interface {
	SendStatusChange(ctx context.Context, payload StatusChangePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload StatusChangePayload) error

// SendStatusChange implements the Sink interface.
func (f SinkFunc) SendStatusChange(ctx context.Context, payload StatusChangePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
