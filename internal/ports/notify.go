package ports

import "context"

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// Notice is a short message surfaced to a user about something that happened
// to their account or request. UserID is empty when the notice has no
// addressable recipient (e.g. an anonymous denied request).
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message,omitempty"`
	UserID  string     `json:"user_id,omitempty"`
}

// Notifier delivers notices. Delivery is fire-and-forget: implementations
// absorb and log their own failures so callers never block on a sink.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls the wrapped function.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }
