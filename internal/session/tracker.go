// Package session tracks live authentication state for long-lived
// connections. A Tracker serializes auth-state changes through a single
// consumer goroutine, resolves roles asynchronously, and guarantees that
// readers never observe the result of a stale role lookup after a newer
// auth event has been accepted.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
)

// Snapshot is the immutable auth state visible to readers. Identity is nil
// when no user is signed in. Loading is true from the moment an identity is
// accepted until its role lookup lands (or the identity is replaced).
type Snapshot struct {
	Identity *domainauth.Identity
	Role     domainauth.Role
	Loading  bool
}

// SignedIn reports whether the snapshot carries an authenticated identity.
func (s Snapshot) SignedIn() bool { return s.Identity != nil }

// RoleResolver resolves an identity ID into a role. Implemented by
// service.RoleResolver; ambiguity collapses to the user role there.
type RoleResolver interface {
	Resolve(ctx context.Context, identityID string) domainauth.Role
}

type eventKind int

const (
	eventIdentity eventKind = iota
	eventSignOut
	eventRefresh
)

type event struct {
	kind     eventKind
	identity *domainauth.Identity
}

// Tracker owns the auth snapshot for one connection. Readers call Snapshot
// lock-free; writers enqueue events which a single goroutine applies in
// order. Each accepted event bumps a sequence number; an in-flight role
// lookup commits only while its sequence is still the latest, so out-of-order
// lookup completions can never clobber newer state.
type Tracker struct {
	resolver RoleResolver
	logger   *slog.Logger

	snap atomic.Pointer[Snapshot]

	mu           sync.Mutex
	seq          uint64
	alive        bool
	listeners    map[int]chan Snapshot
	nextListener int

	events   chan event
	done     chan struct{}
	stopOnce sync.Once
}

// NewTracker constructs a Tracker. The snapshot starts in the loading state
// until the owner reports the initial identity (or its absence).
func NewTracker(resolver RoleResolver, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		resolver:  resolver,
		logger:    logger.With("component", "session_tracker"),
		listeners: make(map[int]chan Snapshot),
		events:    make(chan event, 16),
		done:      make(chan struct{}),
	}
	t.snap.Store(&Snapshot{Loading: true})
	return t
}

// Start launches the consumer goroutine. It must be called exactly once;
// events enqueued before Start are processed after it.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	t.alive = true
	t.mu.Unlock()
	go t.run(ctx)
}

// Stop tears the tracker down: in-flight role lookups are discarded, the
// snapshot resolves to a signed-out, non-loading state, and subscriber
// channels are closed. Safe to call multiple times.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.alive = false
		t.seq++
		final := &Snapshot{Role: domainauth.RoleUser, Loading: false}
		t.snap.Store(final)
		for id, ch := range t.listeners {
			close(ch)
			delete(t.listeners, id)
		}
		t.mu.Unlock()
		close(t.done)
	})
}

// Snapshot returns the current auth state. Never blocks.
func (t *Tracker) Snapshot() Snapshot {
	return *t.snap.Load()
}

// SetIdentity reports a sign-in (non-nil) or sign-out (nil) observed by the
// owner. Ordering between callers is decided by arrival on the event channel.
func (t *Tracker) SetIdentity(ident *domainauth.Identity) {
	if ident == nil {
		t.send(event{kind: eventSignOut})
		return
	}
	cp := *ident
	t.send(event{kind: eventIdentity, identity: &cp})
}

// RefreshRole re-resolves the role for the current identity. No-op when
// signed out.
func (t *Tracker) RefreshRole() {
	t.send(event{kind: eventRefresh})
}

// SignOut runs revoke (typically the server-side session deletion) and only
// transitions to the signed-out state when it succeeds. On failure the
// snapshot is left untouched and the error is returned to the caller.
func (t *Tracker) SignOut(ctx context.Context, revoke func(context.Context) error) error {
	if revoke != nil {
		if err := revoke(ctx); err != nil {
			return err
		}
	}
	t.send(event{kind: eventSignOut})
	return nil
}

// Subscribe returns a channel receiving every applied snapshot and a cancel
// function. Slow subscribers have intermediate snapshots dropped rather than
// blocking the tracker. The channel closes on cancel or Stop.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Snapshot, 8)
	if !t.alive {
		close(ch)
		return ch, func() {}
	}
	id := t.nextListener
	t.nextListener++
	t.listeners[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.listeners[id]; ok {
			close(c)
			delete(t.listeners, id)
		}
	}
	return ch, cancel
}

func (t *Tracker) send(ev event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func (t *Tracker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.done:
			return
		case ev := <-t.events:
			t.handle(ctx, ev)
		}
	}
}

func (t *Tracker) handle(ctx context.Context, ev event) {
	t.mu.Lock()
	if !t.alive {
		t.mu.Unlock()
		return
	}
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	switch ev.kind {
	case eventSignOut:
		// Signed-out state is final for this sequence: no lookup, not loading.
		t.applyIfCurrent(seq, Snapshot{Role: domainauth.RoleUser, Loading: false})

	case eventIdentity:
		// Publish the identity immediately with the role pending, then
		// resolve off the consumer goroutine so a slow lookup cannot delay
		// later events.
		t.applyIfCurrent(seq, Snapshot{Identity: ev.identity, Loading: true})
		go t.resolve(ctx, seq, ev.identity)

	case eventRefresh:
		cur := t.Snapshot()
		if cur.Identity == nil {
			// Nothing to refresh. The snapshot stays exactly as it was;
			// the seq bump alone invalidates any lookup still in flight.
			return
		}
		t.applyIfCurrent(seq, Snapshot{Identity: cur.Identity, Role: cur.Role, Loading: true})
		go t.resolve(ctx, seq, cur.Identity)
	}
}

func (t *Tracker) resolve(ctx context.Context, seq uint64, ident *domainauth.Identity) {
	role := t.resolver.Resolve(ctx, ident.UserID)
	if !t.applyIfCurrent(seq, Snapshot{Identity: ident, Role: role, Loading: false}) {
		t.logger.DebugContext(ctx, "discarding stale role lookup",
			"identity_id", ident.UserID, "seq", seq)
	}
}

// applyIfCurrent commits a snapshot only while seq is still the latest
// accepted sequence and the tracker is alive. This is the last-write-wins
// guarantee: a lookup completion tagged with an old sequence is dropped.
func (t *Tracker) applyIfCurrent(seq uint64, snap Snapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.alive || seq != t.seq {
		return false
	}
	t.snap.Store(&snap)
	for _, ch := range t.listeners {
		select {
		case ch <- snap:
		default:
			// subscriber is behind; it will catch up on the next snapshot
		}
	}
	return true
}
