package httpx

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/observability/metrics"
	"github.com/hellforge/tradepost/internal/observability/statsd"
	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/realtime"
	"github.com/hellforge/tradepost/internal/service"
	"github.com/hellforge/tradepost/internal/session"
)

// GameStatusHandlers serves live game status: current rows, the SSE stream,
// and the inbound status webhook.
type GameStatusHandlers struct {
	Svc *service.GameStatusService

	// Feed drives the SSE stream. Nil disables streaming.
	Feed ports.ChangeFeed

	// Watcher refreshes per-connection session trackers when roles change.
	// Optional; signed-in stream clients only get live role events when both
	// Watcher and Roles are wired.
	Watcher *realtime.RoleWatcher

	// Roles resolves identity roles for stream trackers. Optional.
	Roles session.RoleResolver

	// Metrics receives the connected-clients gauge. Optional.
	Metrics statsd.Sink

	// WebhookAPIKey authenticates status webhook calls. Empty disables the webhook.
	WebhookAPIKey string

	// KeepAlive is the interval between SSE keep-alive comments.
	KeepAlive time.Duration

	Logger *slog.Logger

	streamClients atomic.Int64
}

func (h *GameStatusHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// List handles GET /api/game-status.
func (h *GameStatusHandlers) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Svc.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

// Get handles GET /api/game-status/{game}.
func (h *GameStatusHandlers) Get(w http.ResponseWriter, r *http.Request) {
	game, ok := model.ParseGame(r.PathValue("game"))
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_game",
			Err:     errors.New("game must be one of: resurrected, classic"),
		})
		return
	}

	status, err := h.Svc.Get(r.Context(), game)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// Webhook handles POST /api/webhooks/game-status. Callers authenticate with
// the X-Api-Key header; comparison is constant-time.
func (h *GameStatusHandlers) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.WebhookAPIKey == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "webhook_disabled",
			Err:     errors.New("status webhook is not configured"),
		})
		return
	}
	key := r.Header.Get("X-Api-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.WebhookAPIKey)) != 1 {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_api_key",
			Err:     errors.New("invalid API key"),
		})
		return
	}

	var req model.UpdateGameStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	status, err := h.Svc.Update(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// Stream handles GET /api/game-status/stream as Server-Sent Events. The
// client gets the current snapshot first, then one event per status change,
// with periodic keep-alive comments to hold the connection open through
// proxies. A `filter` query parameter narrows status events with a JMESPath
// expression over the change envelope; signed-in clients additionally get
// `role` events whenever a grant or revoke lands mid-stream.
func (h *GameStatusHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "streaming_disabled",
			Err:     errors.New("status streaming is not configured"),
		})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "streaming_unsupported",
			Err:     errors.New("response writer does not support streaming"),
		})
		return
	}

	filter, err := realtime.NewFilter(r.URL.Query().Get("filter"))
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_filter",
			Err:     err,
		})
		return
	}

	ctx := r.Context()
	changes, err := realtime.Subscribe(ctx, h.Feed, "game_status", filter)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	// A signed-in client gets a tracker for the lifetime of the connection,
	// registered with the role watcher so grants and revokes reach the
	// stream without a re-login.
	var auth <-chan session.Snapshot
	if sess := GetSessionFromContext(ctx); sess != nil && h.Watcher != nil && h.Roles != nil {
		tracker := session.NewTracker(h.Roles, h.logger())
		tracker.Start(ctx)
		defer tracker.Stop()

		unregister := h.Watcher.Register(sess.UserID, tracker)
		defer unregister()

		snapshots, cancel := tracker.Subscribe()
		defer cancel()
		auth = snapshots

		ident := sess.Identity()
		tracker.SetIdentity(&ident)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	metrics.EmitStreamClients(h.Metrics, int(h.streamClients.Add(1)))
	defer func() {
		metrics.EmitStreamClients(h.Metrics, int(h.streamClients.Add(-1)))
	}()

	// Initial snapshot so clients render immediately.
	if statuses, listErr := h.Svc.List(ctx); listErr == nil {
		writeSSE(w, "snapshot", map[string]any{"statuses": statuses})
	} else {
		h.logger().WarnContext(ctx, "initial status snapshot failed", "err", listErr)
	}
	flusher.Flush()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change, open := <-changes:
			if !open {
				return
			}
			writeSSE(w, "status", change.Payload)
			flusher.Flush()
		case snap, open := <-auth:
			if !open {
				auth = nil
				continue
			}
			if snap.Loading {
				continue
			}
			writeSSE(w, "role", map[string]any{
				"signed_in": snap.SignedIn(),
				"role":      snap.Role,
			})
			flusher.Flush()
		case <-ticker.C:
			// Comment line per the SSE spec; ignored by clients.
			if _, writeErr := w.Write([]byte(": keep-alive\n\n")); writeErr != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n"))
}
