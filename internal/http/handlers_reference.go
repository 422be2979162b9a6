package httpx

import (
	"errors"
	"net/http"

	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/service"
)

const (
	defaultReferenceLimit = 100
	maxReferenceLimit     = 500
)

// ReferenceHandlers serves the read-only item and runeword reference database.
// All endpoints are public; imports happen through the admin CLI.
type ReferenceHandlers struct {
	Svc *service.ReferenceService
}

func referenceListOptions(w http.ResponseWriter, r *http.Request) (model.ReferenceListOptions, bool) {
	opts := model.ReferenceListOptions{
		Q:        optionalQuery(r, "q"),
		Category: optionalQuery(r, "category"),
	}
	opts.Limit, opts.Offset = ParseLimitOffset(r, defaultReferenceLimit, maxReferenceLimit)

	if raw := r.URL.Query().Get("game"); raw != "" {
		game, ok := model.ParseGame(raw)
		if !ok {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_game",
				Err:     errors.New("game must be one of: resurrected, classic"),
			})
			return opts, false
		}
		opts.Game = &game
	}
	return opts, true
}

// ListItems handles GET /api/reference/items.
func (h *ReferenceHandlers) ListItems(w http.ResponseWriter, r *http.Request) {
	opts, ok := referenceListOptions(w, r)
	if !ok {
		return
	}

	items, err := h.Svc.ListItems(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": opts.Limit, "offset": opts.Offset})
}

// GetItem handles GET /api/reference/items/{id}.
func (h *ReferenceHandlers) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Svc.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// ListRunewords handles GET /api/reference/runewords.
func (h *ReferenceHandlers) ListRunewords(w http.ResponseWriter, r *http.Request) {
	opts, ok := referenceListOptions(w, r)
	if !ok {
		return
	}

	runewords, err := h.Svc.ListRunewords(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"runewords": runewords, "limit": opts.Limit, "offset": opts.Offset})
}

// GetRuneword handles GET /api/reference/runewords/{id}.
func (h *ReferenceHandlers) GetRuneword(w http.ResponseWriter, r *http.Request) {
	runeword, err := h.Svc.GetRuneword(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, runeword)
}
