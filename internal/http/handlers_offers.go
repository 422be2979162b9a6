package httpx

import (
	"errors"
	"net/http"

	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/service"
)

const (
	defaultListLimit = 25
	maxListLimit     = 100
)

// TradeOfferHandlers provides HTTP handlers for trade offers and counter-offers.
type TradeOfferHandlers struct {
	Svc *service.TradeOfferService
}

// Create handles POST /api/offers.
func (h *TradeOfferHandlers) Create(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req model.CreateTradeOfferRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	offer, err := h.Svc.Create(r.Context(), sess, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, offer)
}

// List handles GET /api/offers with q/game/status/owner_id filters.
func (h *TradeOfferHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts := model.TradeOffersListOptions{
		Q:       optionalQuery(r, "q"),
		OwnerID: optionalQuery(r, "owner_id"),
	}
	opts.Limit, opts.Offset = ParseLimitOffset(r, defaultListLimit, maxListLimit)

	if raw := r.URL.Query().Get("game"); raw != "" {
		game, ok := model.ParseGame(raw)
		if !ok {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_game",
				Err:     errors.New("game must be one of: resurrected, classic"),
			})
			return
		}
		opts.Game = &game
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := model.ParseTradeOfferStatus(raw)
		if !ok {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_status",
				Err:     errors.New("status must be one of: open, pending, completed, cancelled"),
			})
			return
		}
		opts.Status = &status
	}

	offers, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"offers": offers, "limit": opts.Limit, "offset": opts.Offset})
}

// GetByID handles GET /api/offers/{id}.
func (h *TradeOfferHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, offer)
}

// Update handles PUT /api/offers/{id}.
func (h *TradeOfferHandlers) Update(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req model.UpdateTradeOfferRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	offer, err := h.Svc.Update(r.Context(), sess, r.PathValue("id"), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, offer)
}

// Delete handles DELETE /api/offers/{id}.
func (h *TradeOfferHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	if err := h.Svc.Delete(r.Context(), sess, r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCounter handles POST /api/offers/{id}/counters.
func (h *TradeOfferHandlers) CreateCounter(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req model.CreateCounterOfferRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	counter, err := h.Svc.Counter(r.Context(), sess, r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, counter)
}

// ListCounters handles GET /api/offers/{id}/counters.
func (h *TradeOfferHandlers) ListCounters(w http.ResponseWriter, r *http.Request) {
	counters, err := h.Svc.ListCounters(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"counter_offers": counters})
}

// respondCounterRequest is the body for accepting or declining a counter-offer.
type respondCounterRequest struct {
	Accept bool `json:"accept"`
}

// RespondCounter handles POST /api/counters/{id}/respond.
func (h *TradeOfferHandlers) RespondCounter(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req respondCounterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	counter, err := h.Svc.RespondToCounter(r.Context(), sess, r.PathValue("id"), req.Accept)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, counter)
}
