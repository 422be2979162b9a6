package httpx

import (
	"errors"
	"net/http"

	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/service"
)

// PriceCheckHandlers provides HTTP handlers for price checks and estimates.
type PriceCheckHandlers struct {
	Svc *service.PriceCheckService
}

// Create handles POST /api/price-checks.
func (h *PriceCheckHandlers) Create(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req model.CreatePriceCheckRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	check, err := h.Svc.Create(r.Context(), sess, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, check)
}

// List handles GET /api/price-checks with q/game/status/requester_id filters.
func (h *PriceCheckHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts := model.PriceChecksListOptions{
		Q:           optionalQuery(r, "q"),
		RequesterID: optionalQuery(r, "requester_id"),
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
		status := model.PriceCheckStatus(raw)
		if !status.Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_status",
				Err:     errors.New("status must be one of: open, closed"),
			})
			return
		}
		opts.Status = &status
	}

	checks, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"price_checks": checks, "limit": opts.Limit, "offset": opts.Offset})
}

// GetByID handles GET /api/price-checks/{id}.
func (h *PriceCheckHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	check, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, check)
}

// Close handles POST /api/price-checks/{id}/close.
func (h *PriceCheckHandlers) Close(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	check, err := h.Svc.Close(r.Context(), sess, r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, check)
}

// Delete handles DELETE /api/price-checks/{id}. Moderator-only.
func (h *PriceCheckHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	if err := h.Svc.Delete(r.Context(), sess, r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEstimate handles POST /api/price-checks/{id}/estimates.
func (h *PriceCheckHandlers) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req model.CreatePriceEstimateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	estimate, err := h.Svc.Estimate(r.Context(), sess, r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, estimate)
}

// ListEstimates handles GET /api/price-checks/{id}/estimates.
func (h *PriceCheckHandlers) ListEstimates(w http.ResponseWriter, r *http.Request) {
	estimates, err := h.Svc.ListEstimates(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"estimates": estimates})
}
