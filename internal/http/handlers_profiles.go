package httpx

import (
	"net/http"

	"github.com/hellforge/tradepost/internal/domain/model"
	"github.com/hellforge/tradepost/internal/service"
)

// ProfileHandlers serves public profiles and self-service profile edits.
type ProfileHandlers struct {
	Svc *service.ProfileService
}

// Me handles GET /api/profiles/me.
func (h *ProfileHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	profile, err := h.Svc.GetOwn(r.Context(), sess)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/profiles/me.
func (h *ProfileHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req model.UpdateProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	profile, err := h.Svc.UpdateOwn(r.Context(), sess, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// GetByUsername handles GET /api/profiles/{username}. Public; email is
// stripped from the response unless the viewer is looking at themselves.
func (h *ProfileHandlers) GetByUsername(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	if sess := GetSessionFromContext(r.Context()); sess == nil || sess.UserID != profile.IdentityID {
		profile.Email = ""
	}
	WriteJSON(w, http.StatusOK, profile)
}
