package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/service"
)

// RoleAdminHandlers is the admin surface for granting and revoking roles.
type RoleAdminHandlers struct {
	Svc *service.RoleAdminService
}

// List handles GET /api/roles.
func (h *RoleAdminHandlers) List(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)

	roles, err := h.Svc.List(r.Context(), sess, limit, offset)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"roles": roles, "limit": limit, "offset": offset})
}

// grantRoleRequest is the body for granting a role.
type grantRoleRequest struct {
	Role string `json:"role"`
}

// Grant handles PUT /api/roles/{identityId}.
func (h *RoleAdminHandlers) Grant(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	var req grantRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	role := domainauth.Role(req.Role)
	if !role.Valid() {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_role",
			Err:     errors.New("role must be one of: user, moderator, admin"),
		})
		return
	}

	if err := h.Svc.Grant(r.Context(), sess, r.PathValue("identityId"), role); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"identity_id": r.PathValue("identityId"),
		"role":        string(role),
	})
}

// Revoke handles DELETE /api/roles/{identityId}.
func (h *RoleAdminHandlers) Revoke(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())

	if err := h.Svc.Revoke(r.Context(), sess, r.PathValue("identityId")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
