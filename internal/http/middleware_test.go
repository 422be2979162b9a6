package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	apperrors "github.com/hellforge/tradepost/internal/errors"
	"github.com/hellforge/tradepost/internal/ports"
)

// stubLoader resolves fixed session IDs for middleware tests.
type stubLoader struct {
	sessions map[string]*domainauth.Session
}

func (s *stubLoader) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, apperrors.NotFoundf("session %s not found", id)
}

func newStubLoader(role domainauth.Role) *stubLoader {
	return &stubLoader{sessions: map[string]*domainauth.Session{
		"valid": {
			ID:        "valid",
			UserID:    "u1",
			Username:  "sorc",
			Role:      role,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		if sess != nil {
			w.Header().Set("X-User", sess.UserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoCookie(t *testing.T) {
	h := RequireAuth(newStubLoader(domainauth.RoleUser))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/offers", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidSession(t *testing.T) {
	h := RequireAuth(newStubLoader(domainauth.RoleUser))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "bogus"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidSessionPutsSessionInContext(t *testing.T) {
	h := RequireAuth(newStubLoader(domainauth.RoleUser))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Header().Get("X-User"))
}

func TestRequireRole_InsufficientRole(t *testing.T) {
	h := RequireRole(newStubLoader(domainauth.RoleUser), domainauth.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_AdminSatisfiesModerator(t *testing.T) {
	h := RequireRole(newStubLoader(domainauth.RoleAdmin), domainauth.RoleModerator)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/price-checks/x", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_UnknownRoleIsForbidden(t *testing.T) {
	h := RequireRole(newStubLoader(domainauth.Role("superuser")), domainauth.RoleUser)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleBrowser_RedirectsToLogin(t *testing.T) {
	h := BrowserDetection()(RequireRoleBrowser(newStubLoader(domainauth.RoleUser), "")(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/offers?game=classic", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "/auth/login?redirect_uri=")
	assert.Contains(t, loc, "%2Foffers%3Fgame%3Dclassic")
}

func TestRequireRoleBrowser_APIRequestGetsJSON(t *testing.T) {
	h := BrowserDetection()(RequireRoleBrowser(newStubLoader(domainauth.RoleUser), "")(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRequireRoleBrowser_ForbiddenShowsAccessDenied(t *testing.T) {
	h := BrowserDetection()(RequireRoleBrowser(newStubLoader(domainauth.RoleUser), domainauth.RoleAdmin)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access Denied")
}

func TestOptionalAuth_PassesThroughUnauthenticated(t *testing.T) {
	h := OptionalAuth(newStubLoader(domainauth.RoleUser))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles/sorc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))
}

func TestIsBrowserRequest(t *testing.T) {
	api := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	api.Header.Set("Accept", "text/html")
	assert.False(t, isBrowserRequest(api))

	page := httptest.NewRequest(http.MethodGet, "/offers", nil)
	page.Header.Set("Accept", "text/html,application/xhtml+xml")
	assert.True(t, isBrowserRequest(page))

	noAccept := httptest.NewRequest(http.MethodGet, "/offers", nil)
	assert.True(t, isBrowserRequest(noAccept))

	jsonReq := httptest.NewRequest(http.MethodGet, "/offers", nil)
	jsonReq.Header.Set("Accept", "application/json")
	assert.False(t, isBrowserRequest(jsonReq))
}

func TestNoticeOnDenial_RecordsAuthenticationRequired(t *testing.T) {
	var notices []ports.Notice
	recordNotice := ports.NotifierFunc(func(_ context.Context, n ports.Notice) {
		notices = append(notices, n)
	})

	loader := newStubLoader(domainauth.RoleUser)
	h := NoticeOnDenial(recordNotice, loader)(RequireAuth(loader)(okHandler()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/offers", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, notices, 1)
	assert.Equal(t, "Authentication required", notices[0].Title)
	assert.Equal(t, ports.NoticeError, notices[0].Kind)
}

func TestNoticeOnDenial_AddressesAccessDeniedToUser(t *testing.T) {
	var notices []ports.Notice
	recordNotice := ports.NotifierFunc(func(_ context.Context, n ports.Notice) {
		notices = append(notices, n)
	})

	loader := newStubLoader(domainauth.RoleUser)
	h := NoticeOnDenial(recordNotice, loader)(RequireRole(loader, domainauth.RoleAdmin)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, notices, 1)
	assert.Equal(t, "Access denied", notices[0].Title)
	assert.Equal(t, "u1", notices[0].UserID)
}

func TestNoticeOnDenial_SilentOnAllow(t *testing.T) {
	var notices []ports.Notice
	recordNotice := ports.NotifierFunc(func(_ context.Context, n ports.Notice) {
		notices = append(notices, n)
	})

	loader := newStubLoader(domainauth.RoleAdmin)
	h := NoticeOnDenial(recordNotice, loader)(RequireRole(loader, domainauth.RoleAdmin)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, notices)
}
