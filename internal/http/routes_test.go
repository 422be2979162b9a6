package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockauth "github.com/hellforge/tradepost/internal/mocks/auth"
	"github.com/hellforge/tradepost/internal/service"
)

func newAuthedRouter() http.Handler {
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider: mockauth.NewMockAuthProvider(),
		Sessions: mockauth.NewMemorySessionStore(),
		Roles:    service.NewRoleResolver(mockauth.NewMemoryRoleStore(nil), nil),
	})
	return NewRouter(RouterServices{Auth: svc})
}

func TestRouter_SignedOutBrowserRedirectsToLogin(t *testing.T) {
	router := newAuthedRouter()

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "/auth/login?redirect_uri=")
	assert.Contains(t, loc, "%2Faccount")
}

func TestRouter_SignedOutAPIRequestGetsJSON(t *testing.T) {
	router := newAuthedRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
