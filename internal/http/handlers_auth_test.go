package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/service"
)

// stubAuthService is a hand-rolled AuthServiceInterface double.
type stubAuthService struct {
	beginResult   *service.BeginLoginResult
	beginErr      error
	completeSess  *domainauth.Session
	completeErr   error
	passwordSess  *domainauth.Session
	passwordErr   error
	getSess       *domainauth.Session
	getErr        error
	refreshSess   *domainauth.Session
	refreshErr    error
	logoutErr     error
	logoutCalled  string
	completeInput service.CompleteLoginInput
}

func (s *stubAuthService) BeginLogin(context.Context, string) (*service.BeginLoginResult, error) {
	return s.beginResult, s.beginErr
}

func (s *stubAuthService) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*domainauth.Session, error) {
	s.completeInput = in
	return s.completeSess, s.completeErr
}

func (s *stubAuthService) PasswordLogin(context.Context, string, string) (*domainauth.Session, error) {
	return s.passwordSess, s.passwordErr
}

func (s *stubAuthService) GetSession(context.Context, string) (*domainauth.Session, error) {
	return s.getSess, s.getErr
}

func (s *stubAuthService) RefreshRole(context.Context, string) (*domainauth.Session, error) {
	return s.refreshSess, s.refreshErr
}

func (s *stubAuthService) Logout(_ context.Context, sessionID string) error {
	s.logoutCalled = sessionID
	return s.logoutErr
}

func testSession(role domainauth.Role) *domainauth.Session {
	return &domainauth.Session{
		ID:        "sess-1",
		UserID:    "u1",
		Username:  "sorc",
		Email:     "sorc@example.com",
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_SetsOAuthCookiesAndRedirects(t *testing.T) {
	svc := &stubAuthService{beginResult: &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/auth?state=abc",
		State:   "abc",
		Nonce:   "def",
	}}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/offers", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/auth?state=abc", rec.Header().Get("Location"))

	state := cookieByName(t, rec, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, "abc", state.Value)
	assert.True(t, state.HttpOnly)

	nonce := cookieByName(t, rec, "oauth_nonce")
	require.NotNil(t, nonce)
	assert.Equal(t, "def", nonce.Value)

	redirect := cookieByName(t, rec, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/offers", redirect.Value)
}

func TestLogin_RejectsAbsoluteRedirect(t *testing.T) {
	svc := &stubAuthService{beginResult: &service.BeginLoginResult{AuthURL: "https://idp/auth"}}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example.com/", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	redirect := cookieByName(t, rec, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/", redirect.Value)
}

func TestCallback_CompletesLoginAndSetsSessionCookie(t *testing.T) {
	svc := &stubAuthService{completeSess: testSession(domainauth.RoleUser)}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=xyz&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "def"})
	req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/offers"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/offers", rec.Header().Get("Location"))
	assert.Equal(t, service.CompleteLoginInput{Code: "xyz", State: "abc", Nonce: "def"}, svc.completeInput)

	sessCookie := cookieByName(t, rec, "session_id")
	require.NotNil(t, sessCookie)
	assert.Equal(t, "sess-1", sessCookie.Value)
	assert.True(t, sessCookie.HttpOnly)

	// Temporary OAuth cookies are cleared.
	state := cookieByName(t, rec, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, -1, state.MaxAge)
}

func TestCallback_StateMismatch(t *testing.T) {
	h := &AuthHandlers{Svc: &stubAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=xyz&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "different"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
}

func TestCallback_MissingCode(t *testing.T) {
	h := &AuthHandlers{Svc: &stubAuthService{}}

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_code")
}

func TestPasswordLogin(t *testing.T) {
	svc := &stubAuthService{passwordSess: testSession(domainauth.RoleUser)}
	h := &AuthHandlers{Svc: svc}

	body := strings.NewReader(`{"email":"sorc@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/password-login", body)
	rec := httptest.NewRecorder()
	h.PasswordLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sessCookie := cookieByName(t, rec, "session_id")
	require.NotNil(t, sessCookie)
	assert.Equal(t, "sess-1", sessCookie.Value)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestPasswordLogin_BadCredentials(t *testing.T) {
	svc := &stubAuthService{passwordErr: errors.New("invalid credentials")}
	h := &AuthHandlers{Svc: svc}

	body := strings.NewReader(`{"email":"sorc@example.com","password":"wrong"}`)
	rec := httptest.NewRecorder()
	h.PasswordLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/password-login", body))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
	assert.Nil(t, cookieByName(t, rec, "session_id"))
}

func TestLogout_FailureKeepsCookie(t *testing.T) {
	svc := &stubAuthService{logoutErr: errors.New("redis down")}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	// Server-side deletion failed: no cookie mutation, client may retry.
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Nil(t, cookieByName(t, rec, "session_id"))
	assert.Equal(t, "sess-1", svc.logoutCalled)
}

func TestLogout_SuccessClearsCookie(t *testing.T) {
	svc := &stubAuthService{}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieByName(t, rec, "session_id")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestLogout_NoCookieIsNoop(t *testing.T) {
	svc := &stubAuthService{}
	h := &AuthHandlers{Svc: svc}

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.logoutCalled)
}

func TestStatus(t *testing.T) {
	svc := &stubAuthService{getSess: testSession(domainauth.RoleModerator)}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	assert.Contains(t, rec.Body.String(), `"role":"moderator"`)
}

func TestStatus_ExpiredSessionClearsCookie(t *testing.T) {
	svc := &stubAuthService{getErr: errors.New("session expired")}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	cleared := cookieByName(t, rec, "session_id")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestRefreshRole(t *testing.T) {
	svc := &stubAuthService{refreshSess: testSession(domainauth.RoleModerator)}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh-role", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.RefreshRole(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"moderator"`)
}
