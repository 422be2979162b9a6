package httpx

import (
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/observability/metrics"
	"github.com/hellforge/tradepost/internal/observability/statsd"
	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/session"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush forwards flushes so SSE streams work through the logging wrapper.
func (w *respWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Metrics returns a middleware that emits request count and latency metrics.
// A nil sink disables emission.
func Metrics(sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if sink == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			metrics.EmitRequest(sink, metrics.RequestMetric{
				Method:   r.Method,
				Status:   ww.status,
				Duration: time.Since(start),
			})
		})
	}
}

// NoticeOnDenial returns a middleware that records a user notice whenever the
// wrapped gate denies a request. It watches the response status so the gate
// middlewares stay notifier-free; each denied attempt yields exactly one notice.
func NoticeOnDenial(notifier ports.Notifier, loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if notifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			switch ww.status {
			case http.StatusUnauthorized, http.StatusSeeOther:
				notifier.Notify(r.Context(), ports.Notice{
					Kind:  ports.NoticeError,
					Title: "Authentication required",
				})
			case http.StatusForbidden:
				n := ports.Notice{
					Kind:  ports.NoticeError,
					Title: "Access denied",
				}
				if loader != nil {
					if sess := getSessionFromRequest(r, loader); sess != nil {
						n.UserID = sess.UserID
					}
				}
				notifier.Notify(r.Context(), n)
			}
		})
	}
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionLoader resolves a session ID to a live session record.
// Implemented by service.AuthService.
type SessionLoader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// getSessionFromRequest retrieves and validates a session from the request.
func getSessionFromRequest(r *http.Request, loader SessionLoader) *domainauth.Session {
	sessionCookie, err := r.Cookie("session_id")
	if err != nil {
		return nil
	}

	sess, err := loader.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		return nil
	}
	return sess
}

// snapshotFor converts a request-scoped session into an auth snapshot for
// gate evaluation. A nil session means signed out.
func snapshotFor(sess *domainauth.Session) session.Snapshot {
	if sess == nil {
		return session.Snapshot{Role: domainauth.RoleUser}
	}
	ident := sess.Identity()
	return session.Snapshot{Identity: &ident, Role: sess.Role}
}

// RequireAuth returns a middleware that requires an authenticated session and
// returns 401 JSON when missing. Intended for /api routes.
func RequireAuth(loader SessionLoader) func(http.Handler) http.Handler {
	return RequireRole(loader, "")
}

// RequireRole returns a middleware that requires the session role to satisfy
// requiredRole. Pass an empty role to require authentication only.
// Unauthenticated requests get 401, insufficient roles get 403.
func RequireRole(loader SessionLoader, requiredRole domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := getSessionFromRequest(r, loader)

			switch session.Evaluate(snapshotFor(sess), requiredRole) {
			case session.DecisionLoginRedirect:
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			case session.DecisionForbiddenRedirect:
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			case session.DecisionLoading:
				// Request-scoped sessions are never mid-resolution; treat as unauthenticated.
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			case session.DecisionAllow:
			}

			ctx := SetSessionInContext(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns a middleware that adds the session to the request
// context when present and lets unauthenticated requests through.
func OptionalAuth(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := getSessionFromRequest(r, loader); sess != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that flags browser requests vs API
// requests so auth failures can redirect instead of returning JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest: API routes are never browser requests; otherwise an
// Accept header preferring HTML (or no Accept header at all) means browser.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// RequireRoleBrowser returns a role middleware with browser-aware failure modes.
// API requests get 401/403 JSON; browser requests get a login redirect or an
// access-denied page.
func RequireRoleBrowser(loader SessionLoader, requiredRole domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := getSessionFromRequest(r, loader)

			switch session.Evaluate(snapshotFor(sess), requiredRole) {
			case session.DecisionLoginRedirect, session.DecisionLoading:
				if IsBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			case session.DecisionForbiddenRedirect:
				if IsBrowserRequest(r) {
					showAccessDenied(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			case session.DecisionAllow:
			}

			ctx := SetSessionInContext(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthBrowser returns an auth middleware with browser-aware failure modes.
func RequireAuthBrowser(loader SessionLoader) func(http.Handler) http.Handler {
	return RequireRoleBrowser(loader, "")
}

// redirectToLogin redirects browser requests to the login page with the
// current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	loginURL := "/auth/login?redirect_uri=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

// showAccessDenied shows an access denied page for browser requests.
func showAccessDenied(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Access Denied: You don't have permission to access this resource", http.StatusForbidden)
}

// gzipWriterPool reuses gzip writers across requests.
var gzipWriterPool = sync.Pool{ //nolint:gochecknoglobals // writer reuse across requests
	New: func() any { return gzip.NewWriter(nil) },
}

var compressibleTypes = map[string]bool{ //nolint:gochecknoglobals // static read-only lookup
	"text/html":              true,
	"text/plain":             true,
	"text/css":               true,
	"application/javascript": true,
	"application/json":       true,
	"image/svg+xml":          true,
}

// Compression returns a middleware that gzips responses for clients that
// accept it. Event streams are passed through untouched so flushes reach the
// client immediately.
func Compression(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") ||
				r.Method == http.MethodHead ||
				strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gw := &gzipResponseWriter{ResponseWriter: w}
			next.ServeHTTP(gw, r)
			if gw.gz != nil {
				if err := gw.gz.Close(); err != nil {
					logger.ErrorContext(r.Context(), "closing gzip writer failed", "error", err)
				}
				gzipWriterPool.Put(gw.gz)
			}
		})
	}
}

// gzipResponseWriter compresses the body when the content type qualifies,
// deciding at WriteHeader time.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz            *gzip.Writer
	headerWritten bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.headerWritten = true

	ct := w.Header().Get("Content-Type")
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	noBody := statusCode < 200 || statusCode == http.StatusNoContent || statusCode == http.StatusNotModified
	if !noBody && w.Header().Get("Content-Encoding") == "" && compressibleTypes[strings.TrimSpace(ct)] {
		gz, _ := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(w.ResponseWriter)
		w.gz = gz
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher for streaming support.
func (w *gzipResponseWriter) Flush() {
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
