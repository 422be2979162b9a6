package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	"github.com/hellforge/tradepost/internal/observability/statsd"
	"github.com/hellforge/tradepost/internal/ports"
	"github.com/hellforge/tradepost/internal/realtime"
	"github.com/hellforge/tradepost/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth        *service.AuthService
	TradeOffers *service.TradeOfferService
	PriceChecks *service.PriceCheckService
	Reference   *service.ReferenceService
	Profiles    *service.ProfileService
	RoleAdmin   *service.RoleAdminService
	GameStatus  *service.GameStatusService

	// Feed drives the game-status SSE stream. Optional.
	Feed ports.ChangeFeed

	// Watcher refreshes stream trackers when roles change. Optional.
	Watcher *realtime.RoleWatcher

	// Roles resolves identity roles for stream trackers. Optional.
	Roles *service.RoleResolver

	// Metrics receives request count and latency metrics. Optional.
	Metrics statsd.Sink

	// Notices receives user notices for gate denials. Optional.
	Notices ports.Notifier

	// Configuration
	CookieDomain     string
	OAuthRedirectURL string
	WebhookAPIKey    string
	SSEKeepAlive     time.Duration
	Logger           *slog.Logger
}

// NewRouter creates and configures the HTTP router with logging, panic
// recovery, compression, and browser detection applied to every route.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		RedirectURL:  services.OAuthRedirectURL,
		Logger:       logger,
	}
	offerHandlers := &TradeOfferHandlers{Svc: services.TradeOffers}
	priceCheckHandlers := &PriceCheckHandlers{Svc: services.PriceChecks}
	referenceHandlers := &ReferenceHandlers{Svc: services.Reference}
	profileHandlers := &ProfileHandlers{Svc: services.Profiles}
	roleHandlers := &RoleAdminHandlers{Svc: services.RoleAdmin}
	statusHandlers := &GameStatusHandlers{
		Svc:           services.GameStatus,
		Feed:          services.Feed,
		Watcher:       services.Watcher,
		Metrics:       services.Metrics,
		WebhookAPIKey: services.WebhookAPIKey,
		KeepAlive:     services.SSEKeepAlive,
		Logger:        logger,
	}
	if services.Roles != nil {
		statusHandlers.Roles = services.Roles
	}

	mw := routeMiddleware{auth: services.Auth, notices: services.Notices}

	registerAuthRoutes(mux, authHandlers)
	registerOfferRoutes(mux, offerHandlers, mw)
	registerPriceCheckRoutes(mux, priceCheckHandlers, mw)
	registerReferenceRoutes(mux, referenceHandlers)
	registerProfileRoutes(mux, profileHandlers, mw)
	registerRoleRoutes(mux, roleHandlers, mw)
	registerGameStatusRoutes(mux, statusHandlers, mw)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	var handler http.Handler = mux
	handler = BrowserDetection()(handler)
	handler = Compression(logger)(handler)
	handler = Recover(logger)(handler)
	handler = Metrics(services.Metrics)(handler)
	handler = Logging(logger)(handler)
	return handler
}

// routeMiddleware builds nil-safe auth wrappers around route handlers. When
// auth is not wired (tests, tooling), routes are left open.
type routeMiddleware struct {
	auth    *service.AuthService
	notices ports.Notifier
}

func (m routeMiddleware) requireAuth(h http.HandlerFunc) http.Handler {
	if m.auth == nil {
		return h
	}
	return NoticeOnDenial(m.notices, m.auth)(RequireAuthBrowser(m.auth)(h))
}

func (m routeMiddleware) requireRole(role domainauth.Role, h http.HandlerFunc) http.Handler {
	if m.auth == nil {
		return h
	}
	return NoticeOnDenial(m.notices, m.auth)(RequireRoleBrowser(m.auth, role)(h))
}

func (m routeMiddleware) optionalAuth(h http.HandlerFunc) http.Handler {
	if m.auth == nil {
		return h
	}
	return OptionalAuth(m.auth)(h)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/password-login", h.PasswordLogin)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/refresh-role", h.RefreshRole)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerOfferRoutes(mux *http.ServeMux, h *TradeOfferHandlers, mw routeMiddleware) {
	// Browsing is public; mutations need a signed-in user.
	mux.HandleFunc("GET /api/offers", h.List)
	mux.HandleFunc("GET /api/offers/{id}", h.GetByID)
	mux.HandleFunc("GET /api/offers/{id}/counters", h.ListCounters)

	mux.Handle("POST /api/offers", mw.requireAuth(h.Create))
	mux.Handle("PUT /api/offers/{id}", mw.requireAuth(h.Update))
	mux.Handle("DELETE /api/offers/{id}", mw.requireAuth(h.Delete))
	mux.Handle("POST /api/offers/{id}/counters", mw.requireAuth(h.CreateCounter))
	mux.Handle("POST /api/counters/{id}/respond", mw.requireAuth(h.RespondCounter))
}

func registerPriceCheckRoutes(mux *http.ServeMux, h *PriceCheckHandlers, mw routeMiddleware) {
	mux.HandleFunc("GET /api/price-checks", h.List)
	mux.HandleFunc("GET /api/price-checks/{id}", h.GetByID)
	mux.HandleFunc("GET /api/price-checks/{id}/estimates", h.ListEstimates)

	mux.Handle("POST /api/price-checks", mw.requireAuth(h.Create))
	mux.Handle("POST /api/price-checks/{id}/close", mw.requireAuth(h.Close))
	mux.Handle("POST /api/price-checks/{id}/estimates", mw.requireAuth(h.CreateEstimate))
	mux.Handle("DELETE /api/price-checks/{id}", mw.requireRole(domainauth.RoleModerator, h.Delete))
}

func registerReferenceRoutes(mux *http.ServeMux, h *ReferenceHandlers) {
	mux.HandleFunc("GET /api/reference/items", h.ListItems)
	mux.HandleFunc("GET /api/reference/items/{id}", h.GetItem)
	mux.HandleFunc("GET /api/reference/runewords", h.ListRunewords)
	mux.HandleFunc("GET /api/reference/runewords/{id}", h.GetRuneword)
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers, mw routeMiddleware) {
	mux.Handle("GET /api/profiles/me", mw.requireAuth(h.Me))
	mux.Handle("PUT /api/profiles/me", mw.requireAuth(h.UpdateMe))
	mux.Handle("GET /api/profiles/{username}", mw.optionalAuth(h.GetByUsername))

	// Browser-facing account page. A signed-out browser is sent to the login
	// page with the original location preserved in redirect_uri.
	mux.Handle("GET /account", mw.requireAuth(h.Me))
}

func registerRoleRoutes(mux *http.ServeMux, h *RoleAdminHandlers, mw routeMiddleware) {
	mux.Handle("GET /api/roles", mw.requireRole(domainauth.RoleAdmin, h.List))
	mux.Handle("PUT /api/roles/{identityId}", mw.requireRole(domainauth.RoleAdmin, h.Grant))
	mux.Handle("DELETE /api/roles/{identityId}", mw.requireRole(domainauth.RoleAdmin, h.Revoke))
}

func registerGameStatusRoutes(mux *http.ServeMux, h *GameStatusHandlers, mw routeMiddleware) {
	mux.HandleFunc("GET /api/game-status", h.List)
	// The stream is public, but a signed-in client's session rides along so
	// the connection can be registered with the role watcher.
	mux.Handle("GET /api/game-status/stream", mw.optionalAuth(h.Stream))
	mux.HandleFunc("GET /api/game-status/{game}", h.Get)
	mux.HandleFunc("POST /api/webhooks/game-status", h.Webhook)
}
