package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/service"
	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
	"github.com/aussiebroadwan/bearer/pkg/jwtx"
	"github.com/aussiebroadwan/bearer/pkg/slogx"
)

// Limits selects the rate limit profile per endpoint group. A zero Limit
// disables throttling for that group. Account caps login attempts per
// username whatever address they come from.
type Limits struct {
	Login   httpx.Limit
	Account httpx.Limit
	Session httpx.Limit
	Public  httpx.Limit
}

// DefaultLimits throttles logins hard and everything else loosely.
var DefaultLimits = Limits{
	Login:   httpx.StrictLimit,
	Account: httpx.AccountLimit,
	Session: httpx.ModerateLimit,
	Public:  httpx.PublicLimit,
}

// KeyPublisher exposes the public half of the signing key, if any, and
// reports whether a key is loaded at all.
type KeyPublisher interface {
	PublicJWKS() jwtx.JWKS
	Ready() error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         KeyPublisher
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService *service.AuthService
	ItemService *service.ItemService
	Limits      Limits

	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Empty means the
	// connection peer is the client.
	TrustedProxies httpx.TrustedProxies
}

func NewRouter(
	keys KeyPublisher,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		ItemService:  &service.ItemService{},
		Limits:       DefaultLimits,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerToken()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerToken() {
	// POST /token - strict limit by IP + username to slow password guessing
	r.Mux.Handle("POST /token",
		httpx.Chain(&TokenHandler{AuthService: r.AuthService},
			httpx.RateLimitLogin(r.Limits.Login, r.Limits.Account, r.TrustedProxies.ClientIP),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimit(r.Limits.Public, r.TrustedProxies.ClientIP),
		),
	)
}

func (r *Router) registerUsers() {
	// Both routes share one budget. The address limit runs first so
	// requests with bad tokens are counted too.
	byClient := httpx.RateLimit(r.Limits.Session, r.TrustedProxies.ClientIP)
	session := SessionMiddleware(r.AuthService)
	bySubject := httpx.RateLimitBySubject(r.Limits.Session)

	r.Mux.Handle("GET /users/me",
		httpx.Chain(MeHandler(), byClient, session, bySubject),
	)
	r.Mux.Handle("GET /users/me/items",
		httpx.Chain(ItemsHandler(r.ItemService), byClient, session, bySubject),
	)
}

func (r *Router) registerSystem() {
	// Probes are polled often; keep them on the public profile.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimit(r.Limits.Public, r.TrustedProxies.ClientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimit(r.Limits.Public, r.TrustedProxies.ClientIP),
		),
	)
}
