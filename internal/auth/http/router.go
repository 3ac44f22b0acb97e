package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/session"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/doorman/api/doorman" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// maxFormBytes bounds the login form body.
const maxFormBytes = 16 << 10

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	LoginService *service.LoginService
	Sessions     *session.Manager

	// Gatherer backs GET /metrics. The route is not mounted when nil.
	Gatherer prometheus.Gatherer

	LoginLimit httpx.RateLimitConfig
	ProbeLimit httpx.RateLimitConfig
	TrustProxy bool // honour X-Forwarded-For / X-Real-IP for rate limit keys
}

func NewRouter(
	keys *jwtx.KeySet,
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
		LoginLimit:   httpx.LoginLimit,
		ProbeLimit:   httpx.ProbeLimit,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes mounts every route. LoginService and Sessions must be set.
func (r *Router) ApplyRoutes() {
	r.middlewares = append(r.middlewares, r.Sessions.Middleware)

	r.registerLogin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			doorman Login Service API
//	@version		0.1.0
//	@description	Form login against local accounts with an LDAP directory fallback.
//	@description
//	@description	A successful login sets an EdDSA signed session cookie and redirects to /home.
//	@description	Every failed login redirects back to / without saying why.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/doorman
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	clientIP := httpx.ClientIP(r.TrustProxy)

	r.Mux.Handle("GET /{$}",
		httpx.Chain(LoginPageHandler(),
			httpx.RateLimit(r.ProbeLimit, clientIP),
		),
	)

	// POST /login - strict rate limit by IP + username to slow down guessing.
	// The body cap comes first because the rate limit key reads the form.
	// Usernames are normalized the same way the resolver does it.
	username := httpx.Normalized(httpx.PostFormValue("username"), domain.NormalizeUsername)
	loginHandler := &LoginHandler{LoginService: r.LoginService, Sessions: r.Sessions}
	r.Mux.Handle("POST /login",
		httpx.Chain(loginHandler,
			httpx.MaxBodyBytes(maxFormBytes),
			httpx.RateLimit(r.LoginLimit, httpx.JoinKeys(":", clientIP, username)),
		),
	)

	r.Mux.Handle("GET /home", HomeHandler())
	r.Mux.Handle("POST /logout", LogoutHandler(r.Sessions))
}

func (r *Router) registerSystem() {
	probeLimit := httpx.RateLimit(r.ProbeLimit, httpx.ClientIP(r.TrustProxy))

	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion), probeLimit),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys), probeLimit),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
}
