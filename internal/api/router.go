package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/campusconnect/server/internal/api/handlers"
	"github.com/campusconnect/server/internal/api/middleware"
	"github.com/campusconnect/server/internal/api/problem"
	"github.com/campusconnect/server/internal/auth"
	"github.com/campusconnect/server/internal/config"
	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/domain/users"
	"github.com/campusconnect/server/internal/metrics"
	"github.com/campusconnect/server/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface is built from. Google may be
// nil when sign-in is not configured; RateLimiter may be nil to disable
// limiting.
type Deps struct {
	Config      config.Config
	Logger      zerolog.Logger
	Store       storage.Repository
	Sessions    *auth.SessionManager
	Google      handlers.GoogleAuthenticator
	Audit       handlers.AuditLogger
	RateLimiter *middleware.RateLimiter

	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config

	eventsHandler := handlers.NewEventsHandler(events.NewService(deps.Store.Events()), deps.Audit)
	profileHandler := handlers.NewProfileHandler(users.NewService(deps.Store.Users()), deps.Audit)
	authHandler := handlers.NewAuthHandler(
		deps.Google,
		deps.Sessions,
		auth.NewDomainGate(cfg.Auth.AllowedDomain),
		cfg.IsProduction(),
		deps.Logger,
		deps.Audit,
	)
	health := handlers.NewHealthChecker(deps.Store, deps.Version, deps.GitCommit)

	limit := func(tier middleware.RateLimitTier, next http.Handler) http.Handler {
		if deps.RateLimiter == nil {
			return next
		}
		return middleware.WithRateLimitTierHandler(tier)(deps.RateLimiter.Middleware(next))
	}
	public := func(next http.HandlerFunc) http.Handler {
		return limit(middleware.TierPublic, next)
	}
	signedIn := func(next http.HandlerFunc) http.Handler {
		return limit(middleware.TierPublic, middleware.RequireSession(next))
	}

	mux := http.NewServeMux()
	route := func(pattern string, handlers map[string]http.Handler) {
		mux.Handle(pattern, metrics.Instrument(pattern, methodMux(handlers)))
	}

	route("/healthz", map[string]http.Handler{http.MethodGet: handlers.Healthz()})
	route("/readyz", map[string]http.Handler{http.MethodGet: health.Readyz()})
	route("/version", map[string]http.Handler{http.MethodGet: VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate)})
	route("/metrics", map[string]http.Handler{
		http.MethodGet: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{Registry: metrics.Registry}),
	})
	route("/api/openapi.json", map[string]http.Handler{http.MethodGet: OpenAPIHandler()})

	route("/api/events", map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: signedIn(eventsHandler.Create),
	})
	route("/api/events/fix-links", map[string]http.Handler{
		http.MethodPost: public(eventsHandler.FixLinks),
	})
	route("/api/events/{id}/attendees", map[string]http.Handler{
		http.MethodGet: public(eventsHandler.Attendees),
	})
	route("/api/events/{id}/join", map[string]http.Handler{
		http.MethodPost: limit(middleware.TierJoin, http.HandlerFunc(eventsHandler.Join)),
	})
	route("/api/user/profile", map[string]http.Handler{
		http.MethodGet:  signedIn(profileHandler.Get),
		http.MethodPost: signedIn(profileHandler.Update),
	})

	route("/api/auth/signin", map[string]http.Handler{http.MethodGet: public(authHandler.SignIn)})
	route("/api/auth/callback/google", map[string]http.Handler{http.MethodGet: public(authHandler.Callback)})
	route("/api/auth/session", map[string]http.Handler{http.MethodGet: public(authHandler.Session)})
	route("/api/auth/signout", map[string]http.Handler{http.MethodPost: public(authHandler.SignOut)})
	route("/auth/error", map[string]http.Handler{http.MethodGet: public(authHandler.Error)})

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, problem.KindNotFound, "Not found", nil)
	}))

	var handler http.Handler = middleware.Tracing(mux)
	if deps.Sessions != nil {
		handler = middleware.Session(deps.Sessions)(handler)
	}
	handler = middleware.Timeout(cfg.Server.RequestTimeout)(handler)
	handler = middleware.RequestSize(cfg.Server.MaxBodyBytes)(handler)
	handler = middleware.CORS(cfg.CORS, !cfg.IsProduction(), deps.Logger)(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = middleware.Recover(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

// methodMux dispatches on method and answers anything else with the JSON 405.
func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		problem.MethodNotAllowed(w, r)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
