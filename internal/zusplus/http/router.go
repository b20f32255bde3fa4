package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zusplus/zusplus/internal/zusplus/advisor"
	"github.com/zusplus/zusplus/internal/zusplus/obs"
	"github.com/zusplus/zusplus/internal/zusplus/prognoza"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"
	"github.com/zusplus/zusplus/pkg/slogx"

	_ "github.com/zusplus/zusplus/api/zusplus" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Flows     *FlowStore
	Report    *report.Collector
	IDPClient *idp.Client
	Prognoza  *prognoza.Client
	Advisor   *advisor.Client
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		obs.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdvisor()
	r.registerSystem()

	prognozaHandler := &PrognozaHandler{Client: r.Prognoza, Report: r.Report}
	r.Mux.Handle("POST /api/prognoza",
		httpx.Chain(http.HandlerFunc(prognozaHandler.HandleProjection),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/prognoza-wykres",
		httpx.Chain(http.HandlerFunc(prognozaHandler.HandleChart),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			ZUSPlus API
//	@version		0.1.0
//	@description	Backend for the ZUSPlus pension planner. Drives the browser's sign-in gate against the
//	@description	identity provider, proxies pension projections to the actuarial backend and fronts the AI
//	@description	advisor gateway. All auth state lives server-side, keyed by the zusplus_flow cookie.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	authHandler := &AuthHandler{Flows: r.Flows, Report: r.Report}

	// POST /login - strict rate limit (password guessing)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/enroll",
		httpx.Chain(http.HandlerFunc(authHandler.HandleStartEnrollment),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Code verification shares the strict profile with login (code guessing)
	r.Mux.Handle("POST /api/auth/verify-enrollment",
		httpx.Chain(http.HandlerFunc(authHandler.HandleVerifyEnrollment),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/verify",
		httpx.Chain(http.HandlerFunc(authHandler.HandleVerifyLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /state - lenient, every guarded page load hits this
	r.Mux.Handle("GET /api/auth/state",
		httpx.Chain(http.HandlerFunc(authHandler.HandleState),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	adminHandler := &AdminHandler{Flows: r.Flows, Report: r.Report}
	r.Mux.Handle("GET /api/admin/report",
		httpx.Chain(http.HandlerFunc(adminHandler.HandleReport),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdvisor() {
	advisorHandler := &AdvisorHandler{Client: r.Advisor, Report: r.Report}

	r.Mux.Handle("POST /api/advisor/recommendations",
		httpx.Chain(http.HandlerFunc(advisorHandler.HandleRecommendations),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /api/advisor/chat",
		httpx.Chain(http.HandlerFunc(advisorHandler.HandleChat),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.IDPClient))
	r.Mux.Handle("GET /metrics", obs.Handler())
}
