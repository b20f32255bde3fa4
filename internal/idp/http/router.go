package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zusplus/zusplus/internal/idp/service"
	"github.com/zusplus/zusplus/internal/idp/store"
	"github.com/zusplus/zusplus/internal/idp/token"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/slogx"

	_ "github.com/zusplus/zusplus/api/idp" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *token.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	AuthService   *service.AuthService
	FactorService *service.FactorService
}

func NewRouter(codec *token.Codec, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerFactors()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			ZUSPlus Identity Provider API
//	@version		0.1.0
//	@description	Identity provider for the ZUSPlus pension planner. Owns accounts, TOTP factors and sessions,
//	@description	and enforces the two-step assurance model: a password sign-in yields an aal1 session, and a
//	@description	challenge/verify round against a TOTP factor promotes it to aal2.
//
//	@host						localhost:8081
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	authHandler := &AuthHandler{AuthService: r.AuthService}
	bearer := BearerAuth(r.codec, r.store)

	// POST /login - strict rate limit (password guessing)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /session - lenient, every guarded page load hits this
	r.Mux.Handle("GET /v1/auth/session",
		httpx.Chain(http.HandlerFunc(authHandler.HandleSession),
			bearer,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogout),
			bearer,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerFactors() {
	factorsHandler := &FactorsHandler{
		FactorService: r.FactorService,
		AuthService:   r.AuthService,
	}
	bearer := BearerAuth(r.codec, r.store)

	r.Mux.Handle("GET /v1/factors",
		httpx.Chain(http.HandlerFunc(factorsHandler.HandleList),
			bearer,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/factors",
		httpx.Chain(http.HandlerFunc(factorsHandler.HandleEnroll),
			bearer,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/factors/{id}/challenge",
		httpx.Chain(http.HandlerFunc(factorsHandler.HandleChallenge),
			bearer,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /verify - strict rate limit (code guessing)
	r.Mux.Handle("POST /v1/factors/{id}/verify",
		httpx.Chain(http.HandlerFunc(factorsHandler.HandleVerify),
			bearer,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))

	bootstrapHandler := &BootstrapHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(http.HandlerFunc(bootstrapHandler.HandleBootstrap),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}
