package rest

import (
	"net/http"
	"strings"
	"time"

	"dashboard/application/commands/bus"
	querybus "dashboard/application/queries/bus"
	"dashboard/interfaces/http/rest/handlers"
	"dashboard/interfaces/http/rest/middleware"
	"dashboard/pkg/auth"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	AllowedOrigins []string
	EnableCORS     bool
	EnableMetrics  bool
	TrustGateway   bool
	PageCacheTTL   time.Duration
	RequestTimeout time.Duration
	Version        string
}

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(r *http.Request) error

// Router creates and configures the HTTP router
type Router struct {
	cfg        RouterConfig
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	watcher    handlers.PanelWatcher
	validator  *auth.JWTValidator
	limiter    middleware.Limiter
	collector  *observability.HTTPCollector
	errors     *pkgerrors.ErrorHandler
	ready      ReadinessCheck
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg RouterConfig,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	watcher handlers.PanelWatcher,
	validator *auth.JWTValidator,
	limiter middleware.Limiter,
	collector *observability.HTTPCollector,
	errors *pkgerrors.ErrorHandler,
	ready ReadinessCheck,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		commandBus: commandBus,
		queryBus:   queryBus,
		watcher:    watcher,
		validator:  validator,
		limiter:    limiter,
		collector:  collector,
		errors:     errors,
		ready:      ready,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.collector.Middleware)
	router.Use(versionMiddleware(rt.cfg.Version))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Sec-CH-UA-Mobile"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", rt.collector.Handler())
	}

	explore := handlers.NewExploreHandler(rt.commandBus, rt.queryBus, rt.errors, rt.collector, rt.cfg.PageCacheTTL, rt.logger)
	contracts := handlers.NewContractHandler(rt.queryBus, rt.watcher, rt.errors, rt.logger)

	router.Route("/api/v2", func(r chi.Router) {
		r.Route("/explore/categories", func(r chi.Router) {
			r.With(rt.timeout).Get("/", explore.ListCategories)
			r.With(rt.timeout).Get("/{category}", explore.GetCategory)
			r.With(
				middleware.Authenticate(rt.validator, rt.errors, middleware.AuthOptions{TrustGateway: rt.cfg.TrustGateway}),
				middleware.RequireRole(auth.RoleRevalidate, rt.errors),
			).Post("/{category}/revalidate", explore.Revalidate)
		})

		// Chain reads are public and rate limited per client
		r.Route("/contracts/{chainID}/{address}", func(r chi.Router) {
			r.Use(middleware.RateLimit(rt.limiter, rt.errors, rt.logger))
			r.With(rt.timeout).Get("/nft-details", contracts.GetNFTDetails)
			r.Get("/nft-details/events", contracts.StreamNFTDetails)
		})
	})

	return router
}

// timeout bounds non-streaming requests
func (rt *Router) timeout(next http.Handler) http.Handler {
	if rt.cfg.RequestTimeout <= 0 {
		return next
	}
	return chimiddleware.Timeout(rt.cfg.RequestTimeout)(next)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		if err := rt.ready(req); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errors.Handle(w, req, pkgerrors.NewUnavailableError("dashboard").WithCause(err))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(build string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("X-API-Version", "v2")
			}
			if build != "" {
				w.Header().Set("X-Build-Version", build)
			}
			next.ServeHTTP(w, r)
		})
	}
}
