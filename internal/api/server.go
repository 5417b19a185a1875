// Package api provides the HTTP API for the Argus Panoptes federated
// library search.
package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arguspanoptes/argus-server/internal/config"
	"github.com/arguspanoptes/argus-server/internal/health"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/ratelimit"
	"github.com/arguspanoptes/argus-server/internal/registry"
	"github.com/arguspanoptes/argus-server/internal/search"
)

// asyncStoreSize bounds how many background searches are retained.
const asyncStoreSize = 1000

// asyncStoreTTL is how long a finished background search stays fetchable.
const asyncStoreTTL = 10 * time.Minute

// Server holds the dependencies for the HTTP handlers.
type Server struct {
	coordinator *search.Coordinator
	registry    *registry.Registry
	tracker     *health.Tracker
	async       *AsyncStore
	limiter     *ratelimit.KeyedLimiter

	router    *chi.Mux
	api       huma.API
	logger    *logger.Logger
	cfg       *config.Config
	startedAt time.Time
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(
	coordinator *search.Coordinator,
	reg *registry.Registry,
	tracker *health.Tracker,
	cfg *config.Config,
	log *logger.Logger,
) *Server {
	s := &Server{
		coordinator: coordinator,
		registry:    reg,
		tracker:     tracker,
		async:       NewAsyncStore(asyncStoreSize, asyncStoreTTL),
		limiter:     ratelimit.New(cfg.Server.SearchRPM, time.Minute),
		router:      chi.NewRouter(),
		logger:      log,
		cfg:         cfg,
		startedAt:   time.Now(),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Argus Panoptes API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(cfg.App.Production())

	s.registerSearchRoutes()
	s.registerHealthRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the rate limiter's cleanup goroutine.
func (s *Server) Close() {
	s.limiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(s.requestID)
	s.router.Use(s.requestLogger)
	s.router.Use(s.rateLimitSearches)
}
