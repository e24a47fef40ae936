package api

import (
	"net/http"

	"territory-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the engine loop.
type EngineInterface interface {
	// Connect joins a player bound to conn
	Connect(id string, conn game.Conn) error
	// Disconnect removes a player and waits for the cleanup to apply
	Disconnect(id string)
	// Submit queues a decoded player command
	Submit(cmd game.Command) bool
	// Snapshot returns the latest immutable world copy
	Snapshot() *game.GameSnapshot
	// Stats returns engine counters
	Stats() game.EngineStats
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is used only when RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// Origins controls CORS. The zero value allows localhost only.
	Origins OriginPolicy

	// StaticFilesDir holds the game client. Empty disables static serving.
	StaticFilesDir string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine  EngineInterface
	limiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// It opens no listeners. The only goroutine it may start is the cleanup
// loop of a rate limiter it creates itself; pass RateLimiter to own that.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rlCfg := RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
		if cfg.RateLimitConfig != nil {
			rlCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rlCfg)
	}
	r.Use(rateLimiter.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Origins.CORSOrigins(),
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{engine: cfg.Engine, limiter: rateLimiter}

	r.Get("/health", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
	})

	if cfg.StaticFilesDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticFilesDir)))
	}

	return r
}
