package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"territory-arena/internal/config"

	"github.com/go-chi/chi/v5"
)

// Server is the public HTTP server: the read-only API, the game socket and
// the static client.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer builds the server. Nothing listens until Start.
func NewServer(engine EngineInterface, srvCfg config.ServerConfig, limits config.LimitsConfig) *Server {
	origins := NewOriginPolicy(srvCfg.AllowedOrigins)
	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, limits, origins),
		rateLimiter: NewIPRateLimiter(RateLimitFromConfig(limits)),
	}

	s.router = NewRouter(RouterConfig{
		Engine:         engine,
		RateLimiter:    s.rateLimiter,
		Origins:        origins,
		StaticFilesDir: srvCfg.StaticDir,
	})
	s.setupWebSocketRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", srvCfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupWebSocketRoutes adds the socket endpoints, which need the hub.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
}

// Start listens until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Printf("🌐 Server starting on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown stops accepting requests, closes every game socket and stops
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.wsHub.Close()
	s.rateLimiter.Stop()
	return err
}
