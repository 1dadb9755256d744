// Package api exposes the service over HTTP: the SSE chat stream,
// session listing, and health probes, behind a small middleware stack.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sajidcodes/perplexity/internal/agent"
	"github.com/Sajidcodes/perplexity/internal/session"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Agent       *agent.Agent  // Required
	Sessions    session.Store // Required; listing is exposed when it implements session.Lister
	Pool        *pgxpool.Pool // Optional: nil degrades /ready to liveness
	CORSOrigins []string      // Allowed origins; "*" permits any
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateRPS     float64       // Rate limiter refill per IP (0 = default 5/s)
	RateBurst   int           // Rate limiter burst size per IP (0 = default 10)
}

// Server is the HTTP server for the chat service.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Agent == nil {
		return nil, errors.New("agent is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	ch := &chatHandler{agent: cfg.Agent, logger: logger}
	mux.HandleFunc("GET /chat_stream/{message}", ch.stream)

	if lister, ok := cfg.Sessions.(session.Lister); ok {
		sh := &sessionHandler{lister: lister, logger: logger}
		mux.HandleFunc("GET /api/sessions", sh.list)
	}

	mux.HandleFunc("GET /{$}", banner)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	rl := newRateLimiter(rps, burst)

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID precedes Logging so request_id is available in log attributes.
	// CORS precedes RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
