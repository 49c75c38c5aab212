// Package server assembles the HTTP API from the per-package handlers.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/httpjson"
	"libraryledger/internal/membership"
)

// Options tune the router. The zero value disables rate limiting and snapshot
// persistence.
type Options struct {
	Logger *slog.Logger
	Store  circulation.SnapshotStore

	// RateLimitRPS and RateLimitBurst bound borrow and return calls per
	// client address. Zero RPS means unlimited.
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that sets those headers.
	TrustProxy bool
}

// Server is the HTTP API. Close releases the rate limiter.
type Server struct {
	http.Handler
	limiter *clientLimiter
}

// Close stops background work. It does not affect in-flight requests.
func (s *Server) Close() {
	s.limiter.Close()
}

// New returns the router serving /health and /api.
func New(svc circulation.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lending := circulation.NewHandler(svc, opts.Store, logger)
	limiter := newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	r := chi.NewRouter()
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestID)
	r.Use(logRequests(logger))
	r.Use(middleware.Recoverer)

	jsonFallbacks(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		jsonFallbacks(r)
		catalog.NewHandler(svc).Routes(r)
		membership.NewHandler(svc).Routes(r)
		lending.Routes(r)
		r.Get("/data", newDataHandler(svc).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(limiter.middleware)
			lending.MutationRoutes(r)
		})
	})

	return &Server{Handler: r, limiter: limiter}
}

func jsonFallbacks(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteError(w, http.StatusNotFound, httpjson.CodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteError(w, http.StatusMethodNotAllowed, httpjson.CodeMethodNotAllowed, "method not allowed")
	})
}
