// Package api is the HTTP surface: gorilla/mux routing, rs/cors for
// cross-origin access, golang.org/x/time/rate for rate limiting, and
// API-key auth from internal/auth — none of it part of the core
// engine contract, all of it organized one file per resource with
// handlers as methods on Server, which holds their dependencies.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"lmsrexchange/internal/auth"
	"lmsrexchange/internal/resolution"
	"lmsrexchange/internal/scheduler"
	"lmsrexchange/internal/store"
	"lmsrexchange/internal/trading"
)

// Server holds every dependency the HTTP handlers close over.
type Server struct {
	Store      *store.Store
	Engine     *trading.Engine
	Resolver   *resolution.Resolver
	Scheduler  *scheduler.Scheduler
	Categories []string

	locksOnce   sync.Once
	marketLocks *marketLocks
}

// locks lazily builds the per-market lock table so a zero-value Server
// (as used by tests that set fields directly) still works.
func (s *Server) locks() *marketLocks {
	s.locksOnce.Do(func() {
		s.marketLocks = newMarketLocks()
	})
	return s.marketLocks
}

// Router builds the full mux.Router, wrapped in CORS and rate-limiting
// middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/trade/quote", s.handleTradeQuote).Methods(http.MethodPost)
	r.HandleFunc("/trade/buy", auth.RequireAPIKey(s.Store)(http.HandlerFunc(s.handleTradeBuy)).ServeHTTP).Methods(http.MethodPost)
	r.HandleFunc("/trade/sell", auth.RequireAPIKey(s.Store)(http.HandlerFunc(s.handleTradeSell)).ServeHTTP).Methods(http.MethodPost)

	r.HandleFunc("/markets", auth.RequireAPIKey(s.Store)(http.HandlerFunc(s.handleCreateMarket)).ServeHTTP).Methods(http.MethodPost)
	r.HandleFunc("/markets", s.handleListMarkets).Methods(http.MethodGet)
	r.HandleFunc("/markets/{id}", s.handleGetMarket).Methods(http.MethodGet)
	r.HandleFunc("/markets/{id}/stats", s.handleMarketStats).Methods(http.MethodGet)

	r.HandleFunc("/portfolio", auth.RequireAPIKey(s.Store)(http.HandlerFunc(s.handlePortfolio)).ServeHTTP).Methods(http.MethodGet)

	r.HandleFunc("/resolutions/{market}/resolve", auth.RequireAPIKey(s.Store)(http.HandlerFunc(s.handleResolveMarket)).ServeHTTP).Methods(http.MethodPost)
	r.HandleFunc("/resolutions/{market}", s.handleGetResolution).Methods(http.MethodGet)

	r.HandleFunc("/admin/scheduler/tick", auth.RequireAPIKey(s.Store)(http.HandlerFunc(s.handleAdminSchedulerTick)).ServeHTTP).Methods(http.MethodPost)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
	}).Handler(r)

	return requestID(rateLimit(handler))
}

// requestID stamps every response with a unique X-Request-Id, making
// individual requests traceable across logs without a tracing system.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies a single shared token bucket across the process,
// adequate for a single-instance deployment; a per-client limiter
// would need a keyed map of rate.Limiter, which isn't warranted at
// this scale.
func rateLimit(next http.Handler) http.Handler {
	limiter := newLimiter(50, time.Second)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
