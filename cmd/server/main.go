// Command server wires configuration, the store, the trading engine,
// the resolver, the scheduler, and the HTTP API together and serves
// them.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lmsrexchange/internal/api"
	"lmsrexchange/internal/config"
	"lmsrexchange/internal/fetch"
	"lmsrexchange/internal/resolution"
	"lmsrexchange/internal/scheduler"
	"lmsrexchange/internal/store"
	"lmsrexchange/internal/trading"
)

func main() {
	cfg := config.Load()

	s, err := store.Open(store.Config{Driver: cfg.StoreDriver, DSN: cfg.StoreDSN})
	if err != nil {
		log.Fatalf("server: open store: %v", err)
	}

	engine := trading.New(s)
	httpFetcher := fetch.NewHTTPFetcher()
	resolver := resolution.New(s, httpFetcher)
	sched := scheduler.New(s, resolver)
	sched.Period = cfg.SchedulerPeriod

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SchedulerEnabled {
		go sched.Run(ctx)
	}

	srv := &api.Server{Store: s, Engine: engine, Resolver: resolver, Scheduler: sched, Categories: cfg.Categories}
	httpServer := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: srv.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("server: listening on :%s", cfg.HTTPPort)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
