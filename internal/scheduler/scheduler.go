// Package scheduler implements the resolution scheduler: a
// fixed-period, non-overlapping tick loop that resolves every due
// market and logs per-market failures without aborting the run.
package scheduler

import (
	"context"
	"log"
	"time"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/resolution"
	"lmsrexchange/internal/store"
)

// DefaultPeriod is the default tick interval.
const DefaultPeriod = 60 * time.Second

// Scheduler drives the resolver on a fixed tick. Ticks never overlap:
// the loop waits for one tick's markets to finish (success or logged
// failure) before sleeping for the next.
type Scheduler struct {
	Store    *store.Store
	Resolver *resolution.Resolver
	Period   time.Duration
	Now      func() time.Time
	Logger   *log.Logger
}

// New builds a Scheduler with the default 60-second period.
func New(s *store.Store, r *resolution.Resolver) *Scheduler {
	return &Scheduler{Store: s, Resolver: r, Period: DefaultPeriod, Now: time.Now, Logger: log.Default()}
}

// Run blocks, ticking until ctx is cancelled. Cancellation is observed
// between ticks: a tick already in progress always drains to
// completion before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Tick resolves every due market, logging and continuing past
// per-market failures rather than aborting the batch. Exported so an
// admin endpoint can force an out-of-band pass.
func (s *Scheduler) Tick(ctx context.Context) {
	due, err := s.Store.ListMarketsDue(ctx, s.Now())
	if err != nil {
		s.Logger.Printf("scheduler: list due markets: %v", err)
		return
	}

	for _, market := range due {
		if _, err := s.Resolver.Resolve(ctx, market.ID, nil, "auto"); err != nil {
			s.Logger.Printf("scheduler: resolve market %d failed: %v", market.ID, err)
			if isUnrecoverable(err) {
				if closeErr := s.Store.MarkClosed(ctx, market.ID); closeErr != nil {
					s.Logger.Printf("scheduler: close market %d after failed resolve: %v", market.ID, closeErr)
				}
			}
		}
	}
}

// isUnrecoverable reports whether err represents a persistent failure
// a retry on the next tick can't fix. AlreadyResolved and NotFound are
// themselves terminal in a different sense (nothing to close), so only
// InternalError is treated as grounds to stop retrying.
func isUnrecoverable(err error) bool {
	return core.Is(err, core.KindInternal)
}
