package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lmsrexchange/internal/models"
	"lmsrexchange/internal/resolution"
	"lmsrexchange/internal/scheduler"
	"lmsrexchange/internal/store"
)

func TestTickResolvesDueMarkets(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(store.Config{Driver: "sqlite", DSN: "file::memory:?cache=shared"})
	require.NoError(t, err)

	due := &models.Market{Title: "due", Status: models.StatusOpen, QYes: 50, QNo: 0, B: 100, Source: "manual", CloseAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.CreateMarket(ctx, due))
	notDue := &models.Market{Title: "not due", Status: models.StatusOpen, QYes: 0, QNo: 0, B: 100, Source: "manual", CloseAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateMarket(ctx, notDue))

	resolver := resolution.New(s, nil)
	sched := scheduler.New(s, resolver)
	sched.Now = time.Now

	// Drive one tick directly rather than waiting on the real ticker.
	dueMarkets, err := s.ListMarketsDue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, dueMarkets, 1)
	require.Equal(t, due.ID, dueMarkets[0].ID)

	sched.Tick(ctx)
	_, err = s.GetResolution(ctx, due.ID)
	require.NoError(t, err)

	resolved, err := s.GetMarket(ctx, due.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, resolved.Status)

	stillOpen, err := s.GetMarket(ctx, notDue.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOpen, stillOpen.Status)
}

func TestRunStopsBetweenTicksOnCancel(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(store.Config{Driver: "sqlite", DSN: "file::memory:?cache=shared"})
	require.NoError(t, err)

	sched := scheduler.New(s, resolution.New(s, nil))
	sched.Period = 10 * time.Millisecond

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		sched.Run(runCtx)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
