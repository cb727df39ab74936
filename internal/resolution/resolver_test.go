package resolution_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/fetch"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/resolution"
	"lmsrexchange/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := store.Open(store.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	return s
}

func seedMarket(t *testing.T, s *store.Store, qYes, qNo, b float64, source string) int64 {
	t.Helper()
	m := &models.Market{Title: "t", Status: models.StatusOpen, QYes: qYes, QNo: qNo, B: b, Source: source, CloseAt: time.Now()}
	require.NoError(t, s.CreateMarket(context.Background(), m))
	return m.ID
}

func seedWinningPosition(t *testing.T, s *store.Store, marketID int64, side models.Side, shares float64) int64 {
	t.Helper()
	u := &models.User{Username: "winner"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NoError(t, s.UpsertPosition(context.Background(), &models.Position{UserID: u.ID, MarketID: marketID, Side: side, Shares: shares, AvgPrice: 0.4}))
	return u.ID
}

func TestResolveManualOverride(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	marketID := seedMarket(t, s, 10, 10, 100, "manual")
	userID := seedWinningPosition(t, s, marketID, models.SideYes, 25)

	yes := models.OutcomeYes
	res, err := resolution.New(s, nil).Resolve(ctx, marketID, &yes, "admin")
	require.NoError(t, err)
	require.Equal(t, models.OutcomeYes, res.Outcome)
	require.Len(t, res.Payouts, 1)
	require.Equal(t, 25.0, res.Payouts[0].Amount)

	user, err := s.GetUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 25.0, user.Balance)

	market, err := s.GetMarket(ctx, marketID)
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, market.Status)
}

func TestResolveManualMarketByProbability(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	// q_yes > q_no biases price above 0.5.
	marketID := seedMarket(t, s, 50, 0, 100, "manual")
	seedWinningPosition(t, s, marketID, models.SideYes, 10)

	res, err := resolution.New(s, nil).Resolve(ctx, marketID, nil, "")
	require.NoError(t, err)
	require.Equal(t, models.OutcomeYes, res.Outcome)
}

func TestResolveAlreadyResolvedFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	marketID := seedMarket(t, s, 50, 0, 100, "manual")
	yes := models.OutcomeYes
	_, err := resolution.New(s, nil).Resolve(ctx, marketID, &yes, "")
	require.NoError(t, err)

	_, err = resolution.New(s, nil).Resolve(ctx, marketID, &yes, "")
	require.Error(t, err)
	require.True(t, core.Is(err, core.KindAlreadyResolved))
}

func TestResolveOracleMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := &models.Market{Title: "t", Status: models.StatusOpen, QYes: 10, QNo: 10, B: 100, Source: "https://example.test/score", CloseAt: time.Now()}
	require.NoError(t, m.SetCriteria(models.ResolutionCriteria{Path: "result.winner", Operator: "equals", Value: models.NewStringScalar("home")}))
	require.NoError(t, s.CreateMarket(ctx, m))
	marketID := m.ID

	stub := &fetch.StubFetcher{Payload: map[string]any{"result": map[string]any{"winner": "home"}}}
	res, err := resolution.New(s, stub).Resolve(ctx, marketID, nil, "")
	require.NoError(t, err)
	require.Equal(t, models.OutcomeYes, res.Outcome)
}

func TestResolveOracleFetchFailureFallsBackToProbability(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	marketID := seedMarket(t, s, 50, 0, 100, "https://example.test/score")

	stub := &fetch.StubFetcher{Err: assertionError("network down")}
	res, err := resolution.New(s, stub).Resolve(ctx, marketID, nil, "")
	require.NoError(t, err)
	require.Equal(t, models.OutcomeYes, res.Outcome)
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
