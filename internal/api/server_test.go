package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lmsrexchange/internal/api"
	"lmsrexchange/internal/auth"
	"lmsrexchange/internal/fetch"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/resolution"
	"lmsrexchange/internal/scheduler"
	"lmsrexchange/internal/store"
	"lmsrexchange/internal/trading"
)

func newTestServer(t *testing.T) (*api.Server, *store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := store.Open(store.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	engine := trading.New(s)
	resolver := resolution.New(s, fetch.NewHTTPFetcher())
	sched := scheduler.New(s, resolver)

	return &api.Server{Store: s, Engine: engine, Resolver: resolver, Scheduler: sched}, s
}

func seedAPIUser(t *testing.T, s *store.Store, balance float64) (int64, string) {
	t.Helper()
	key, hash, err := auth.GenerateAPIKey()
	require.NoError(t, err)
	u := &models.User{Username: "trader", Balance: balance, APIKeyHash: hash}
	require.NoError(t, s.CreateUser(t.Context(), u))
	return u.ID, key
}

func TestHandleCreateMarketRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"title": "Will it rain tomorrow?", "closeAt": time.Now().Add(24 * time.Hour), "b": 100,
	})
	req := httptest.NewRequest(http.MethodPost, "/markets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateMarketAndQuote(t *testing.T) {
	srv, _ := newTestServer(t)
	_, key := seedAPIUser(t, srv.Store, 1000)

	body, _ := json.Marshal(map[string]any{
		"title": "Will it rain tomorrow?", "closeAt": time.Now().Add(24 * time.Hour), "b": 100,
	})
	req := httptest.NewRequest(http.MethodPost, "/markets", bytes.NewReader(body))
	req.Header.Set("X-API-Key", key)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var market models.Market
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&market))
	require.NotZero(t, market.ID)

	quoteBody, _ := json.Marshal(map[string]any{
		"market": market.ID, "side": "YES", "action": "buy", "amount": 10,
	})
	quoteReq := httptest.NewRequest(http.MethodPost, "/trade/quote", bytes.NewReader(quoteBody))
	quoteRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(quoteRec, quoteReq)
	require.Equal(t, http.StatusOK, quoteRec.Code)

	var quote trading.QuoteResult
	require.NoError(t, json.NewDecoder(quoteRec.Body).Decode(&quote))
	require.Greater(t, quote.Shares, 0.0)
}

func TestHandleTradeBuyEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)
	_, key := seedAPIUser(t, srv.Store, 1000)

	createBody, _ := json.Marshal(map[string]any{
		"title": "Will it rain tomorrow?", "closeAt": time.Now().Add(24 * time.Hour), "b": 100,
	})
	createReq := httptest.NewRequest(http.MethodPost, "/markets", bytes.NewReader(createBody))
	createReq.Header.Set("X-API-Key", key)
	createRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var market models.Market
	require.NoError(t, json.NewDecoder(createRec.Body).Decode(&market))

	buyBody, _ := json.Marshal(map[string]any{"market": market.ID, "side": "YES", "amount": 10})
	buyReq := httptest.NewRequest(http.MethodPost, "/trade/buy", bytes.NewReader(buyBody))
	buyReq.Header.Set("X-API-Key", key)
	buyRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(buyRec, buyReq)
	require.Equal(t, http.StatusCreated, buyRec.Code)

	var result trading.TradeResult
	require.NoError(t, json.NewDecoder(buyRec.Body).Decode(&result))
	require.Greater(t, result.Shares, 0.0)
	require.Equal(t, 990.0, result.NewBalance)
}
