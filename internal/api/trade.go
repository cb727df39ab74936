package api

import (
	"encoding/json"
	"net/http"

	"lmsrexchange/internal/auth"
	"lmsrexchange/internal/core"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/trading"
	"lmsrexchange/internal/validation"
)

// quoteRequest is a plain JSON struct decoded straight off the
// request body and validated field by field.
type quoteRequest struct {
	MarketID int64       `json:"market" validate:"required"`
	Side     models.Side `json:"side" validate:"required,oneof=YES NO"`
	Action   string      `json:"action" validate:"required,oneof=buy sell"`
	Amount   float64     `json:"amount"`
	Shares   float64     `json:"shares"`
}

func (s *Server) handleTradeQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.New(core.KindValidation, "invalid request body: %v", err))
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, core.New(core.KindValidation, "%v", err))
		return
	}

	quote, err := s.Engine.Quote(r.Context(), trading.QuoteRequest{
		MarketID: req.MarketID,
		Side:     req.Side,
		Action:   req.Action,
		Amount:   req.Amount,
		Shares:   req.Shares,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type buyRequest struct {
	MarketID int64       `json:"market" validate:"required"`
	Side     models.Side `json:"side" validate:"required,oneof=YES NO"`
	Amount   float64     `json:"amount" validate:"required,gt=0"`
}

func (s *Server) handleTradeBuy(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, core.New(core.KindValidation, "authenticated user required"))
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.New(core.KindValidation, "invalid request body: %v", err))
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, core.New(core.KindValidation, "%v", err))
		return
	}

	var result trading.TradeResult
	var err error
	s.locks().withMarketLock(req.MarketID, func() {
		result, err = s.Engine.ExecuteBuy(r.Context(), userID, req.MarketID, req.Side, req.Amount)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type sellRequest struct {
	MarketID int64       `json:"market" validate:"required"`
	Side     models.Side `json:"side" validate:"required,oneof=YES NO"`
	Shares   float64     `json:"shares" validate:"required,gt=0"`
}

func (s *Server) handleTradeSell(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, core.New(core.KindValidation, "authenticated user required"))
		return
	}

	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.New(core.KindValidation, "invalid request body: %v", err))
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, core.New(core.KindValidation, "%v", err))
		return
	}

	var result trading.TradeResult
	var err error
	s.locks().withMarketLock(req.MarketID, func() {
		result, err = s.Engine.ExecuteSell(r.Context(), userID, req.MarketID, req.Side, req.Shares)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
