package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"lmsrexchange/internal/auth"
	"lmsrexchange/internal/config"
	"lmsrexchange/internal/core"
	"lmsrexchange/internal/lmsr"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/query"
	"lmsrexchange/internal/validation"
)

// createMarketRequest is the request shape for creating a market.
type createMarketRequest struct {
	Title            string    `json:"title" validate:"required,max=300"`
	Description      string    `json:"description" validate:"max=2000"`
	Category         string    `json:"category"`
	Source           string    `json:"source"`
	CriteriaPath     string    `json:"criteriaPath"`
	CriteriaOperator string    `json:"criteriaOperator"`
	CriteriaValue    string    `json:"criteriaValue"`
	CloseAt          time.Time `json:"closeAt" validate:"required"`
	InitialProbability float64 `json:"initialProbability"`
	B                float64   `json:"b" validate:"gt=0"`
}

func (s *Server) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, core.New(core.KindValidation, "authenticated user required"))
		return
	}

	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.New(core.KindValidation, "invalid request body: %v", err))
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, core.New(core.KindValidation, "%v", err))
		return
	}

	creator, err := s.Store.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	b := req.B
	if b <= 0 {
		b = 100
	}
	p := req.InitialProbability
	if p <= 0 {
		p = 0.5
	}
	inv := lmsr.InitialInventory(b, p)

	source := req.Source
	if source == "" {
		source = "manual"
	}

	category := req.Category
	if category == "" {
		category = "general"
	}
	categories := s.Categories
	if len(categories) == 0 {
		categories = config.LoadCategories("")
	}
	if !config.IsValidCategory(categories, category) {
		writeError(w, core.New(core.KindValidation, "unknown category %q", category))
		return
	}

	market := &models.Market{
		Title:           validation.Sanitize(req.Title),
		Description:     validation.Sanitize(req.Description),
		Category:        category,
		Source:          source,
		CloseAt:         req.CloseAt,
		CreatorUsername: creator.Username,
		QYes:            inv.QYes,
		QNo:             inv.QNo,
		B:               b,
		Status:          models.StatusOpen,
	}
	if req.CriteriaPath != "" {
		if err := market.SetCriteria(models.ResolutionCriteria{
			Path:     req.CriteriaPath,
			Operator: req.CriteriaOperator,
			Value:    models.NewStringScalar(req.CriteriaValue),
		}); err != nil {
			writeError(w, core.New(core.KindValidation, "invalid criteria: %v", err))
			return
		}
	}

	if err := s.Store.CreateMarket(r.Context(), market); err != nil {
		writeError(w, core.New(core.KindInternal, "create market: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, market)
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.Store.ListMarkets(r.Context())
	if err != nil {
		writeError(w, core.New(core.KindInternal, "list markets: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, markets)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := query.MarketViewFor(r.Context(), s.Store, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMarketStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := query.MarketStatsFor(r.Context(), s.Store, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, core.New(core.KindValidation, "authenticated user required"))
		return
	}

	portfolio, err := query.PortfolioFor(r.Context(), s.Store, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, core.New(core.KindValidation, "invalid %s %q", name, raw)
	}
	return id, nil
}
