// Package resolution implements the resolver: deciding a market's
// outcome (manual override, manual-resolution market, or oracle
// lookup via the fetch capability), recording a proof blob, and
// paying out winning positions inside one transaction.
package resolution

import (
	"context"
	"encoding/json"
	"time"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/fetch"
	"lmsrexchange/internal/lmsr"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/store"
)

// sourceManual marks a market that only ever resolves by a human
// calling Resolve with an explicit outcome or by its own current
// probability; it never triggers an oracle fetch.
const sourceManual = "manual"

// Resolver ties the store to a Fetcher to decide and record market
// outcomes.
type Resolver struct {
	Store   *store.Store
	Fetcher fetch.Fetcher
	Now     func() time.Time
}

// New builds a Resolver against the given store and fetch capability.
func New(s *store.Store, f fetch.Fetcher) *Resolver {
	return &Resolver{Store: s, Fetcher: f, Now: time.Now}
}

// Payout is one credited position, part of a Result.
type Payout struct {
	UserID int64
	Shares float64
	Amount float64
}

// Result is the outcome of a completed resolution.
type Result struct {
	Market     models.Market
	Outcome    models.Outcome
	Resolution models.Resolution
	Payouts    []Payout
}

// proofStep is one entry in the human-readable calculation_steps
// array persisted on the Resolution row.
type proofStep struct {
	Step   string `json:"step"`
	Detail string `json:"detail,omitempty"`
}

// Resolve decides and commits the outcome for marketID. manualOutcome
// is nil unless the caller is overriding resolution by hand;
// resolvedBy defaults to "auto" when empty, or to "manual" when a
// manual outcome is supplied. A manual outcome paired with resolvedBy
// "auto" is rejected, so overrides stay distinguishable from automatic
// resolutions in the stored row.
func (r *Resolver) Resolve(ctx context.Context, marketID int64, manualOutcome *models.Outcome, resolvedBy string) (Result, error) {
	if resolvedBy == "" {
		resolvedBy = "auto"
		if manualOutcome != nil {
			resolvedBy = "manual"
		}
	}
	if manualOutcome != nil && resolvedBy == "auto" {
		return Result{}, core.New(core.KindValidation, "manual resolution requires resolvedBy other than %q", "auto")
	}

	market, err := r.Store.GetMarket(ctx, marketID)
	if err != nil {
		return Result{}, err
	}
	if market.Status == models.StatusResolved {
		return Result{}, core.New(core.KindAlreadyResolved, "market %d already resolved", marketID)
	}

	outcome, sourceResponse, steps, finalValue, err := r.decide(ctx, market, manualOutcome)
	if err != nil {
		return Result{}, err
	}

	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return Result{}, core.New(core.KindInternal, "marshal calculation steps: %v", err)
	}
	finalValueJSON, err := finalValue.MarshalJSON()
	if err != nil {
		return Result{}, core.New(core.KindInternal, "marshal final value: %v", err)
	}

	now := r.Now()
	var result Result
	err = r.Store.Transaction(ctx, func(tx *store.Store) error {
		resolution := &models.Resolution{
			MarketID:             marketID,
			Outcome:              outcome,
			SourceURL:            market.Source,
			SourceResponseJSON:   sourceResponse,
			CalculationStepsJSON: string(stepsJSON),
			FinalValueJSON:       string(finalValueJSON),
			ResolvedBy:           resolvedBy,
			ResolvedAt:           now,
		}
		if err := tx.InsertResolution(ctx, resolution); err != nil {
			return err
		}
		if err := tx.MarkResolved(ctx, marketID, outcome, now); err != nil {
			return err
		}

		winningSide := models.SideYes
		if outcome == models.OutcomeNo {
			winningSide = models.SideNo
		}
		positions, err := tx.ListPositionsBySide(ctx, marketID, winningSide)
		if err != nil {
			return err
		}

		payouts := make([]Payout, 0, len(positions))
		for _, pos := range positions {
			amount := pos.Shares * 1.0
			if err := tx.CreditBalance(ctx, pos.UserID, amount); err != nil {
				return err
			}
			payouts = append(payouts, Payout{UserID: pos.UserID, Shares: pos.Shares, Amount: amount})
		}

		updatedMarket, err := tx.GetMarket(ctx, marketID)
		if err != nil {
			return err
		}

		result = Result{Market: *updatedMarket, Outcome: outcome, Resolution: *resolution, Payouts: payouts}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// decide chooses the outcome via the manual-override,
// manual-resolution-market, or oracle path.
func (r *Resolver) decide(ctx context.Context, market *models.Market, manualOutcome *models.Outcome) (models.Outcome, string, []proofStep, models.Scalar, error) {
	if manualOutcome != nil {
		respJSON, _ := json.Marshal(map[string]any{"manual": true, "outcome": *manualOutcome})
		return *manualOutcome, string(respJSON), []proofStep{{Step: "Market resolved manually"}}, models.NewStringScalar(string(*manualOutcome)), nil
	}

	if market.Source == "" || market.Source == sourceManual {
		return r.decideByProbability(market), "", []proofStep{probabilityStep(market)}, models.Scalar{}, nil
	}

	return r.decideByOracle(ctx, market)
}

func (r *Resolver) decideByProbability(market *models.Market) models.Outcome {
	inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}
	if lmsr.PriceYes(inv) > 0.5 {
		return models.OutcomeYes
	}
	return models.OutcomeNo
}

func probabilityStep(market *models.Market) proofStep {
	inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}
	p := lmsr.PriceYes(inv)
	detail, _ := json.Marshal(map[string]float64{"p_yes": p})
	return proofStep{Step: "Resolved from current probability", Detail: string(detail)}
}

// decideByOracle resolves via an external fetch, falling back to the
// probability path on any fetch or extraction failure.
func (r *Resolver) decideByOracle(ctx context.Context, market *models.Market) (models.Outcome, string, []proofStep, models.Scalar, error) {
	payload, err := r.Fetcher.Fetch(ctx, market.Source)
	if err != nil {
		fallback := r.decideByProbability(market)
		steps := []proofStep{
			{Step: "Oracle fetch failed", Detail: err.Error()},
			probabilityStep(market),
		}
		return fallback, "", steps, models.Scalar{}, nil
	}
	respJSON, _ := json.Marshal(payload)

	criteria, err := market.Criteria()
	if err != nil {
		return "", "", nil, models.Scalar{}, core.New(core.KindInternal, "decode criteria: %v", err)
	}

	actual, err := fetch.Extract(payload, criteria.Path)
	if err != nil {
		fallback := r.decideByProbability(market)
		steps := []proofStep{
			{Step: "Oracle fetched", Detail: string(respJSON)},
			{Step: "Extraction failed", Detail: err.Error()},
			probabilityStep(market),
		}
		return fallback, string(respJSON), steps, models.Scalar{}, nil
	}

	matched, err := fetch.Evaluate(actual, criteria.Operator, criteria.Value)
	if err != nil {
		return "", "", nil, models.Scalar{}, err
	}

	outcome := models.OutcomeNo
	if matched {
		outcome = models.OutcomeYes
	}

	steps := []proofStep{
		{Step: "Oracle fetched", Detail: string(respJSON)},
		{Step: "Extracted value at " + criteria.Path, Detail: actual.String()},
		{Step: "Evaluated " + criteria.Operator, Detail: criteria.Value.String()},
		{Step: "Concluded " + string(outcome)},
	}
	return outcome, string(respJSON), steps, actual, nil
}
