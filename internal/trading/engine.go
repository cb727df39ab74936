// Package trading implements the trading engine: validating a trade
// request, pricing it through internal/lmsr, and applying every
// resulting state change through internal/store inside one
// transaction.
//
// Follows the shape of validate actor, validate request, load market,
// check balance, open a transaction, debit, upsert position, append
// transaction, append price point, commit — generalized from a flat
// confidence-weighted bet into a priced LMSR trade.
package trading

import (
	"context"
	"time"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/lmsr"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/store"
)

// Engine is the trading engine. Now is overridable for tests.
type Engine struct {
	Store *store.Store
	Now   func() time.Time
}

// New builds an Engine against the given store.
func New(s *store.Store) *Engine {
	return &Engine{Store: s, Now: time.Now}
}

// QuoteRequest describes a hypothetical trade to price without
// executing it.
type QuoteRequest struct {
	MarketID int64
	Side     models.Side
	Action   string // "buy" or "sell"
	Amount   float64 // cash amount, for a buy
	Shares   float64 // shares to sell, for a sell
}

// QuoteResult mirrors lmsr.Quote plus the side it was computed for.
type QuoteResult struct {
	Side        models.Side
	Shares      float64
	AvgPrice    float64
	TotalCash   float64
	PriceImpact float64
	SpotBefore  float64
	NewPriceYes float64
	NewPriceNo  float64
}

// Quote prices a trade request without mutating any state.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	if req.Side != models.SideYes && req.Side != models.SideNo {
		return QuoteResult{}, core.New(core.KindValidation, "side must be YES or NO")
	}

	market, err := e.Store.GetMarket(ctx, req.MarketID)
	if err != nil {
		return QuoteResult{}, err
	}
	if market.Status != models.StatusOpen {
		return QuoteResult{}, core.New(core.KindMarketNotOpen, "market %d is %s", market.ID, market.Status)
	}

	inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}
	side := lmsr.Side(req.Side)

	var q lmsr.Quote
	switch req.Action {
	case "buy":
		if req.Amount <= 0 {
			return QuoteResult{}, core.New(core.KindValidation, "amount must be positive")
		}
		q = lmsr.QuoteBuy(inv, side, req.Amount)
	case "sell":
		if req.Shares <= 0 {
			return QuoteResult{}, core.New(core.KindValidation, "shares must be positive")
		}
		q = lmsr.QuoteSell(inv, side, req.Shares)
	default:
		return QuoteResult{}, core.New(core.KindValidation, "action must be buy or sell")
	}

	return QuoteResult{
		Side:        req.Side,
		Shares:      q.Shares,
		AvgPrice:    q.AvgPrice,
		TotalCash:   q.TotalCash,
		PriceImpact: q.PriceImpact,
		SpotBefore:  q.SpotBefore,
		NewPriceYes: q.NewPriceYes,
		NewPriceNo:  q.NewPriceNo,
	}, nil
}

// TradeResult is the outcome of an executed buy or sell.
type TradeResult struct {
	TransactionID int64
	Shares        float64
	PricePerShare float64
	TotalCost     float64
	NewBalance    float64
	NewPosition   models.Position
}

// ExecuteBuy validates and executes a YES/NO buy against the LMSR
// maker.
func (e *Engine) ExecuteBuy(ctx context.Context, userID, marketID int64, side models.Side, amount float64) (TradeResult, error) {
	if amount <= 0 {
		return TradeResult{}, core.New(core.KindValidation, "amount must be positive")
	}
	if side != models.SideYes && side != models.SideNo {
		return TradeResult{}, core.New(core.KindValidation, "side must be YES or NO")
	}

	var result TradeResult
	err := e.Store.Transaction(ctx, func(tx *store.Store) error {
		market, err := tx.GetMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if market.Status != models.StatusOpen {
			return core.New(core.KindMarketNotOpen, "market %d is %s", market.ID, market.Status)
		}

		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.Balance < amount {
			return core.New(core.KindInsufficientFunds, "balance %.4f below requested %.4f", user.Balance, amount)
		}

		inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}
		q := lmsr.QuoteBuy(inv, lmsr.Side(side), amount)
		if q.Shares <= 0 {
			return core.New(core.KindDegenerateTrade, "quote yielded %.6f shares for %.4f cash", q.Shares, amount)
		}

		if err := tx.DebitBalance(ctx, userID, amount); err != nil {
			return err
		}

		newQYes, newQNo := market.QYes, market.QNo
		if side == models.SideYes {
			newQYes += q.Shares
		} else {
			newQNo += q.Shares
		}
		if err := tx.UpdateMarketInventory(ctx, marketID, newQYes, newQNo); err != nil {
			return err
		}

		pos, err := tx.GetPosition(ctx, userID, marketID, side)
		if err != nil {
			return err
		}
		if pos == nil {
			pos = &models.Position{UserID: userID, MarketID: marketID, Side: side, Shares: q.Shares, AvgPrice: q.AvgPrice}
		} else {
			totalShares := pos.Shares + q.Shares
			pos.AvgPrice = (pos.Shares*pos.AvgPrice + amount) / totalShares
			pos.Shares = totalShares
		}
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}

		now := e.Now()
		txRow := &models.Transaction{
			UserID: userID, MarketID: marketID, Side: side, Type: models.TxBuy,
			Shares: q.Shares, PricePerShare: q.AvgPrice, TotalCash: amount, Timestamp: now,
		}
		if err := tx.AppendTransaction(ctx, txRow); err != nil {
			return err
		}

		newInv := lmsr.Inventory{QYes: newQYes, QNo: newQNo, B: market.B}
		pricePoint := &models.PricePoint{
			MarketID: marketID, YesPrice: lmsr.PriceYes(newInv), NoPrice: lmsr.PriceNo(newInv), Timestamp: now,
		}
		if err := tx.AppendPricePoint(ctx, pricePoint); err != nil {
			return err
		}

		result = TradeResult{
			TransactionID: txRow.ID,
			Shares:        q.Shares,
			PricePerShare: q.AvgPrice,
			TotalCost:     amount,
			NewBalance:    user.Balance - amount,
			NewPosition:   *pos,
		}
		return nil
	})
	if err != nil {
		return TradeResult{}, err
	}
	return result, nil
}

// ExecuteSell validates and executes a sell of previously bought
// shares.
func (e *Engine) ExecuteSell(ctx context.Context, userID, marketID int64, side models.Side, sharesToSell float64) (TradeResult, error) {
	if sharesToSell <= 0 {
		return TradeResult{}, core.New(core.KindValidation, "shares must be positive")
	}
	if side != models.SideYes && side != models.SideNo {
		return TradeResult{}, core.New(core.KindValidation, "side must be YES or NO")
	}

	var result TradeResult
	err := e.Store.Transaction(ctx, func(tx *store.Store) error {
		market, err := tx.GetMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if market.Status != models.StatusOpen {
			return core.New(core.KindMarketNotOpen, "market %d is %s", market.ID, market.Status)
		}

		pos, err := tx.GetPosition(ctx, userID, marketID, side)
		if err != nil {
			return err
		}
		if pos == nil || pos.Shares < sharesToSell {
			return core.New(core.KindInsufficientShare, "requested %.6f shares, held %.6f", sharesToSell, positionShares(pos))
		}

		inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}
		q := lmsr.QuoteSell(inv, lmsr.Side(side), sharesToSell)

		if err := tx.CreditBalance(ctx, userID, q.TotalCash); err != nil {
			return err
		}

		newQYes, newQNo := market.QYes, market.QNo
		if side == models.SideYes {
			newQYes -= sharesToSell
		} else {
			newQNo -= sharesToSell
		}
		if err := tx.UpdateMarketInventory(ctx, marketID, newQYes, newQNo); err != nil {
			return err
		}

		// avg_price is the historical cost basis and is never
		// recomputed on a sell.
		pos.Shares -= sharesToSell
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		if err := tx.DeletePositionIfDust(ctx, pos); err != nil {
			return err
		}

		now := e.Now()
		txRow := &models.Transaction{
			UserID: userID, MarketID: marketID, Side: side, Type: models.TxSell,
			Shares: sharesToSell, PricePerShare: q.AvgPrice, TotalCash: q.TotalCash, Timestamp: now,
		}
		if err := tx.AppendTransaction(ctx, txRow); err != nil {
			return err
		}

		newInv := lmsr.Inventory{QYes: newQYes, QNo: newQNo, B: market.B}
		pricePoint := &models.PricePoint{
			MarketID: marketID, YesPrice: lmsr.PriceYes(newInv), NoPrice: lmsr.PriceNo(newInv), Timestamp: now,
		}
		if err := tx.AppendPricePoint(ctx, pricePoint); err != nil {
			return err
		}

		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		result = TradeResult{
			TransactionID: txRow.ID,
			Shares:        sharesToSell,
			PricePerShare: q.AvgPrice,
			TotalCost:     q.TotalCash,
			NewBalance:    user.Balance,
			NewPosition:   *pos,
		}
		return nil
	})
	if err != nil {
		return TradeResult{}, err
	}
	return result, nil
}

func positionShares(p *models.Position) float64 {
	if p == nil {
		return 0
	}
	return p.Shares
}
