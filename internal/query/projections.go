// Package query implements the read-only query projections: assembling
// display-ready views from store rows without ever mutating them.
// Follows a ToPublic()-style convention — a function that flattens a
// row plus its relations into a DTO.
package query

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"

	"lmsrexchange/internal/lmsr"
	"lmsrexchange/internal/models"
	"lmsrexchange/internal/store"
)

// MarketView is a market enriched with live prices, volume, and price
// history
type MarketView struct {
	Market          models.Market
	DescriptionHTML string
	PYes            float64
	PNo             float64
	Volume          float64
	PriceHistory    []models.PricePoint
}

// MarketViewFor assembles the market_view projection for marketID.
func MarketViewFor(ctx context.Context, s *store.Store, marketID int64) (MarketView, error) {
	market, err := s.GetMarket(ctx, marketID)
	if err != nil {
		return MarketView{}, err
	}

	inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}

	txs, err := s.ListTransactionsByMarket(ctx, marketID, 0)
	if err != nil {
		return MarketView{}, err
	}
	var volume float64
	for _, t := range txs {
		volume += t.TotalCash
	}

	history, err := s.ListPricePointsByMarket(ctx, marketID)
	if err != nil {
		return MarketView{}, err
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(market.Description), &buf); err != nil {
		return MarketView{}, err
	}

	return MarketView{
		Market:          *market,
		DescriptionHTML: buf.String(),
		PYes:            lmsr.PriceYes(inv),
		PNo:             lmsr.PriceNo(inv),
		Volume:          volume,
		PriceHistory:    history,
	}, nil
}

// PortfolioPosition is one enriched holding within a Portfolio.
type PortfolioPosition struct {
	Position         models.Position
	CurrentPrice     float64
	CurrentValue     float64
	CostBasis        float64
	PnL              float64
	PotentialPayout  float64
}

// Portfolio is a user's balance plus every enriched position.
type Portfolio struct {
	Balance   float64
	Positions []PortfolioPosition
}

// PortfolioFor assembles the portfolio projection for userID.
func PortfolioFor(ctx context.Context, s *store.Store, userID int64) (Portfolio, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}

	positions, err := s.ListPositionsByUser(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}

	marketCache := map[int64]models.Market{}
	out := make([]PortfolioPosition, 0, len(positions))
	for _, pos := range positions {
		market, ok := marketCache[pos.MarketID]
		if !ok {
			m, err := s.GetMarket(ctx, pos.MarketID)
			if err != nil {
				return Portfolio{}, err
			}
			market = *m
			marketCache[pos.MarketID] = market
		}

		inv := lmsr.Inventory{QYes: market.QYes, QNo: market.QNo, B: market.B}
		currentPrice := lmsr.PriceYes(inv)
		if pos.Side == models.SideNo {
			currentPrice = lmsr.PriceNo(inv)
		}
		// Losing rows are kept after resolution; value them at zero.
		if market.Status == models.StatusResolved && string(market.Outcome) != string(pos.Side) {
			currentPrice = 0
		}

		currentValue := pos.Shares * currentPrice
		costBasis := pos.Shares * pos.AvgPrice
		out = append(out, PortfolioPosition{
			Position:        pos,
			CurrentPrice:    currentPrice,
			CurrentValue:    currentValue,
			CostBasis:       costBasis,
			PnL:             currentValue - costBasis,
			PotentialPayout: pos.Shares * 1.0,
		})
	}

	return Portfolio{Balance: user.Balance, Positions: out}, nil
}

// MarketStats is aggregate market activity: trader count, volume, and
// position-holder counts.
type MarketStats struct {
	DistinctTraders int
	TotalVolume     float64
	TransactionCount int
	PositionHolders int
}

// MarketStatsFor assembles the market_stats projection for marketID.
func MarketStatsFor(ctx context.Context, s *store.Store, marketID int64) (MarketStats, error) {
	txs, err := s.ListTransactionsByMarket(ctx, marketID, 0)
	if err != nil {
		return MarketStats{}, err
	}

	traders := map[int64]struct{}{}
	var volume float64
	for _, t := range txs {
		traders[t.UserID] = struct{}{}
		volume += t.TotalCash
	}

	yesHolders, err := s.ListPositionsBySide(ctx, marketID, models.SideYes)
	if err != nil {
		return MarketStats{}, err
	}
	noHolders, err := s.ListPositionsBySide(ctx, marketID, models.SideNo)
	if err != nil {
		return MarketStats{}, err
	}

	return MarketStats{
		DistinctTraders:  len(traders),
		TotalVolume:      volume,
		TransactionCount: len(txs),
		PositionHolders:  len(yesHolders) + len(noHolders),
	}, nil
}
