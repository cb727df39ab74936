package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/models"
)

// GetUser loads a user by id. Returns core.KindNotFound if absent.
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.DB(ctx).First(&u, id).Error; err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return &u, nil
}

// GetUserByUsername loads a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.DB(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return &u, nil
}

// GetUserByAPIKeyHash loads a user by the hash of their API key.
func (s *Store) GetUserByAPIKeyHash(ctx context.Context, hash string) (*models.User, error) {
	var u models.User
	if err := s.DB(ctx).Where("api_key_hash = ?", hash).First(&u).Error; err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return &u, nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.DB(ctx).Create(u).Error
}

// DebitBalance subtracts amount from the user's balance. Fails with
// core.KindInsufficientFunds if the balance is too low. Must be called
// inside a Transaction to be atomic with the rest of a trade.
func (s *Store) DebitBalance(ctx context.Context, userID int64, amount float64) error {
	var u models.User
	if err := s.DB(ctx).First(&u, userID).Error; err != nil {
		return wrapNotFound(err, "user")
	}
	if u.Balance < amount {
		return core.New(core.KindInsufficientFunds, "balance %.4f below requested %.4f", u.Balance, amount)
	}
	return s.DB(ctx).Model(&u).Update("balance", u.Balance-amount).Error
}

// CreditBalance adds amount to the user's balance.
func (s *Store) CreditBalance(ctx context.Context, userID int64, amount float64) error {
	var u models.User
	if err := s.DB(ctx).First(&u, userID).Error; err != nil {
		return wrapNotFound(err, "user")
	}
	return s.DB(ctx).Model(&u).Update("balance", u.Balance+amount).Error
}

// GetMarket loads a market by id.
func (s *Store) GetMarket(ctx context.Context, id int64) (*models.Market, error) {
	var m models.Market
	if err := s.DB(ctx).First(&m, id).Error; err != nil {
		return nil, wrapNotFound(err, "market")
	}
	return &m, nil
}

// CreateMarket inserts a new market row.
func (s *Store) CreateMarket(ctx context.Context, m *models.Market) error {
	return s.DB(ctx).Create(m).Error
}

// ListMarkets returns every market, most recently created first.
func (s *Store) ListMarkets(ctx context.Context) ([]models.Market, error) {
	var out []models.Market
	if err := s.DB(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateMarketInventory persists a new (q_yes, q_no) for a market.
func (s *Store) UpdateMarketInventory(ctx context.Context, marketID int64, qYes, qNo float64) error {
	return s.DB(ctx).Model(&models.Market{}).Where("id = ?", marketID).
		Updates(map[string]any{"q_yes": qYes, "q_no": qNo}).Error
}

// MarkResolved transitions a market to resolved with the given outcome.
func (s *Store) MarkResolved(ctx context.Context, marketID int64, outcome models.Outcome, resolvedAt time.Time) error {
	return s.DB(ctx).Model(&models.Market{}).Where("id = ?", marketID).
		Updates(map[string]any{
			"status":      models.StatusResolved,
			"outcome":     outcome,
			"resolved_at": resolvedAt,
		}).Error
}

// MarkClosed transitions a market to closed (the non-terminal state a
// scheduler falls back to when resolution fails persistently).
func (s *Store) MarkClosed(ctx context.Context, marketID int64) error {
	return s.DB(ctx).Model(&models.Market{}).Where("id = ?", marketID).
		Update("status", models.StatusClosed).Error
}

// ListMarketsDue returns open markets whose close time has passed.
func (s *Store) ListMarketsDue(ctx context.Context, now time.Time) ([]models.Market, error) {
	var out []models.Market
	if err := s.DB(ctx).Where("status = ? AND close_at <= ?", models.StatusOpen, now).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetPosition loads the (user, market, side) position row. Returns nil
// (not an error) when no such position exists — callers that need to
// distinguish "never held" from "found" check for a nil return.
func (s *Store) GetPosition(ctx context.Context, userID, marketID int64, side models.Side) (*models.Position, error) {
	var p models.Position
	err := s.DB(ctx).Where("user_id = ? AND market_id = ? AND side = ?", userID, marketID, side).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPosition creates the row if p.ID is zero, otherwise updates
// shares and avg price on the existing row.
func (s *Store) UpsertPosition(ctx context.Context, p *models.Position) error {
	if p.ID == 0 {
		return s.DB(ctx).Create(p).Error
	}
	return s.DB(ctx).Model(&models.Position{}).Where("id = ?", p.ID).
		Updates(map[string]any{"shares": p.Shares, "avg_price": p.AvgPrice}).Error
}

// DeletePositionIfDust removes the row when shares have fallen below
// the dust threshold, preventing permanent phantom rows.
func (s *Store) DeletePositionIfDust(ctx context.Context, p *models.Position) error {
	if p.Shares >= models.DustThreshold {
		return nil
	}
	return s.DB(ctx).Delete(&models.Position{}, p.ID).Error
}

// ListPositionsBySide returns every position on one side of a market,
// used by the resolver to pay winners.
func (s *Store) ListPositionsBySide(ctx context.Context, marketID int64, side models.Side) ([]models.Position, error) {
	var out []models.Position
	if err := s.DB(ctx).Where("market_id = ? AND side = ?", marketID, side).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListPositionsByUser returns every position a user holds, for
// portfolio projections.
func (s *Store) ListPositionsByUser(ctx context.Context, userID int64) ([]models.Position, error) {
	var out []models.Position
	if err := s.DB(ctx).Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AppendTransaction inserts an immutable trade record.
func (s *Store) AppendTransaction(ctx context.Context, t *models.Transaction) error {
	return s.DB(ctx).Create(t).Error
}

// ListTransactionsByMarket returns trades for a market, most recent
// first, for the market view and market stats query projections.
func (s *Store) ListTransactionsByMarket(ctx context.Context, marketID int64, limit int) ([]models.Transaction, error) {
	q := s.DB(ctx).Where("market_id = ?", marketID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Transaction
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AppendPricePoint inserts an immutable post-trade price snapshot.
func (s *Store) AppendPricePoint(ctx context.Context, p *models.PricePoint) error {
	return s.DB(ctx).Create(p).Error
}

// ListPricePointsByMarket returns the price history for a market in
// chronological order.
func (s *Store) ListPricePointsByMarket(ctx context.Context, marketID int64) ([]models.PricePoint, error) {
	var out []models.PricePoint
	if err := s.DB(ctx).Where("market_id = ?", marketID).Order("timestamp ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// InsertResolution inserts the immutable, one-per-market resolution
// proof row.
func (s *Store) InsertResolution(ctx context.Context, r *models.Resolution) error {
	return s.DB(ctx).Create(r).Error
}

// GetResolution loads the resolution proof for a market, if any.
func (s *Store) GetResolution(ctx context.Context, marketID int64) (*models.Resolution, error) {
	var r models.Resolution
	if err := s.DB(ctx).Where("market_id = ?", marketID).First(&r).Error; err != nil {
		return nil, wrapNotFound(err, "resolution")
	}
	return &r, nil
}

func wrapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.New(core.KindNotFound, "%s not found", what)
	}
	return core.New(core.KindInternal, "%s: %v", what, err)
}
