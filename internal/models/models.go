// Package models holds the GORM-backed entities of the exchange:
// users, markets, positions, transactions, price points, and
// resolutions.
package models

import "time"

// User is a trading identity with a cash balance. Balance is mutated
// only by the trading engine (debit on buy, credit on sell) and the
// resolver (credit on win).
type User struct {
	ID          int64     `json:"id" gorm:"primary_key"`
	Username    string    `json:"username" gorm:"unique;not null;size:50"`
	DisplayName string    `json:"displayName" gorm:"size:100"`
	APIKeyHash  string    `json:"-" gorm:"unique;not null"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Balance     float64   `json:"balance" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarketStatus is the lifecycle state of a market: open -> closed ->
// resolved, with the closed step skippable (open -> resolved directly).
type MarketStatus string

const (
	StatusOpen     MarketStatus = "open"
	StatusClosed   MarketStatus = "closed"
	StatusResolved MarketStatus = "resolved"
)

// Outcome is the winning side of a resolved market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// ResolutionCriteria describes how an oracle-backed market is scored:
// a dotted path into the fetched payload, a comparison operator, and
// the expected value to compare against.
type ResolutionCriteria struct {
	Path     string `json:"path"`
	Operator string `json:"operator"`
	Value    Scalar `json:"value"`
}

// Market is a single binary question with an LMSR inventory.
//
// Source is either "manual" (creator resolves by hand), or a URL that
// the configured DataFetcher can reach for automatic resolution.
type Market struct {
	ID                 int64        `json:"id" gorm:"primary_key"`
	Title              string       `json:"title" gorm:"not null;size:300"`
	Description        string       `json:"description" gorm:"type:text"`
	Category           string       `json:"category" gorm:"default:general;index"`
	Source             string       `json:"source" gorm:"not null;default:manual"`
	CriteriaPath       string       `json:"criteriaPath"`
	CriteriaOperator   string       `json:"criteriaOperator"`
	CriteriaValueJSON  string       `json:"-" gorm:"column:criteria_value_json;type:text"`
	CloseAt            time.Time    `json:"closeAt" gorm:"not null;index"`
	CreatorUsername    string       `json:"creatorUsername" gorm:"not null"`
	Creator            User         `json:"-" gorm:"foreignKey:CreatorUsername;references:Username"`
	QYes               float64      `json:"qYes" gorm:"not null;default:0"`
	QNo                float64      `json:"qNo" gorm:"not null;default:0"`
	B                  float64      `json:"b" gorm:"not null"`
	Status             MarketStatus `json:"status" gorm:"not null;default:open;index"`
	Outcome            Outcome      `json:"outcome,omitempty"`
	ResolvedAt         *time.Time   `json:"resolvedAt,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// Criteria reassembles the typed ResolutionCriteria from the market's
// flat columns (GORM has no native support for an embedded tagged
// union, so the Scalar value is persisted as a JSON document).
func (m *Market) Criteria() (ResolutionCriteria, error) {
	var val Scalar
	if m.CriteriaValueJSON != "" {
		if err := val.UnmarshalJSON([]byte(m.CriteriaValueJSON)); err != nil {
			return ResolutionCriteria{}, err
		}
	}
	return ResolutionCriteria{Path: m.CriteriaPath, Operator: m.CriteriaOperator, Value: val}, nil
}

// SetCriteria flattens a ResolutionCriteria into the market's columns.
func (m *Market) SetCriteria(c ResolutionCriteria) error {
	raw, err := c.Value.MarshalJSON()
	if err != nil {
		return err
	}
	m.CriteriaPath = c.Path
	m.CriteriaOperator = c.Operator
	m.CriteriaValueJSON = string(raw)
	return nil
}

// Side is which outcome a position, transaction, or trade applies to.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// DustThreshold is the minimum number of shares a position may hold
// before it is treated as fully sold and deleted.
const DustThreshold = 1e-4

// Position is a user's holding of one side of one market. At most one
// row exists per (UserID, MarketID, Side).
type Position struct {
	ID        int64     `json:"id" gorm:"primary_key"`
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:idx_position_key"`
	MarketID  int64     `json:"marketId" gorm:"not null;uniqueIndex:idx_position_key;index"`
	Side      Side      `json:"side" gorm:"not null;uniqueIndex:idx_position_key;size:3"`
	Shares    float64   `json:"shares" gorm:"not null;default:0"`
	AvgPrice  float64   `json:"avgPrice" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TransactionType distinguishes a buy from a sell.
type TransactionType string

const (
	TxBuy  TransactionType = "BUY"
	TxSell TransactionType = "SELL"
)

// Transaction is an immutable, append-only record of one trade.
type Transaction struct {
	ID             int64           `json:"id" gorm:"primary_key"`
	UserID         int64           `json:"userId" gorm:"not null"`
	MarketID       int64           `json:"marketId" gorm:"not null;index:idx_tx_market_ts"`
	Side           Side            `json:"side" gorm:"not null;size:3"`
	Type           TransactionType `json:"type" gorm:"not null;size:4"`
	Shares         float64         `json:"shares" gorm:"not null"`
	PricePerShare  float64         `json:"pricePerShare" gorm:"not null"`
	TotalCash      float64         `json:"totalCash" gorm:"not null"`
	Timestamp      time.Time       `json:"timestamp" gorm:"not null;index:idx_tx_market_ts"`
}

// PricePoint is an immutable, append-only post-trade price snapshot.
type PricePoint struct {
	ID        int64     `json:"id" gorm:"primary_key"`
	MarketID  int64     `json:"marketId" gorm:"not null;index:idx_price_market_ts"`
	YesPrice  float64   `json:"yesPrice" gorm:"not null"`
	NoPrice   float64   `json:"noPrice" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_price_market_ts"`
}

// Resolution is the immutable, one-per-market proof of how a market
// was resolved.
type Resolution struct {
	ID                  int64     `json:"id" gorm:"primary_key"`
	MarketID            int64     `json:"marketId" gorm:"not null;uniqueIndex"`
	Outcome             Outcome   `json:"outcome" gorm:"not null;size:3"`
	SourceURL           string    `json:"sourceUrl"`
	SourceResponseJSON  string    `json:"sourceResponse" gorm:"type:text"`
	CalculationStepsJSON string   `json:"calculationSteps" gorm:"type:text"`
	FinalValueJSON      string    `json:"finalValue" gorm:"type:text"`
	ResolvedBy          string    `json:"resolvedBy" gorm:"not null"`
	ResolvedAt          time.Time `json:"resolvedAt" gorm:"not null"`
}
