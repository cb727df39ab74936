// Package lmsr implements Hanson's Logarithmic Market Scoring Rule for
// a binary (YES/NO) outcome.
//
// LMSR provides:
//   - bounded loss for the market maker (max loss = b * ln(2))
//   - always-available liquidity (no order book, no counterparty needed)
//   - a price that is itself the implied probability
//
// Reference: "Logarithmic Market Scoring Rules for Modular Combinatorial
// Information Aggregation", Robin Hanson, 2003, George Mason University.
package lmsr

import "math"

const (
	bisectionIterations = 100
	bisectionTolerance  = 1e-4
	maxHiExpansions     = 50
)

// Side identifies which outcome a trade or inventory delta applies to.
type Side string

const (
	Yes Side = "YES"
	No  Side = "NO"
)

// Inventory is the net outstanding shares of each side for one market.
type Inventory struct {
	QYes float64
	QNo  float64
	B    float64 // liquidity parameter, > 0 for a live market
}

// Cost computes C(q_yes, q_no; b) = b * ln(exp(q_yes/b) + exp(q_no/b))
// using the log-sum-exp trick so it never overflows for large q/b.
func Cost(inv Inventory) float64 {
	if inv.B <= 0 {
		return 0
	}
	ey := inv.QYes / inv.B
	en := inv.QNo / inv.B
	m := math.Max(ey, en)
	return inv.B * (m + math.Log(math.Exp(ey-m)+math.Exp(en-m)))
}

// PriceYes returns the instantaneous YES price (probability), in (0,1).
// A degenerate b <= 0 is not permitted for a live market; callers get
// the uninformative 0.5 rather than a division by zero.
func PriceYes(inv Inventory) float64 {
	if inv.B <= 0 {
		return 0.5
	}
	ey := inv.QYes / inv.B
	en := inv.QNo / inv.B
	m := math.Max(ey, en)
	eY := math.Exp(ey - m)
	eN := math.Exp(en - m)
	return eY / (eY + eN)
}

// PriceNo returns the instantaneous NO price. PriceYes + PriceNo == 1.
func PriceNo(inv Inventory) float64 {
	return 1 - PriceYes(inv)
}

// costAfter returns the cost of the market after adding delta shares to
// the given side.
func costAfter(inv Inventory, side Side, delta float64) float64 {
	next := inv
	if side == Yes {
		next.QYes += delta
	} else {
		next.QNo += delta
	}
	return Cost(next)
}

// Quote is the result of pricing a trade without executing it.
type Quote struct {
	Shares        float64
	AvgPrice      float64
	TotalCash     float64
	PriceImpact   float64
	SpotBefore    float64
	NewPriceYes   float64
	NewPriceNo    float64
}

// QuoteBuy solves for the number of shares `s >= 0` such that
// C(q + s*e_side) - C(q) = amount, by bisection. lo starts at 0, hi
// starts at amount*10 (a share pays at most $1 on win, so near the
// degenerate tails the maker never gives more than 10x shares per
// dollar); if that upper bound turns out too small the bracket is
// doubled until it's big enough, or a hard cap is reached. The search
// stops at the first midpoint whose cost lies within the tolerance
// below amount, so the returned shares never cost more than amount.
func QuoteBuy(inv Inventory, side Side, amount float64) Quote {
	spotBefore := spotFor(inv, side)
	if amount <= 0 || inv.B <= 0 {
		return Quote{SpotBefore: spotBefore, NewPriceYes: PriceYes(inv), NewPriceNo: PriceNo(inv)}
	}

	baseCost := Cost(inv)
	target := amount

	lo, hi := 0.0, amount*10
	for i := 0; i < maxHiExpansions && costAfter(inv, side, hi)-baseCost < target; i++ {
		hi *= 2
	}

	shares := hi
	for i := 0; i < bisectionIterations; i++ {
		mid := (lo + hi) / 2
		midCost := costAfter(inv, side, mid) - baseCost
		if midCost <= target && target-midCost < bisectionTolerance {
			shares = mid
			break
		}
		if midCost < target {
			lo = mid
		} else {
			hi = mid
		}
		shares = (lo + hi) / 2
	}

	next := inv
	if side == Yes {
		next.QYes += shares
	} else {
		next.QNo += shares
	}

	avgPrice := 0.0
	if shares > 0 {
		avgPrice = amount / shares
	}
	impact := 0.0
	if spotBefore > 0 {
		impact = (avgPrice - spotBefore) / spotBefore
	}

	return Quote{
		Shares:      shares,
		AvgPrice:    avgPrice,
		TotalCash:   amount,
		PriceImpact: impact,
		SpotBefore:  spotBefore,
		NewPriceYes: PriceYes(next),
		NewPriceNo:  PriceNo(next),
	}
}

// QuoteSell computes the proceeds of selling `shares` of side, as the
// direct cost difference (no iteration needed): proceeds = max(0,
// C(q) - C(q - s*e_side)).
func QuoteSell(inv Inventory, side Side, shares float64) Quote {
	spotBefore := spotFor(inv, side)
	if shares <= 0 || inv.B <= 0 {
		return Quote{SpotBefore: spotBefore, NewPriceYes: PriceYes(inv), NewPriceNo: PriceNo(inv)}
	}

	before := Cost(inv)
	after := costAfter(inv, side, -shares)
	proceeds := math.Max(0, before-after)

	next := inv
	if side == Yes {
		next.QYes -= shares
	} else {
		next.QNo -= shares
	}

	avgPrice := proceeds / shares
	impact := 0.0
	if spotBefore > 0 {
		impact = (spotBefore - avgPrice) / spotBefore
	}

	return Quote{
		Shares:      shares,
		AvgPrice:    avgPrice,
		TotalCash:   proceeds,
		PriceImpact: impact,
		SpotBefore:  spotBefore,
		NewPriceYes: PriceYes(next),
		NewPriceNo:  PriceNo(next),
	}
}

func spotFor(inv Inventory, side Side) float64 {
	if side == Yes {
		return PriceYes(inv)
	}
	return PriceNo(inv)
}

// InitialInventory returns the (q_yes, q_no) pair that makes PriceYes
// equal to the target probability p, with q_no held at 0. p is clamped
// to [0.01, 0.99] to avoid an unbounded q_yes at the extremes.
func InitialInventory(b, p float64) Inventory {
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}
	qYes := b * math.Log(p/(1-p))
	return Inventory{QYes: qYes, QNo: 0, B: b}
}

// MaxLoss returns the market maker's worst-case loss for a binary
// market with liquidity parameter b: b * ln(2).
func MaxLoss(b float64) float64 {
	return b * math.Log(2)
}
