package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LotWeight is the weighed total of a lot (or of a buyer's share of it).
type LotWeight struct {
	LotID               int             `json:"lot_id"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	WeighedBagCount     int             `json:"weighed_bag_count"`
}

// Billable reports whether at least one bag was weighed.
func (w LotWeight) Billable() bool { return w.WeighedBagCount > 0 }

// AggregateWeight sums the positive bag weights. Unweighed bags are ignored entirely.
func AggregateWeight(lotID int, bags []Bag) LotWeight {
	w := LotWeight{LotID: lotID, TotalWeightKg: decimal.Zero}
	for _, b := range bags {
		if b.Weight == nil || !b.Weight.IsPositive() {
			continue
		}
		w.TotalWeightKg = w.TotalWeightKg.Add(*b.Weight)
		w.WeighedBagCount++
	}
	w.TotalWeightQuintals = w.TotalWeightKg.Div(hundred)
	return w
}

// round2 rounds half away from zero to two places.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// percentOf returns base * pct / 100, unrounded.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}
