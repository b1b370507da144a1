package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BuyerLotLine is one lot (or allocated share) on a buyer's day bill. Taxes here are
// levied on the basic amount only; the tax invoice uses a wider base.
type BuyerLotLine struct {
	LotID               int             `json:"lot_id"`
	LotNumber           string          `json:"lot_number"`
	FarmerName          string          `json:"farmer_name"`
	Description         string          `json:"description"`
	Allocated           bool            `json:"allocated"`
	NumberOfBags        int             `json:"number_of_bags"`
	WeighedBags         int             `json:"weighed_bags"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	LotPrice            decimal.Decimal `json:"lot_price"`
	BasicAmount         decimal.Decimal `json:"basic_amount"`
	Packing             decimal.Decimal `json:"packing"`
	Weighing            decimal.Decimal `json:"weighing"`
	Commission          decimal.Decimal `json:"commission"`
	SGST                decimal.Decimal `json:"sgst"`
	CGST                decimal.Decimal `json:"cgst"`
	Cess                decimal.Decimal `json:"cess"`
	TotalCharges        decimal.Decimal `json:"total_charges"`
	LotTotal            decimal.Decimal `json:"lot_total"`
}

// BuyerBillSummary aggregates a buyer's lot lines.
type BuyerBillSummary struct {
	TotalLots           int             `json:"total_lots"`
	TotalBags           int             `json:"total_bags"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	BasicAmount         decimal.Decimal `json:"basic_amount"`
	Packing             decimal.Decimal `json:"packing"`
	Weighing            decimal.Decimal `json:"weighing"`
	Commission          decimal.Decimal `json:"commission"`
	SGST                decimal.Decimal `json:"sgst"`
	CGST                decimal.Decimal `json:"cgst"`
	Cess                decimal.Decimal `json:"cess"`
	TotalCharges        decimal.Decimal `json:"total_charges"`
	TotalPayable        decimal.Decimal `json:"total_payable"`
}

// BuyerDayBill is the money owed by one buyer for one day. Never stored.
type BuyerDayBill struct {
	Buyer    Buyer            `json:"buyer"`
	Date     string           `json:"date"`
	Rates    RateConfig       `json:"rates"`
	Lots     []BuyerLotLine   `json:"lots"`
	Summary  BuyerBillSummary `json:"summary"`
	Warnings []string         `json:"warnings,omitempty"`
}

// BuyerBillCalculator computes buyer day bills.
type BuyerBillCalculator interface {
	// Calculate returns nil when the buyer does not exist or has no qualifying lot that day.
	Calculate(ctx context.Context, tenantID, buyerID int, date time.Time, rates RateConfig) (*BuyerDayBill, error)
}

type buyerBillCalculator struct {
	store Store
}

// NewBuyerBillCalculator constructs a BuyerBillCalculator reading from store.
func NewBuyerBillCalculator(store Store) BuyerBillCalculator {
	return &buyerBillCalculator{store: store}
}

func (c *buyerBillCalculator) Calculate(ctx context.Context, tenantID, buyerID int, date time.Time, rates RateConfig) (*BuyerDayBill, error) {
	buyer, err := c.store.GetBuyer(ctx, tenantID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer %d: %w", buyerID, err)
	}
	if buyer == nil {
		return nil, nil
	}

	from, to := DayWindow(date)
	shares, warnings, err := collectBuyerShares(ctx, c.store, tenantID, buyerID, from, to, nil)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return nil, nil
	}

	lines := make([]BuyerLotLine, 0, len(shares))
	for _, sh := range shares {
		lines = append(lines, buyerLotSettlement(sh, rates))
	}
	return &BuyerDayBill{
		Buyer:    *buyer,
		Date:     from.Format("2006-01-02"),
		Rates:    rates,
		Lots:     lines,
		Summary:  summarizeBuyerLots(lines),
		Warnings: warnings,
	}, nil
}

func buyerLotSettlement(sh buyerShare, rates RateConfig) BuyerLotLine {
	bags := decimal.NewFromInt(int64(sh.Bags))
	basic := round2(sh.Weight.TotalWeightQuintals.Mul(sh.Lot.LotPrice))

	line := BuyerLotLine{
		LotID:               sh.Lot.ID,
		LotNumber:           sh.Lot.LotNumber,
		FarmerName:          sh.Lot.FarmerName,
		Description:         sh.Lot.Description(),
		Allocated:           sh.Allocated,
		NumberOfBags:        sh.Bags,
		WeighedBags:         sh.Weight.WeighedBagCount,
		TotalWeightKg:       sh.Weight.TotalWeightKg,
		TotalWeightQuintals: sh.Weight.TotalWeightQuintals,
		LotPrice:            sh.Lot.LotPrice,
		BasicAmount:         basic,
		Packing:             round2(rates.PackagingPerBag.Mul(bags)),
		Weighing:            round2(rates.WeighingFeePerBag.Mul(bags)),
		Commission:          round2(percentOf(basic, rates.CommissionPct)),
		SGST:                round2(percentOf(basic, rates.SGSTPct)),
		CGST:                round2(percentOf(basic, rates.CGSTPct)),
		Cess:                round2(percentOf(basic, rates.CessPct)),
	}
	line.TotalCharges = line.Packing.
		Add(line.Weighing).
		Add(line.Commission).
		Add(line.SGST).
		Add(line.CGST).
		Add(line.Cess)
	line.LotTotal = line.BasicAmount.Add(line.TotalCharges)
	return line
}

func summarizeBuyerLots(lines []BuyerLotLine) BuyerBillSummary {
	s := BuyerBillSummary{
		TotalWeightKg: decimal.Zero,
		BasicAmount:   decimal.Zero,
		Packing:       decimal.Zero,
		Weighing:      decimal.Zero,
		Commission:    decimal.Zero,
		SGST:          decimal.Zero,
		CGST:          decimal.Zero,
		Cess:          decimal.Zero,
		TotalCharges:  decimal.Zero,
	}
	for _, l := range lines {
		s.TotalLots++
		s.TotalBags += l.NumberOfBags
		s.TotalWeightKg = s.TotalWeightKg.Add(l.TotalWeightKg)
		s.BasicAmount = s.BasicAmount.Add(l.BasicAmount)
		s.Packing = s.Packing.Add(l.Packing)
		s.Weighing = s.Weighing.Add(l.Weighing)
		s.Commission = s.Commission.Add(l.Commission)
		s.SGST = s.SGST.Add(l.SGST)
		s.CGST = s.CGST.Add(l.CGST)
		s.Cess = s.Cess.Add(l.Cess)
		s.TotalCharges = s.TotalCharges.Add(l.TotalCharges)
	}
	s.TotalWeightQuintals = s.TotalWeightKg.Div(hundred)
	s.TotalPayable = s.BasicAmount.Add(s.TotalCharges)
	return s
}
