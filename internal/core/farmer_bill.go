package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// FarmerLotLine is one lot on a farmer's day bill.
type FarmerLotLine struct {
	LotID               int             `json:"lot_id"`
	LotNumber           string          `json:"lot_number"`
	Description         string          `json:"description"`
	NumberOfBags        int             `json:"number_of_bags"` // declared
	WeighedBags         int             `json:"weighed_bags"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	LotPrice            decimal.Decimal `json:"lot_price"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	VehicleRent         decimal.Decimal `json:"vehicle_rent"`
	Advance             decimal.Decimal `json:"advance"`
	UnloadHamali        decimal.Decimal `json:"unload_hamali"`
	Packaging           decimal.Decimal `json:"packaging"`
	WeighingFee         decimal.Decimal `json:"weighing_fee"`
	Commission          decimal.Decimal `json:"commission"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetAmount           decimal.Decimal `json:"net_amount"`
}

// FarmerBillSummary aggregates a farmer's lot lines.
type FarmerBillSummary struct {
	TotalLots           int             `json:"total_lots"`
	TotalBags           int             `json:"total_bags"`
	WeighedBags         int             `json:"weighed_bags"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	VehicleRent         decimal.Decimal `json:"vehicle_rent"`
	Advance             decimal.Decimal `json:"advance"`
	UnloadHamali        decimal.Decimal `json:"unload_hamali"`
	Packaging           decimal.Decimal `json:"packaging"`
	WeighingFee         decimal.Decimal `json:"weighing_fee"`
	Commission          decimal.Decimal `json:"commission"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetAmount           decimal.Decimal `json:"net_amount"`
}

// FarmerDayBill is the money owed to one farmer for one day. It is recomputed on every
// request and never stored.
type FarmerDayBill struct {
	Farmer  Farmer            `json:"farmer"`
	Date    string            `json:"date"` // YYYY-MM-DD
	Rates   RateConfig        `json:"rates"`
	Lots    []FarmerLotLine   `json:"lots"`
	Summary FarmerBillSummary `json:"summary"`
}

// FarmerBillCalculator computes farmer day bills.
type FarmerBillCalculator interface {
	// Calculate returns nil when the farmer does not exist or has no qualifying lot that day.
	Calculate(ctx context.Context, tenantID, farmerID int, date time.Time, rates RateConfig) (*FarmerDayBill, error)
}

type farmerBillCalculator struct {
	store Store
}

// NewFarmerBillCalculator constructs a FarmerBillCalculator reading from store.
func NewFarmerBillCalculator(store Store) FarmerBillCalculator {
	return &farmerBillCalculator{store: store}
}

func (c *farmerBillCalculator) Calculate(ctx context.Context, tenantID, farmerID int, date time.Time, rates RateConfig) (*FarmerDayBill, error) {
	farmer, err := c.store.GetFarmer(ctx, tenantID, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load farmer %d: %w", farmerID, err)
	}
	if farmer == nil {
		return nil, nil
	}

	from, to := DayWindow(date)
	lots, err := c.store.ListFarmerLots(ctx, LotQuery{
		TenantID: tenantID, PartyID: farmerID, From: from, To: to, Status: LotStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lots for farmer %d: %w", farmerID, err)
	}

	var lines []FarmerLotLine
	for _, lot := range lots {
		if !lot.priced() {
			continue
		}
		bags, err := c.store.ListBags(ctx, lot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bags for lot %d: %w", lot.ID, err)
		}
		weight := AggregateWeight(lot.ID, bags)
		if !weight.Billable() {
			log.Printf("[DAYBILL] farmer %d: lot %d has no weighed bags, skipped", farmerID, lot.ID)
			continue
		}
		lines = append(lines, FarmerLotSettlement(lot, weight, rates))
	}
	if len(lines) == 0 {
		return nil, nil
	}

	return &FarmerDayBill{
		Farmer:  *farmer,
		Date:    from.Format("2006-01-02"),
		Rates:   rates,
		Lots:    lines,
		Summary: summarizeFarmerLots(lines),
	}, nil
}

// FarmerLotSettlement computes one lot's gross, deductions and net for the farmer.
// Per-bag charges use the declared bag count; the gross uses weighed kilograms only.
func FarmerLotSettlement(lot Lot, w LotWeight, rates RateConfig) FarmerLotLine {
	bags := decimal.NewFromInt(int64(lot.NumberOfBags))

	gross := round2(w.TotalWeightQuintals.Mul(lot.LotPrice))
	hamali := round2(rates.UnloadHamaliPerBag.Mul(bags))
	if lot.UnloadHamali != nil {
		hamali = round2(*lot.UnloadHamali)
	}
	line := FarmerLotLine{
		LotID:               lot.ID,
		LotNumber:           lot.LotNumber,
		Description:         lot.Description(),
		NumberOfBags:        lot.NumberOfBags,
		WeighedBags:         w.WeighedBagCount,
		TotalWeightKg:       w.TotalWeightKg,
		TotalWeightQuintals: w.TotalWeightQuintals,
		LotPrice:            lot.LotPrice,
		GrossAmount:         gross,
		VehicleRent:         round2(valueOrZero(lot.VehicleRent)),
		Advance:             round2(valueOrZero(lot.Advance)),
		UnloadHamali:        hamali,
		Packaging:           round2(rates.PackagingPerBag.Mul(bags)),
		WeighingFee:         round2(rates.WeighingFeePerBag.Mul(bags)),
		Commission:          round2(percentOf(gross, rates.CommissionPct)),
	}
	line.TotalDeductions = line.VehicleRent.
		Add(line.Advance).
		Add(line.UnloadHamali).
		Add(line.Packaging).
		Add(line.WeighingFee).
		Add(line.Commission)
	line.NetAmount = line.GrossAmount.Sub(line.TotalDeductions)
	return line
}

func summarizeFarmerLots(lines []FarmerLotLine) FarmerBillSummary {
	s := FarmerBillSummary{
		TotalWeightKg:       decimal.Zero,
		TotalWeightQuintals: decimal.Zero,
		GrossAmount:         decimal.Zero,
		VehicleRent:         decimal.Zero,
		Advance:             decimal.Zero,
		UnloadHamali:        decimal.Zero,
		Packaging:           decimal.Zero,
		WeighingFee:         decimal.Zero,
		Commission:          decimal.Zero,
		TotalDeductions:     decimal.Zero,
		NetAmount:           decimal.Zero,
	}
	for _, l := range lines {
		s.TotalLots++
		s.TotalBags += l.NumberOfBags
		s.WeighedBags += l.WeighedBags
		s.TotalWeightKg = s.TotalWeightKg.Add(l.TotalWeightKg)
		s.GrossAmount = s.GrossAmount.Add(l.GrossAmount)
		s.VehicleRent = s.VehicleRent.Add(l.VehicleRent)
		s.Advance = s.Advance.Add(l.Advance)
		s.UnloadHamali = s.UnloadHamali.Add(l.UnloadHamali)
		s.Packaging = s.Packaging.Add(l.Packaging)
		s.WeighingFee = s.WeighingFee.Add(l.WeighingFee)
		s.Commission = s.Commission.Add(l.Commission)
		s.TotalDeductions = s.TotalDeductions.Add(l.TotalDeductions)
		s.NetAmount = s.NetAmount.Add(l.NetAmount)
	}
	s.TotalWeightQuintals = s.TotalWeightKg.Div(hundred)
	return s
}
