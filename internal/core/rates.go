package core

import "github.com/shopspring/decimal"

// TenantSettings is the stored fee/tax configuration of a tenant. Any field may be nil.
type TenantSettings struct {
	TenantID           int              `json:"tenant_id"`
	SGSTPct            *decimal.Decimal `json:"sgst_pct,omitempty"`
	CGSTPct            *decimal.Decimal `json:"cgst_pct,omitempty"`
	CessPct            *decimal.Decimal `json:"cess_pct,omitempty"`
	UnloadHamaliPerBag *decimal.Decimal `json:"unload_hamali_per_bag,omitempty"`
	PackagingPerBag    *decimal.Decimal `json:"packaging_per_bag,omitempty"`
	WeighingFeePerBag  *decimal.Decimal `json:"weighing_fee_per_bag,omitempty"`
	CommissionPct      *decimal.Decimal `json:"commission_pct,omitempty"`
}

// RateConfig is the complete rate set every calculator works from.
// Percentages are in percent (2.5 means 2.5%); per-bag values are rupees.
type RateConfig struct {
	SGSTPct            decimal.Decimal `json:"sgst_pct"`
	CGSTPct            decimal.Decimal `json:"cgst_pct"`
	CessPct            decimal.Decimal `json:"cess_pct"`
	UnloadHamaliPerBag decimal.Decimal `json:"unload_hamali_per_bag"`
	PackagingPerBag    decimal.Decimal `json:"packaging_per_bag"`
	WeighingFeePerBag  decimal.Decimal `json:"weighing_fee_per_bag"`
	CommissionPct      decimal.Decimal `json:"commission_pct"`
}

// DefaultRates is the only fallback rate set in the system.
func DefaultRates() RateConfig {
	return RateConfig{
		SGSTPct:            decimal.RequireFromString("2.5"),
		CGSTPct:            decimal.RequireFromString("2.5"),
		CessPct:            decimal.RequireFromString("0.6"),
		UnloadHamaliPerBag: decimal.NewFromInt(3),
		PackagingPerBag:    decimal.NewFromInt(5),
		WeighingFeePerBag:  decimal.NewFromInt(2),
		CommissionPct:      decimal.NewFromInt(2),
	}
}

// ResolveRates fills every absent (or negative) setting from DefaultRates.
// A nil settings value yields the defaults. It never fails.
func ResolveRates(s *TenantSettings) RateConfig {
	r := DefaultRates()
	if s == nil {
		return r
	}
	r.SGSTPct = pick(s.SGSTPct, r.SGSTPct)
	r.CGSTPct = pick(s.CGSTPct, r.CGSTPct)
	r.CessPct = pick(s.CessPct, r.CessPct)
	r.UnloadHamaliPerBag = pick(s.UnloadHamaliPerBag, r.UnloadHamaliPerBag)
	r.PackagingPerBag = pick(s.PackagingPerBag, r.PackagingPerBag)
	r.WeighingFeePerBag = pick(s.WeighingFeePerBag, r.WeighingFeePerBag)
	r.CommissionPct = pick(s.CommissionPct, r.CommissionPct)
	return r
}

func pick(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil || v.IsNegative() {
		return fallback
	}
	return *v
}
