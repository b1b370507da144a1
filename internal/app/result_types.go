package app

import "mandi-billing/internal/core"

// RatesResult is returned by GetRates.
type RatesResult struct {
	TenantID int             `json:"tenant_id"`
	Rates    core.RateConfig `json:"rates"`
}

// FarmerBillResult is returned by GetFarmerDayBill.
type FarmerBillResult struct {
	Bill *core.FarmerDayBill `json:"bill"`
}

// BuyerBillResult is returned by GetBuyerDayBill.
type BuyerBillResult struct {
	Bill *core.BuyerDayBill `json:"bill"`
}

// FarmerBillListResult is returned by ListFarmerDayBills.
type FarmerBillListResult struct {
	Date  string               `json:"date"`
	Bills []core.FarmerDayBill `json:"bills"`
}

// BuyerBillListResult is returned by ListBuyerDayBills.
type BuyerBillListResult struct {
	Date  string              `json:"date"`
	Bills []core.BuyerDayBill `json:"bills"`
}

// InvoiceResult is returned by GenerateInvoice. Invoice is nil when NothingToInvoice.
type InvoiceResult struct {
	Invoice          *core.TaxInvoice `json:"invoice,omitempty"`
	Created          bool             `json:"created"`
	NothingToInvoice bool             `json:"nothing_to_invoice"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Date     string            `json:"date"`
	Invoices []core.TaxInvoice `json:"invoices"`
}
