package app

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the party does not exist or has nothing billable for the day.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps malformed request values such as a bad date.
	ErrInvalidInput = errors.New("invalid input")
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Dates are "YYYY-MM-DD" in the billing timezone; an empty date means today.
type ApplicationService interface {
	// GetRates returns the tenant's resolved rate configuration.
	GetRates(ctx context.Context, tenantID int) (*RatesResult, error)

	// GetFarmerDayBill returns ErrNotFound when the farmer is unknown or has no
	// qualifying lot on the date.
	GetFarmerDayBill(ctx context.Context, req FarmerBillRequest) (*FarmerBillResult, error)

	// GetBuyerDayBill is the buyer counterpart of GetFarmerDayBill.
	GetBuyerDayBill(ctx context.Context, req BuyerBillRequest) (*BuyerBillResult, error)

	// ListFarmerDayBills returns every farmer bill of the day. An empty day is an empty list.
	ListFarmerDayBills(ctx context.Context, req DayRequest) (*FarmerBillListResult, error)

	// ListBuyerDayBills returns every buyer bill of the day.
	ListBuyerDayBills(ctx context.Context, req DayRequest) (*BuyerBillListResult, error)

	// GenerateInvoice issues a tax invoice for the buyer's uninvoiced lots of the day.
	// Repeating the call is safe: already-invoiced lots are never billed again.
	GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) (*InvoiceResult, error)

	// ListInvoices returns the invoices already issued to a buyer on the date.
	ListInvoices(ctx context.Context, req BuyerBillRequest) (*InvoiceListResult, error)
}
