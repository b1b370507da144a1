package core

import (
	"context"
	"errors"
	"time"
)

// ErrLotsAlreadyInvoiced is returned by Store.SaveInvoice when another invoice for the
// same buyer already covers one of the lots.
var ErrLotsAlreadyInvoiced = errors.New("lots already invoiced for buyer")

// LotQuery selects lots for one party created in [From, To) with the given status.
type LotQuery struct {
	TenantID int
	PartyID  int // farmer or buyer, depending on the call
	From     time.Time
	To       time.Time
	Status   LotStatus
}

// Store is the data-access collaborator. Lookups of missing rows return (nil, nil).
type Store interface {
	GetTenant(ctx context.Context, tenantID int) (*Tenant, error)
	GetTenantSettings(ctx context.Context, tenantID int) (*TenantSettings, error)
	GetFarmer(ctx context.Context, tenantID, farmerID int) (*Farmer, error)
	GetBuyer(ctx context.Context, tenantID, buyerID int) (*Buyer, error)

	// ListFarmerLots returns the farmer's lots in the window.
	ListFarmerLots(ctx context.Context, q LotQuery) ([]Lot, error)
	// ListBuyerLots returns lots whose buyer_id is the buyer and that have no allocation
	// records. Once a lot is split, every buyer reaches it only through ListBuyerAllocations.
	ListBuyerLots(ctx context.Context, q LotQuery) ([]Lot, error)
	// ListBuyerAllocations returns allocation records for the buyer with their lots joined.
	// Unparseable selections come back with Allocation.Err set instead of failing the call.
	ListBuyerAllocations(ctx context.Context, q LotQuery) ([]Allocation, error)
	ListBags(ctx context.Context, lotID int) ([]Bag, error)

	// ListFarmerIDsWithLots and ListBuyerIDsWithLots enumerate parties that have at least
	// one completed, priced lot in the window, applying the same split-lot rule as
	// ListBuyerLots. Weighing is checked by the calculators.
	ListFarmerIDsWithLots(ctx context.Context, tenantID int, from, to time.Time) ([]int, error)
	ListBuyerIDsWithLots(ctx context.Context, tenantID int, from, to time.Time) ([]int, error)

	// ListInvoices returns the buyer's persisted invoices dated within [from, to).
	ListInvoices(ctx context.Context, tenantID, buyerID int, from, to time.Time) ([]TaxInvoice, error)
	// SaveInvoice atomically stores the invoice and reserves its lot ids for the buyer.
	// If an invoice with the same idempotency key exists it is returned with created=false.
	// The store finalizes InvoiceNumber (see FormatInvoiceNumber) under the same lock.
	SaveInvoice(ctx context.Context, inv *TaxInvoice) (saved *TaxInvoice, created bool, err error)
}

// DayWindow returns [start of day, start of next day) in date's location.
func DayWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return from, from.AddDate(0, 0, 1)
}
