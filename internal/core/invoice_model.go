package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceParty is the seller or buyer snapshot printed on an invoice. It is copied at
// generation time so later master-data edits do not change an issued invoice.
type InvoiceParty struct {
	Name    string       `json:"name"`
	Address string       `json:"address"`
	Phone   string       `json:"phone,omitempty"`
	GSTIN   string       `json:"gstin,omitempty"`
	HSNCode string       `json:"hsn_code,omitempty"`
	Bank    *BankDetails `json:"bank,omitempty"`
}

// InvoiceItem is one lot (or allocated share) billed on a tax invoice.
type InvoiceItem struct {
	LineNumber     int             `json:"line_number"`
	LotID          int             `json:"lot_id"`
	LotNumber      string          `json:"lot_number"`
	FarmerName     string          `json:"farmer_name"`
	Description    string          `json:"description"`
	HSNCode        string          `json:"hsn_code"`
	Bags           int             `json:"bags"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	WeightQuintals decimal.Decimal `json:"weight_quintals"`
	Rate           decimal.Decimal `json:"rate"` // per quintal
	Amount         decimal.Decimal `json:"amount"`
}

// InvoiceCalculations holds the invoice money. GST is levied on the taxable amount,
// which already includes every charge.
type InvoiceCalculations struct {
	TotalBags       int             `json:"total_bags"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Packaging       decimal.Decimal `json:"packaging"`
	Hamali          decimal.Decimal `json:"hamali"`
	WeighingCharges decimal.Decimal `json:"weighing_charges"`
	Commission      decimal.Decimal `json:"commission"`
	Cess            decimal.Decimal `json:"cess"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	SGSTPct         decimal.Decimal `json:"sgst_pct"`
	SGST            decimal.Decimal `json:"sgst"`
	CGSTPct         decimal.Decimal `json:"cgst_pct"`
	CGST            decimal.Decimal `json:"cgst"`
	IGST            decimal.Decimal `json:"igst"` // inter-state supply is not computed; always zero
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountInWords   string          `json:"amount_in_words"`
}

// TaxInvoice is a persisted, immutable invoice. LotIDs is the exact set of lots it bills;
// for a given buyer no lot appears on two invoices.
type TaxInvoice struct {
	ID             int                 `json:"id"`
	TenantID       int                 `json:"tenant_id"`
	BuyerID        int                 `json:"buyer_id"`
	InvoiceNumber  string              `json:"invoice_number"`
	InvoiceDate    string              `json:"invoice_date"` // YYYY-MM-DD
	Seller         InvoiceParty        `json:"seller"`
	Buyer          InvoiceParty        `json:"buyer"`
	Items          []InvoiceItem       `json:"items"`
	Calculations   InvoiceCalculations `json:"calculations"`
	BankDetails    BankDetails         `json:"bank_details"`
	LotIDs         []int               `json:"lot_ids"`
	IdempotencyKey string              `json:"idempotency_key"`
	CreatedAt      time.Time           `json:"created_at"`
}

// FormatInvoiceNumber renders INV-YYYYMMDD-BBB. The first invoice of a buyer on a day
// (seq <= 1) carries no suffix; later ones get -2, -3, ...
func FormatInvoiceNumber(invoiceDate string, buyerID, seq int) string {
	base := fmt.Sprintf("INV-%s-%03d", strings.ReplaceAll(invoiceDate, "-", ""), buyerID)
	if seq <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, seq)
}

var invoiceKeySpace = uuid.MustParse("5b0f4f55-7c1e-4d2a-9a51-3a3c0e6f2b10")

// InvoiceIdempotencyKey is a stable UUIDv5 over tenant, buyer, date and the lot-id set.
// Retrying a generation with the same inputs yields the same key.
func InvoiceIdempotencyKey(tenantID, buyerID int, invoiceDate string, lotIDs []int) string {
	ids := append([]int(nil), lotIDs...)
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	name := fmt.Sprintf("%d|%d|%s|%s", tenantID, buyerID, invoiceDate, strings.Join(parts, ","))
	return uuid.NewSHA1(invoiceKeySpace, []byte(name)).String()
}
