package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceNotifier is told about every newly stored invoice. Optional.
type InvoiceNotifier interface {
	InvoiceGenerated(ctx context.Context, inv *TaxInvoice) error
}

// InvoiceResult is the outcome of one generation call. Invoice is nil when there was
// nothing left to invoice. Created is false when an identical earlier call already
// stored the invoice.
type InvoiceResult struct {
	Invoice  *TaxInvoice `json:"invoice"`
	Created  bool        `json:"created"`
	Warnings []string    `json:"warnings,omitempty"`
}

// NothingToInvoice reports whether every qualifying lot was already invoiced (or none exist).
func (r *InvoiceResult) NothingToInvoice() bool { return r.Invoice == nil }

// InvoiceGenerator issues tax invoices for a buyer's uninvoiced lots of one day.
type InvoiceGenerator interface {
	// Generate returns nil when the buyer or tenant does not exist.
	Generate(ctx context.Context, tenantID, buyerID int, date time.Time, rates RateConfig) (*InvoiceResult, error)
}

type invoiceGenerator struct {
	store    Store
	notifier InvoiceNotifier
}

// NewInvoiceGenerator constructs an InvoiceGenerator. Pass notifier=nil to skip events.
func NewInvoiceGenerator(store Store, notifier InvoiceNotifier) InvoiceGenerator {
	return &invoiceGenerator{store: store, notifier: notifier}
}

func (g *invoiceGenerator) Generate(ctx context.Context, tenantID, buyerID int, date time.Time, rates RateConfig) (*InvoiceResult, error) {
	buyer, err := g.store.GetBuyer(ctx, tenantID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer %d: %w", buyerID, err)
	}
	if buyer == nil {
		return nil, nil
	}
	tenant, err := g.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}
	if tenant == nil {
		return nil, nil
	}

	// A concurrent call may reserve some of our lots between the read and the write.
	// Recomputing once lets the loser return what is genuinely left.
	result, err := g.generateOnce(ctx, tenant, buyer, date, rates)
	if errors.Is(err, ErrLotsAlreadyInvoiced) {
		log.Printf("[INVOICE] tenant %d buyer %d: lots reserved concurrently, recomputing", tenantID, buyerID)
		result, err = g.generateOnce(ctx, tenant, buyer, date, rates)
	}
	if err != nil {
		return nil, err
	}

	if result.Created && g.notifier != nil {
		if nerr := g.notifier.InvoiceGenerated(ctx, result.Invoice); nerr != nil {
			log.Printf("[INVOICE] %s stored but notification failed: %v", result.Invoice.InvoiceNumber, nerr)
		}
	}
	return result, nil
}

func (g *invoiceGenerator) generateOnce(ctx context.Context, tenant *Tenant, buyer *Buyer, date time.Time, rates RateConfig) (*InvoiceResult, error) {
	from, to := DayWindow(date)

	existing, err := g.store.ListInvoices(ctx, tenant.ID, buyer.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for buyer %d: %w", buyer.ID, err)
	}
	alreadyBilled := make(map[int]struct{})
	for _, inv := range existing {
		for _, id := range inv.LotIDs {
			alreadyBilled[id] = struct{}{}
		}
	}

	shares, warnings, err := collectBuyerShares(ctx, g.store, tenant.ID, buyer.ID, from, to, alreadyBilled)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return &InvoiceResult{Warnings: warnings}, nil
	}

	invoiceDate := from.Format("2006-01-02")
	inv := buildTaxInvoice(tenant, buyer, invoiceDate, shares, rates)
	inv.InvoiceNumber = FormatInvoiceNumber(invoiceDate, buyer.ID, len(existing)+1)

	saved, created, err := g.store.SaveInvoice(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("failed to save invoice for buyer %d: %w", buyer.ID, err)
	}
	if created {
		log.Printf("[INVOICE] %s issued: %d lots, total %s", saved.InvoiceNumber, len(saved.LotIDs), saved.Calculations.TotalAmount.StringFixed(2))
	}
	return &InvoiceResult{Invoice: saved, Created: created, Warnings: warnings}, nil
}

// buildTaxInvoice prices the shares into an unsaved invoice (no number, no id).
func buildTaxInvoice(tenant *Tenant, buyer *Buyer, invoiceDate string, shares []buyerShare, rates RateConfig) *TaxInvoice {
	inv := &TaxInvoice{
		TenantID:    tenant.ID,
		BuyerID:     buyer.ID,
		InvoiceDate: invoiceDate,
		Seller: InvoiceParty{
			Name:    tenant.Name,
			Address: tenant.Address,
			Phone:   tenant.Phone,
			GSTIN:   tenant.GSTIN,
		},
		Buyer: InvoiceParty{
			Name:    buyer.Name,
			Address: buyer.Address,
			Phone:   buyer.Contact,
			GSTIN:   buyer.GSTIN,
			HSNCode: buyer.HSNCode,
			Bank:    bankOrNil(buyer.Bank),
		},
		BankDetails: tenant.Bank,
	}

	subTotal := decimal.Zero
	totalBags := 0
	for i, sh := range shares {
		amount := round2(sh.Weight.TotalWeightKg.Div(hundred).Mul(sh.Lot.LotPrice))
		inv.Items = append(inv.Items, InvoiceItem{
			LineNumber:     i + 1,
			LotID:          sh.Lot.ID,
			LotNumber:      sh.Lot.LotNumber,
			FarmerName:     sh.Lot.FarmerName,
			Description:    sh.Lot.Description(),
			HSNCode:        buyer.HSNCode,
			Bags:           sh.Bags,
			WeightKg:       sh.Weight.TotalWeightKg,
			WeightQuintals: sh.Weight.TotalWeightQuintals,
			Rate:           sh.Lot.LotPrice,
			Amount:         amount,
		})
		inv.LotIDs = append(inv.LotIDs, sh.Lot.ID)
		subTotal = subTotal.Add(amount)
		totalBags += sh.Bags
	}

	inv.Calculations = computeInvoiceCalculations(subTotal, totalBags, rates)
	inv.IdempotencyKey = InvoiceIdempotencyKey(tenant.ID, buyer.ID, invoiceDate, inv.LotIDs)
	return inv
}

func computeInvoiceCalculations(subTotal decimal.Decimal, totalBags int, rates RateConfig) InvoiceCalculations {
	bags := decimal.NewFromInt(int64(totalBags))
	c := InvoiceCalculations{
		TotalBags:       totalBags,
		SubTotal:        round2(subTotal),
		Packaging:       round2(bags.Mul(rates.PackagingPerBag)),
		Hamali:          round2(bags.Mul(rates.UnloadHamaliPerBag)),
		WeighingCharges: round2(bags.Mul(rates.WeighingFeePerBag)),
		Commission:      round2(percentOf(subTotal, rates.CommissionPct)),
		Cess:            round2(percentOf(subTotal, rates.CessPct)),
		SGSTPct:         rates.SGSTPct,
		CGSTPct:         rates.CGSTPct,
		IGST:            decimal.Zero.Round(2),
	}
	c.TaxableAmount = c.SubTotal.
		Add(c.Packaging).
		Add(c.Hamali).
		Add(c.WeighingCharges).
		Add(c.Commission).
		Add(c.Cess)
	c.SGST = round2(percentOf(c.TaxableAmount, rates.SGSTPct))
	c.CGST = round2(percentOf(c.TaxableAmount, rates.CGSTPct))
	c.TotalAmount = c.TaxableAmount.Add(c.SGST).Add(c.CGST).Add(c.IGST)
	c.AmountInWords = AmountInWords(c.TotalAmount)
	return c
}

func bankOrNil(b BankDetails) *BankDetails {
	if b == (BankDetails{}) {
		return nil
	}
	return &b
}
