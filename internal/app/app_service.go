package app

import (
	"context"
	"fmt"
	"time"

	"mandi-billing/internal/core"
)

const dateLayout = "2006-01-02"

type appService struct {
	store    core.Store
	farmers  core.FarmerBillCalculator
	buyers   core.BuyerBillCalculator
	dayBills core.DayBillService
	invoices core.InvoiceGenerator
	loc      *time.Location
	now      func() time.Time
}

// NewAppService wires the settlement components over store. notifier may be nil.
// loc defines the calendar day; nil means UTC.
func NewAppService(store core.Store, notifier core.InvoiceNotifier, loc *time.Location, workers int) ApplicationService {
	if loc == nil {
		loc = time.UTC
	}
	farmers := core.NewFarmerBillCalculator(store)
	buyers := core.NewBuyerBillCalculator(store)
	return &appService{
		store:    store,
		farmers:  farmers,
		buyers:   buyers,
		dayBills: core.NewDayBillService(store, farmers, buyers, workers),
		invoices: core.NewInvoiceGenerator(store, notifier),
		loc:      loc,
		now:      time.Now,
	}
}

// parseDate reads a YYYY-MM-DD date in the billing timezone. Empty means today.
func (s *appService) parseDate(date string) (time.Time, error) {
	if date == "" {
		return s.now().In(s.loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}
	return t, nil
}

func validateIDs(ids ...int) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: ids must be positive", ErrInvalidInput)
		}
	}
	return nil
}

func (s *appService) GetRates(ctx context.Context, tenantID int) (*RatesResult, error) {
	if err := validateIDs(tenantID); err != nil {
		return nil, err
	}
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant %d", ErrNotFound, tenantID)
	}
	rates, err := s.dayBills.Rates(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &RatesResult{TenantID: tenantID, Rates: rates}, nil
}

func (s *appService) GetFarmerDayBill(ctx context.Context, req FarmerBillRequest) (*FarmerBillResult, error) {
	if err := validateIDs(req.TenantID, req.FarmerID); err != nil {
		return nil, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	rates, err := s.dayBills.Rates(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	bill, err := s.farmers.Calculate(ctx, req.TenantID, req.FarmerID, date, rates)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, fmt.Errorf("%w: no bill for farmer %d on %s", ErrNotFound, req.FarmerID, date.Format(dateLayout))
	}
	return &FarmerBillResult{Bill: bill}, nil
}

func (s *appService) GetBuyerDayBill(ctx context.Context, req BuyerBillRequest) (*BuyerBillResult, error) {
	if err := validateIDs(req.TenantID, req.BuyerID); err != nil {
		return nil, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	rates, err := s.dayBills.Rates(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	bill, err := s.buyers.Calculate(ctx, req.TenantID, req.BuyerID, date, rates)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, fmt.Errorf("%w: no bill for buyer %d on %s", ErrNotFound, req.BuyerID, date.Format(dateLayout))
	}
	return &BuyerBillResult{Bill: bill}, nil
}

func (s *appService) ListFarmerDayBills(ctx context.Context, req DayRequest) (*FarmerBillListResult, error) {
	if err := validateIDs(req.TenantID); err != nil {
		return nil, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	bills, err := s.dayBills.FarmerBills(ctx, req.TenantID, date)
	if err != nil {
		return nil, err
	}
	return &FarmerBillListResult{Date: date.Format(dateLayout), Bills: bills}, nil
}

func (s *appService) ListBuyerDayBills(ctx context.Context, req DayRequest) (*BuyerBillListResult, error) {
	if err := validateIDs(req.TenantID); err != nil {
		return nil, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	bills, err := s.dayBills.BuyerBills(ctx, req.TenantID, date)
	if err != nil {
		return nil, err
	}
	return &BuyerBillListResult{Date: date.Format(dateLayout), Bills: bills}, nil
}

func (s *appService) GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) (*InvoiceResult, error) {
	if err := validateIDs(req.TenantID, req.BuyerID); err != nil {
		return nil, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	rates, err := s.dayBills.Rates(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	res, err := s.invoices.Generate(ctx, req.TenantID, req.BuyerID, date, rates)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: buyer %d of tenant %d", ErrNotFound, req.BuyerID, req.TenantID)
	}
	return &InvoiceResult{
		Invoice:          res.Invoice,
		Created:          res.Created,
		NothingToInvoice: res.NothingToInvoice(),
		Warnings:         res.Warnings,
	}, nil
}

func (s *appService) ListInvoices(ctx context.Context, req BuyerBillRequest) (*InvoiceListResult, error) {
	if err := validateIDs(req.TenantID, req.BuyerID); err != nil {
		return nil, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	buyer, err := s.store.GetBuyer(ctx, req.TenantID, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, fmt.Errorf("%w: buyer %d of tenant %d", ErrNotFound, req.BuyerID, req.TenantID)
	}
	from, to := core.DayWindow(date)
	invoices, err := s.store.ListInvoices(ctx, req.TenantID, req.BuyerID, from, to)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []core.TaxInvoice{}
	}
	return &InvoiceListResult{Date: from.Format(dateLayout), Invoices: invoices}, nil
}
