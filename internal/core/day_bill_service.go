package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent per-entity calculations when no limit is configured.
const DefaultWorkers = 8

// DayBillService computes every farmer and buyer bill of a day for a tenant.
type DayBillService interface {
	// Rates resolves the tenant's rate configuration.
	Rates(ctx context.Context, tenantID int) (RateConfig, error)
	// FarmerBills returns one bill per farmer with qualifying lots, ordered by farmer id.
	// The slice is empty (never nil, never padded) when nothing qualifies.
	FarmerBills(ctx context.Context, tenantID int, date time.Time) ([]FarmerDayBill, error)
	// BuyerBills is the buyer counterpart of FarmerBills.
	BuyerBills(ctx context.Context, tenantID int, date time.Time) ([]BuyerDayBill, error)
}

type dayBillService struct {
	store   Store
	farmers FarmerBillCalculator
	buyers  BuyerBillCalculator
	workers int
}

// NewDayBillService wires the calculators over store. workers <= 0 means DefaultWorkers.
func NewDayBillService(store Store, farmers FarmerBillCalculator, buyers BuyerBillCalculator, workers int) DayBillService {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &dayBillService{store: store, farmers: farmers, buyers: buyers, workers: workers}
}

func (s *dayBillService) Rates(ctx context.Context, tenantID int) (RateConfig, error) {
	settings, err := s.store.GetTenantSettings(ctx, tenantID)
	if err != nil {
		return RateConfig{}, fmt.Errorf("failed to load settings for tenant %d: %w", tenantID, err)
	}
	return ResolveRates(settings), nil
}

func (s *dayBillService) FarmerBills(ctx context.Context, tenantID int, date time.Time) ([]FarmerDayBill, error) {
	rates, err := s.Rates(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	from, to := DayWindow(date)
	ids, err := s.store.ListFarmerIDsWithLots(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate farmers: %w", err)
	}

	bills := make([]FarmerDayBill, 0, len(ids))
	err = s.fanOut(ctx, ids, func(ctx context.Context, id int, mu *sync.Mutex) error {
		bill, err := s.farmers.Calculate(ctx, tenantID, id, date, rates)
		if err != nil || bill == nil {
			return err
		}
		mu.Lock()
		bills = append(bills, *bill)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(bills, func(i, j int) bool { return bills[i].Farmer.ID < bills[j].Farmer.ID })
	log.Printf("[DAYBILL] tenant %d %s: %d of %d farmers billed", tenantID, from.Format("2006-01-02"), len(bills), len(ids))
	return bills, nil
}

func (s *dayBillService) BuyerBills(ctx context.Context, tenantID int, date time.Time) ([]BuyerDayBill, error) {
	rates, err := s.Rates(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	from, to := DayWindow(date)
	ids, err := s.store.ListBuyerIDsWithLots(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate buyers: %w", err)
	}

	bills := make([]BuyerDayBill, 0, len(ids))
	err = s.fanOut(ctx, ids, func(ctx context.Context, id int, mu *sync.Mutex) error {
		bill, err := s.buyers.Calculate(ctx, tenantID, id, date, rates)
		if err != nil || bill == nil {
			return err
		}
		mu.Lock()
		bills = append(bills, *bill)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(bills, func(i, j int) bool { return bills[i].Buyer.ID < bills[j].Buyer.ID })
	log.Printf("[DAYBILL] tenant %d %s: %d of %d buyers billed", tenantID, from.Format("2006-01-02"), len(bills), len(ids))
	return bills, nil
}

// fanOut runs fn for every id with at most s.workers in flight. The first error cancels
// the rest.
func (s *dayBillService) fanOut(ctx context.Context, ids []int, fn func(ctx context.Context, id int, mu *sync.Mutex) error) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			return fn(gctx, id, &mu)
		})
	}
	return g.Wait()
}
