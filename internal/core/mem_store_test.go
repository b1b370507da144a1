package core_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"mandi-billing/internal/core"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory core.Store with the same reservation semantics as the
// PostgreSQL store: SaveInvoice is serialized and rejects lot overlap per buyer.
type memStore struct {
	mu          sync.Mutex
	tenants     map[int]core.Tenant
	settings    map[int]core.TenantSettings
	farmers     map[int]core.Farmer
	buyers      map[int]core.Buyer
	lots        map[int]core.Lot
	bags        map[int][]core.Bag
	allocations []core.Allocation
	invoices    []core.TaxInvoice
	nextBagID   int
}

func newMemStore() *memStore {
	return &memStore{
		tenants:  map[int]core.Tenant{},
		settings: map[int]core.TenantSettings{},
		farmers:  map[int]core.Farmer{},
		buyers:   map[int]core.Buyer{},
		lots:     map[int]core.Lot{},
		bags:     map[int][]core.Bag{},
	}
}

// ── fixtures ─────────────────────────────────────────────────────────────────

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func intp(i int) *int { return &i }

func (s *memStore) addTenant(id int) {
	s.tenants[id] = core.Tenant{
		ID: id, Name: "Sri Lakshmi Traders", Address: "APMC Yard, Guntur", GSTIN: "37ABCDE1234F1Z5",
		Bank: core.BankDetails{AccountName: "Sri Lakshmi Traders", AccountNumber: "0012345", BankName: "SBI", IFSC: "SBIN0000001"},
	}
}

func (s *memStore) addFarmer(tenantID, id int, name string) {
	s.farmers[id] = core.Farmer{ID: id, TenantID: tenantID, Name: name, Mobile: "98480" + name[:1]}
}

func (s *memStore) addBuyer(tenantID, id int, name string) {
	s.buyers[id] = core.Buyer{ID: id, TenantID: tenantID, Name: name, HSNCode: "0904", Address: "Guntur"}
}

// addLot stores a completed lot created at noon of testDay.
func (s *memStore) addLot(lot core.Lot) core.Lot {
	if lot.Status == "" {
		lot.Status = core.LotStatusCompleted
	}
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = testDay.Add(12 * time.Hour)
	}
	if lot.TenantID == 0 {
		lot.TenantID = 1
	}
	if f, ok := s.farmers[lot.FarmerID]; ok {
		lot.FarmerName = f.Name
	}
	s.lots[lot.ID] = lot
	return lot
}

// addBags appends bags with the given weights; "" leaves a bag unweighed.
func (s *memStore) addBags(lotID int, weights ...string) []core.Bag {
	var out []core.Bag
	for _, w := range weights {
		s.nextBagID++
		b := core.Bag{ID: s.nextBagID, LotID: lotID, BagNumber: len(s.bags[lotID]) + 1}
		if w != "" {
			b.Weight = dp(w)
		}
		s.bags[lotID] = append(s.bags[lotID], b)
		out = append(out, b)
	}
	return out
}

func (s *memStore) allocate(lotID, buyerID int, sel core.BagSelection, err error) {
	s.allocations = append(s.allocations, core.Allocation{
		ID: len(s.allocations) + 1, LotID: lotID, BuyerID: buyerID, Selection: sel, Err: err,
	})
}

func bagIDs(bags []core.Bag) []int {
	ids := make([]int, len(bags))
	for i, b := range bags {
		ids[i] = b.ID
	}
	return ids
}

// ── core.Store ───────────────────────────────────────────────────────────────

func (s *memStore) GetTenant(_ context.Context, tenantID int) (*core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *memStore) GetTenantSettings(_ context.Context, tenantID int) (*core.TenantSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[tenantID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *memStore) GetFarmer(_ context.Context, tenantID, farmerID int) (*core.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.farmers[farmerID]
	if !ok || f.TenantID != tenantID {
		return nil, nil
	}
	return &f, nil
}

func (s *memStore) GetBuyer(_ context.Context, tenantID, buyerID int) (*core.Buyer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buyers[buyerID]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return &b, nil
}

func inWindow(lot core.Lot, q core.LotQuery) bool {
	return lot.TenantID == q.TenantID &&
		!lot.CreatedAt.Before(q.From) && lot.CreatedAt.Before(q.To) &&
		(q.Status == "" || lot.Status == q.Status)
}

func (s *memStore) sortedLots() []core.Lot {
	out := make([]core.Lot, 0, len(s.lots))
	for _, l := range s.lots {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListFarmerLots(_ context.Context, q core.LotQuery) ([]core.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Lot
	for _, l := range s.sortedLots() {
		if l.FarmerID == q.PartyID && inWindow(l, q) {
			out = append(out, l)
		}
	}
	return out, nil
}

// split reports whether any buyer holds an allocation on the lot. Callers hold s.mu.
func (s *memStore) split(lotID int) bool {
	for _, a := range s.allocations {
		if a.LotID == lotID {
			return true
		}
	}
	return false
}

func (s *memStore) ListBuyerLots(_ context.Context, q core.LotQuery) ([]core.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Lot
	for _, l := range s.sortedLots() {
		if l.BuyerID != nil && *l.BuyerID == q.PartyID && inWindow(l, q) && !s.split(l.ID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) ListBuyerAllocations(_ context.Context, q core.LotQuery) ([]core.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Allocation
	for _, a := range s.allocations {
		lot, ok := s.lots[a.LotID]
		if a.BuyerID != q.PartyID || !ok || !inWindow(lot, q) {
			continue
		}
		a.Lot = lot
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) ListBags(_ context.Context, lotID int) ([]core.Bag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Bag(nil), s.bags[lotID]...), nil
}

func (s *memStore) ListFarmerIDsWithLots(_ context.Context, tenantID int, from, to time.Time) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := core.LotQuery{TenantID: tenantID, From: from, To: to, Status: core.LotStatusCompleted}
	seen := map[int]bool{}
	var ids []int
	for _, l := range s.sortedLots() {
		if inWindow(l, q) && l.LotPrice.IsPositive() && !seen[l.FarmerID] {
			seen[l.FarmerID] = true
			ids = append(ids, l.FarmerID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *memStore) ListBuyerIDsWithLots(_ context.Context, tenantID int, from, to time.Time) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := core.LotQuery{TenantID: tenantID, From: from, To: to, Status: core.LotStatusCompleted}
	seen := map[int]bool{}
	var ids []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, l := range s.sortedLots() {
		if l.BuyerID != nil && inWindow(l, q) && l.LotPrice.IsPositive() && !s.split(l.ID) {
			add(*l.BuyerID)
		}
	}
	for _, a := range s.allocations {
		if l, ok := s.lots[a.LotID]; ok && inWindow(l, q) && l.LotPrice.IsPositive() {
			add(a.BuyerID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *memStore) ListInvoices(_ context.Context, tenantID, buyerID int, from, to time.Time) ([]core.TaxInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	var out []core.TaxInvoice
	for _, inv := range s.invoices {
		if inv.TenantID == tenantID && inv.BuyerID == buyerID && inv.InvoiceDate >= lo && inv.InvoiceDate < hi {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memStore) SaveInvoice(_ context.Context, inv *core.TaxInvoice) (*core.TaxInvoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invoices {
		if existing.IdempotencyKey == inv.IdempotencyKey {
			cp := existing
			return &cp, false, nil
		}
	}

	seq := 1
	for _, existing := range s.invoices {
		if existing.TenantID != inv.TenantID || existing.BuyerID != inv.BuyerID {
			continue
		}
		for _, a := range existing.LotIDs {
			for _, b := range inv.LotIDs {
				if a == b {
					return nil, false, core.ErrLotsAlreadyInvoiced
				}
			}
		}
		if existing.InvoiceDate == inv.InvoiceDate {
			seq++
		}
	}

	saved := *inv
	saved.ID = len(s.invoices) + 1
	saved.InvoiceNumber = core.FormatInvoiceNumber(inv.InvoiceDate, inv.BuyerID, seq)
	saved.CreatedAt = time.Now()
	s.invoices = append(s.invoices, saved)
	return &saved, true, nil
}

func (s *memStore) invoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices)
}
