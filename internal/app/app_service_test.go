package app

import (
	"context"
	"testing"
	"time"

	"mandi-billing/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore answers lookups only; any lot query panics through the nil embedded Store.
type stubStore struct {
	core.Store
	tenants  map[int]bool
	from, to time.Time
}

func (s *stubStore) GetTenant(_ context.Context, id int) (*core.Tenant, error) {
	if !s.tenants[id] {
		return nil, nil
	}
	return &core.Tenant{ID: id}, nil
}

func (s *stubStore) GetTenantSettings(context.Context, int) (*core.TenantSettings, error) {
	return nil, nil
}

func (s *stubStore) GetFarmer(context.Context, int, int) (*core.Farmer, error) { return nil, nil }

func (s *stubStore) GetBuyer(context.Context, int, int) (*core.Buyer, error) { return nil, nil }

func (s *stubStore) ListFarmerIDsWithLots(_ context.Context, _ int, from, to time.Time) ([]int, error) {
	s.from, s.to = from, to
	return nil, nil
}

func (s *stubStore) ListBuyerIDsWithLots(_ context.Context, _ int, from, to time.Time) ([]int, error) {
	s.from, s.to = from, to
	return nil, nil
}

func newTestService(store core.Store, loc *time.Location) *appService {
	svc := NewAppService(store, nil, loc, 2).(*appService)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC) }
	return svc
}

func TestParseDate(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	svc := newTestService(&stubStore{}, ist)

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "explicit", in: "2026-01-31", want: "2026-01-31"},
		// 20:00 UTC on the 14th is already the 15th in IST
		{name: "empty means today in billing zone", in: "", want: "2026-03-15"},
		{name: "wrong layout", in: "14/03/2026", wantErr: true},
		{name: "impossible day", in: "2026-02-30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.parseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(dateLayout))
			assert.Equal(t, ist, got.Location())
		})
	}
}

func TestNotFoundMapping(t *testing.T) {
	svc := newTestService(&stubStore{tenants: map[int]bool{1: true}}, time.UTC)
	ctx := context.Background()

	_, err := svc.GetRates(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetFarmerDayBill(ctx, FarmerBillRequest{TenantID: 1, FarmerID: 5, Date: "2026-03-14"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetBuyerDayBill(ctx, BuyerBillRequest{TenantID: 1, BuyerID: 5, Date: "2026-03-14"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GenerateInvoice(ctx, GenerateInvoiceRequest{TenantID: 1, BuyerID: 5, Date: "2026-03-14"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListInvoices(ctx, BuyerBillRequest{TenantID: 1, BuyerID: 5, Date: "2026-03-14"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetFarmerDayBill(ctx, FarmerBillRequest{TenantID: 1, FarmerID: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetRates_DefaultsWithoutSettings(t *testing.T) {
	svc := newTestService(&stubStore{tenants: map[int]bool{1: true}}, time.UTC)

	res, err := svc.GetRates(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TenantID)
	assert.True(t, res.Rates.CommissionPct.Equal(core.DefaultRates().CommissionPct))
}

func TestListDayBills_UsesBillingCalendar(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	store := &stubStore{}
	svc := newTestService(store, ist)

	res, err := svc.ListFarmerDayBills(context.Background(), DayRequest{TenantID: 1, Date: "2026-03-14"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", res.Date)
	assert.NotNil(t, res.Bills)
	assert.Empty(t, res.Bills)
	assert.Equal(t, time.Date(2026, 3, 13, 18, 30, 0, 0, time.UTC), store.from.UTC())
	assert.Equal(t, time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC), store.to.UTC())

	buyers, err := svc.ListBuyerDayBills(context.Background(), DayRequest{TenantID: 1})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", buyers.Date)
	assert.Empty(t, buyers.Bills)
}
