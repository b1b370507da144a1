package core_test

import (
	"context"
	"fmt"
	"testing"

	"mandi-billing/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buyerFixture() *memStore {
	s := newMemStore()
	s.addTenant(1)
	s.addFarmer(1, 10, "Ramaiah")
	s.addBuyer(1, 20, "Guntur Spices")
	s.addBuyer(1, 21, "Krishna Exports")
	s.addBuyer(1, 22, "Sai Traders")
	return s
}

func twentyBagsOf40(s *memStore, lotID int) []core.Bag {
	w := make([]string, 20)
	for i := range w {
		w[i] = "40"
	}
	return s.addBags(lotID, w...)
}

func TestBuyerBillCalculator_DirectLot(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 1, FarmerID: 10, BuyerID: intp(20), LotNumber: "L-001", NumberOfBags: 20, LotPrice: d("2500"), Variety: "Teja"})
	twentyBagsOf40(s, 1)

	bill, err := core.NewBuyerBillCalculator(s).Calculate(context.Background(), 1, 20, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, bill)
	require.Len(t, bill.Lots, 1)

	l := bill.Lots[0]
	assert.False(t, l.Allocated)
	assert.Equal(t, "Ramaiah", l.FarmerName)
	assertMoney(t, "20000", l.BasicAmount, "basic")
	assertMoney(t, "100", l.Packing, "packing")
	assertMoney(t, "40", l.Weighing, "weighing")
	assertMoney(t, "400", l.Commission, "commission")
	// taxed on the basic amount only
	assertMoney(t, "500", l.SGST, "sgst")
	assertMoney(t, "500", l.CGST, "cgst")
	assertMoney(t, "120", l.Cess, "cess")
	assertMoney(t, "1660", l.TotalCharges, "charges")
	assertMoney(t, "21660", l.LotTotal, "lot total")
	assertMoney(t, "21660", bill.Summary.TotalPayable, "payable")
	assert.Empty(t, bill.Warnings)
}

func TestBuyerBillCalculator_SplitLotBillsOnlyAllocatedBags(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 2, FarmerID: 10, NumberOfBags: 6, LotPrice: d("2000")})
	bags := s.addBags(2, "40", "41", "42", "43", "44", "")
	s.allocate(2, 21, core.PartialAllocation{BagIDs: bagIDs(bags[:3])}, nil)
	s.allocate(2, 22, core.PartialAllocation{BagIDs: bagIDs(bags[3:])}, nil)

	calc := core.NewBuyerBillCalculator(s)

	first, err := calc.Calculate(context.Background(), 1, 21, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Len(t, first.Lots, 1)
	assert.True(t, first.Lots[0].Allocated)
	assert.Equal(t, 3, first.Lots[0].NumberOfBags)
	assert.Equal(t, 3, first.Lots[0].WeighedBags)
	assertMoney(t, "123", first.Lots[0].TotalWeightKg, "kg")
	assertMoney(t, "2460", first.Lots[0].BasicAmount, "basic")

	second, err := calc.Calculate(context.Background(), 1, 22, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Len(t, second.Lots, 1)
	assert.Equal(t, 3, second.Lots[0].NumberOfBags)
	assert.Equal(t, 2, second.Lots[0].WeighedBags)
	assertMoney(t, "87", second.Lots[0].TotalWeightKg, "kg")

	// the buyers never bill more than the lot weighs
	total := first.Lots[0].TotalWeightKg.Add(second.Lots[0].TotalWeightKg)
	assertMoney(t, "210", total, "combined kg")
}

func TestBuyerBillCalculator_AllocationGovernsDirectLink(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 3, FarmerID: 10, BuyerID: intp(21), NumberOfBags: 4, LotPrice: d("1000")})
	bags := s.addBags(3, "50", "50", "50", "50")
	s.allocate(3, 21, core.PartialAllocation{BagIDs: []int{bags[0].ID}}, nil)

	bill, err := core.NewBuyerBillCalculator(s).Calculate(context.Background(), 1, 21, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, bill)
	require.Len(t, bill.Lots, 1)
	assert.True(t, bill.Lots[0].Allocated)
	assert.Equal(t, 1, bill.Lots[0].NumberOfBags)
	assertMoney(t, "500", bill.Lots[0].BasicAmount, "basic")
}

func TestBuyerBillCalculator_MalformedAllocationsAreSkippedWithWarning(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 4, FarmerID: 10, NumberOfBags: 2, LotPrice: d("2000")})
	s.addBags(4, "50", "50")
	s.allocate(4, 21, core.FullLot{}, nil)

	s.addLot(core.Lot{ID: 5, FarmerID: 10, NumberOfBags: 2, LotPrice: d("2000")})
	s.addBags(5, "50", "50")
	s.allocate(5, 21, nil, fmt.Errorf("%w: empty bag list", core.ErrInvalidAllocation))

	s.addLot(core.Lot{ID: 6, FarmerID: 10, NumberOfBags: 2, LotPrice: d("2000")})
	s.addBags(6, "50", "50")
	s.allocate(6, 21, core.PartialAllocation{BagIDs: []int{9999}}, nil)

	bill, err := core.NewBuyerBillCalculator(s).Calculate(context.Background(), 1, 21, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, bill)
	require.Len(t, bill.Lots, 1)
	assert.Equal(t, 4, bill.Lots[0].LotID)
	require.Len(t, bill.Warnings, 2)
	assert.Contains(t, bill.Warnings[0], "lot 5")
	assert.Contains(t, bill.Warnings[1], "lot 6")
}

func TestBuyerBillCalculator_NoBill(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 7, FarmerID: 10, BuyerID: intp(20), NumberOfBags: 2, LotPrice: d("2000")})
	s.addBags(7, "", "")
	calc := core.NewBuyerBillCalculator(s)

	bill, err := calc.Calculate(context.Background(), 1, 20, testDay, core.DefaultRates())
	require.NoError(t, err)
	assert.Nil(t, bill, "unweighed lot")

	bill, err = calc.Calculate(context.Background(), 1, 99, testDay, core.DefaultRates())
	require.NoError(t, err)
	assert.Nil(t, bill, "unknown buyer")
}

func TestBuyerBillCalculator_SummaryIsSumOfLines(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 8, FarmerID: 10, BuyerID: intp(20), NumberOfBags: 3, LotPrice: d("2333.33")})
	s.addBags(8, "33.37", "41.11", "29.99")
	s.addLot(core.Lot{ID: 9, FarmerID: 10, NumberOfBags: 5, LotPrice: d("1777.77")})
	bags := s.addBags(9, "45.45", "46.46", "47.47", "", "48.48")
	s.allocate(9, 20, core.PartialAllocation{BagIDs: bagIDs(bags[1:])}, nil)

	bill, err := core.NewBuyerBillCalculator(s).Calculate(context.Background(), 1, 20, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, bill)
	require.Len(t, bill.Lots, 2)

	payable, charges := d("0"), d("0")
	for _, l := range bill.Lots {
		assert.True(t, l.BasicAmount.Add(l.TotalCharges).Equal(l.LotTotal), "lot %d total", l.LotID)
		payable = payable.Add(l.LotTotal)
		charges = charges.Add(l.TotalCharges)
	}
	assert.True(t, bill.Summary.TotalPayable.Equal(payable))
	assert.True(t, bill.Summary.TotalCharges.Equal(charges))
	assert.Equal(t, 7, bill.Summary.TotalBags)
}

func TestBuyerBillCalculator_SplitLotIgnoresDirectBuyer(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 1, FarmerID: 10, BuyerID: intp(20), NumberOfBags: 3, LotPrice: d("2000")})
	bags := s.addBags(1, "50", "50", "50")
	s.allocate(1, 22, core.PartialAllocation{BagIDs: []int{bags[2].ID}}, nil)
	calc := core.NewBuyerBillCalculator(s)

	direct, err := calc.Calculate(context.Background(), 1, 20, testDay, core.DefaultRates())
	require.NoError(t, err)
	assert.Nil(t, direct, "a split lot is billed only through its allocations")

	allocated, err := calc.Calculate(context.Background(), 1, 22, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, allocated)
	require.Len(t, allocated.Lots, 1)
	assert.Equal(t, 1, allocated.Lots[0].NumberOfBags)
	assertMoney(t, "50", allocated.Lots[0].TotalWeightKg, "kg")

	bills, err := newDayBills(s).BuyerBills(context.Background(), 1, testDay)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, 22, bills[0].Buyer.ID)

	res, err := core.NewInvoiceGenerator(s, nil).Generate(context.Background(), 1, 20, testDay, core.DefaultRates())
	require.NoError(t, err)
	assert.True(t, res.NothingToInvoice())
}

func TestBuyerBillCalculator_RepeatedAllocationsAreMerged(t *testing.T) {
	s := buyerFixture()
	s.addLot(core.Lot{ID: 2, FarmerID: 10, NumberOfBags: 4, LotPrice: d("2000")})
	bags := s.addBags(2, "50", "45", "40", "35")
	s.allocate(2, 21, core.PartialAllocation{BagIDs: []int{bags[0].ID}}, nil)
	s.allocate(2, 21, core.PartialAllocation{BagIDs: []int{bags[1].ID, bags[0].ID}}, nil)

	bill, err := core.NewBuyerBillCalculator(s).Calculate(context.Background(), 1, 21, testDay, core.DefaultRates())
	require.NoError(t, err)
	require.NotNil(t, bill)
	require.Len(t, bill.Lots, 1)
	assert.Equal(t, 2, bill.Lots[0].NumberOfBags)
	assertMoney(t, "95", bill.Lots[0].TotalWeightKg, "kg")
	assert.Empty(t, bill.Warnings)
}

func TestBuyerPaths_ExcludeUnbillableLots(t *testing.T) {
	tests := []struct {
		name      string
		lot       core.Lot
		weights   []string
		allocated bool
	}{
		{name: "draft", lot: core.Lot{Status: core.LotStatusDraft, LotPrice: d("2000")}, weights: []string{"50"}},
		{name: "cancelled", lot: core.Lot{Status: core.LotStatusCancelled, LotPrice: d("2000")}, weights: []string{"50"}},
		{name: "zero price", lot: core.Lot{LotPrice: d("0")}, weights: []string{"50"}},
		{name: "negative price", lot: core.Lot{LotPrice: d("-5")}, weights: []string{"50"}},
		{name: "unweighed", lot: core.Lot{LotPrice: d("2000")}, weights: []string{"", ""}},
		{name: "allocated draft", lot: core.Lot{Status: core.LotStatusDraft, LotPrice: d("2000")}, weights: []string{"50"}, allocated: true},
		{name: "allocated zero price", lot: core.Lot{LotPrice: d("0")}, weights: []string{"50"}, allocated: true},
		{name: "allocated unweighed", lot: core.Lot{LotPrice: d("2000")}, weights: []string{""}, allocated: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := buyerFixture()
			lot := tt.lot
			lot.ID, lot.FarmerID, lot.NumberOfBags = 1, 10, len(tt.weights)
			if !tt.allocated {
				lot.BuyerID = intp(20)
			}
			s.addLot(lot)
			bags := s.addBags(1, tt.weights...)
			if tt.allocated {
				s.allocate(1, 20, core.PartialAllocation{BagIDs: bagIDs(bags)}, nil)
			}

			bill, err := core.NewBuyerBillCalculator(s).Calculate(ctx, 1, 20, testDay, core.DefaultRates())
			require.NoError(t, err)
			assert.Nil(t, bill)

			gen := core.NewInvoiceGenerator(s, nil)
			res, err := gen.Generate(ctx, 1, 20, testDay, core.DefaultRates())
			require.NoError(t, err)
			assert.True(t, res.NothingToInvoice())
			assert.Zero(t, s.invoiceCount())

			// alongside a billable lot the excluded one still never appears
			s.addLot(core.Lot{ID: 2, FarmerID: 10, BuyerID: intp(20), NumberOfBags: 1, LotPrice: d("2000")})
			s.addBags(2, "50")

			bill, err = core.NewBuyerBillCalculator(s).Calculate(ctx, 1, 20, testDay, core.DefaultRates())
			require.NoError(t, err)
			require.NotNil(t, bill)
			require.Len(t, bill.Lots, 1)
			assert.Equal(t, 2, bill.Lots[0].LotID)

			res, err = gen.Generate(ctx, 1, 20, testDay, core.DefaultRates())
			require.NoError(t, err)
			require.True(t, res.Created)
			assert.Equal(t, []int{2}, res.Invoice.LotIDs)
		})
	}
}
