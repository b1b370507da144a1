package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// buyerShare is a buyer's billable portion of one lot: the whole lot for a direct sale,
// or the allocated bag subset for a split lot.
type buyerShare struct {
	Lot       Lot
	Bags      int // declared bags charged to this buyer
	Weight    LotWeight
	Allocated bool
}

// collectBuyerShares loads direct and allocated lots for the buyer in [from, to), applies
// the bag selection and drops anything that is not billable. Malformed allocations are
// skipped and reported as warnings. skip, when non-nil, excludes lot ids up front.
func collectBuyerShares(ctx context.Context, store Store, tenantID, buyerID int, from, to time.Time, skip map[int]struct{}) ([]buyerShare, []string, error) {
	q := LotQuery{TenantID: tenantID, PartyID: buyerID, From: from, To: to, Status: LotStatusCompleted}

	direct, err := store.ListBuyerLots(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list lots for buyer %d: %w", buyerID, err)
	}
	allocations, err := store.ListBuyerAllocations(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list allocations for buyer %d: %w", buyerID, err)
	}

	var warnings []string
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("[BUYER] buyer %d: %s", buyerID, msg)
		warnings = append(warnings, msg)
	}

	type candidate struct {
		lot       Lot
		selection BagSelection
		allocated bool
	}
	candidates := make(map[int]candidate)

	for _, lot := range direct {
		candidates[lot.ID] = candidate{lot: lot, selection: FullLot{}}
	}
	// The allocation governs when a lot is reachable both ways. Several rows for the same
	// lot are merged; one unusable row drops the lot.
	broken := make(map[int]bool)
	for _, a := range allocations {
		if broken[a.LotID] {
			continue
		}
		if a.Err == nil && a.Selection == nil {
			a.Err = fmt.Errorf("%w: missing selection", ErrInvalidAllocation)
		}
		if a.Err != nil {
			warn("lot %d skipped: %v", a.LotID, a.Err)
			broken[a.LotID] = true
			delete(candidates, a.LotID)
			continue
		}
		if prev, ok := candidates[a.LotID]; ok && prev.allocated {
			candidates[a.LotID] = candidate{lot: prev.lot, selection: MergeSelections(prev.selection, a.Selection), allocated: true}
			continue
		}
		candidates[a.LotID] = candidate{lot: a.Lot, selection: a.Selection, allocated: true}
	}

	ids := make([]int, 0, len(candidates))
	for id := range candidates {
		if _, billed := skip[id]; billed {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	shares := make([]buyerShare, 0, len(ids))
	for _, id := range ids {
		c := candidates[id]
		if !c.lot.priced() {
			continue
		}
		bags, err := store.ListBags(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list bags for lot %d: %w", id, err)
		}
		selected, err := c.selection.Select(bags)
		if err != nil {
			warn("lot %d skipped: %v", id, err)
			continue
		}
		weight := AggregateWeight(id, selected)
		if !weight.Billable() {
			continue
		}
		shares = append(shares, buyerShare{
			Lot:       c.lot,
			Bags:      c.selection.DeclaredBags(c.lot.NumberOfBags),
			Weight:    weight,
			Allocated: c.allocated,
		})
	}
	return shares, warnings, nil
}
