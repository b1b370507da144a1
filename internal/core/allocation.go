package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAllocation marks stored allocation data that cannot be interpreted.
var ErrInvalidAllocation = errors.New("invalid lot allocation")

// BagSelection names which bags of a lot belong to one buyer.
// The only implementations are FullLot and PartialAllocation.
type BagSelection interface {
	// Select returns the bags of the lot covered by the selection. It fails when the
	// selection names bags the lot does not have.
	Select(bags []Bag) ([]Bag, error)
	// DeclaredBags is the bag count charged for, given the lot's declared count.
	DeclaredBags(lotDeclared int) int
	isBagSelection()
}

// FullLot selects every bag of the lot.
type FullLot struct{}

func (FullLot) Select(bags []Bag) ([]Bag, error) { return bags, nil }

func (FullLot) DeclaredBags(lotDeclared int) int { return lotDeclared }

func (FullLot) isBagSelection() {}

// PartialAllocation selects an explicit subset of a split lot's bags.
type PartialAllocation struct {
	BagIDs []int `json:"bag_ids"`
}

func (p PartialAllocation) Select(bags []Bag) ([]Bag, error) {
	byID := make(map[int]Bag, len(bags))
	for _, b := range bags {
		byID[b.ID] = b
	}
	selected := make([]Bag, 0, len(p.BagIDs))
	for _, id := range p.BagIDs {
		b, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: bag %d does not belong to the lot", ErrInvalidAllocation, id)
		}
		selected = append(selected, b)
	}
	return selected, nil
}

func (p PartialAllocation) DeclaredBags(int) int { return len(p.BagIDs) }

func (PartialAllocation) isBagSelection() {}

// MergeSelections combines two selections of the same lot for the same buyer. A full
// lot absorbs anything; partial selections are unioned in first-seen order.
func MergeSelections(a, b BagSelection) BagSelection {
	pa, okA := a.(PartialAllocation)
	pb, okB := b.(PartialAllocation)
	if !okA || !okB {
		return FullLot{}
	}
	seen := make(map[int]struct{}, len(pa.BagIDs)+len(pb.BagIDs))
	ids := make([]int, 0, len(pa.BagIDs)+len(pb.BagIDs))
	for _, id := range append(append([]int(nil), pa.BagIDs...), pb.BagIDs...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return PartialAllocation{BagIDs: ids}
}

// Allocation assigns part (or all) of a lot to a buyer. Lot is joined by the store.
// Err is set when the stored selection could not be parsed; such allocations are
// skipped by the calculators with a warning.
type Allocation struct {
	ID        int          `json:"id"`
	LotID     int          `json:"lot_id"`
	BuyerID   int          `json:"buyer_id"`
	Selection BagSelection `json:"-"`
	Lot       Lot          `json:"lot"`
	Err       error        `json:"-"`
}

// ParseBagSelection validates the stored JSON form of an allocation.
//
//	null, "", "all"          -> FullLot
//	[3, 4, 5]                -> PartialAllocation
//	{"bag_ids": [3, 4, 5]}   -> PartialAllocation
func ParseBagSelection(raw []byte) (BagSelection, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return FullLot{}, nil
	}

	var ids []int
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAllocation, err)
		}
		if strings.EqualFold(strings.TrimSpace(s), "all") || strings.TrimSpace(s) == "" {
			return FullLot{}, nil
		}
		return nil, fmt.Errorf("%w: unknown selection %q", ErrInvalidAllocation, s)
	case '[':
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAllocation, err)
		}
	case '{':
		var p PartialAllocation
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAllocation, err)
		}
		ids = p.BagIDs
	default:
		return nil, fmt.Errorf("%w: unexpected JSON %q", ErrInvalidAllocation, string(trimmed))
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty bag list", ErrInvalidAllocation)
	}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: bag id %d", ErrInvalidAllocation, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: bag %d listed twice", ErrInvalidAllocation, id)
		}
		seen[id] = struct{}{}
	}
	return PartialAllocation{BagIDs: ids}, nil
}
