package shipment

import (
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// OutputCategories is the order in which lists are rendered: the shipment
// categories by priority, then the Unmatched diagnostic list.
var OutputCategories = append(append([]types.Category(nil), types.ShipmentCategories...), types.CategoryUnmatched)

// Manifest holds one file's shipment lists, one per category including
// Unmatched. A Manifest is built fresh for every file.
type Manifest struct {
	lists map[types.Category]*types.ShipmentList
}

// Build groups assignments into per-category lists. Entries keep the order in
// which their records were first seen; every assignment lands in exactly one
// list.
func Build(assignments []types.CategoryAssignment) *Manifest {
	m := &Manifest{lists: make(map[types.Category]*types.ShipmentList, len(OutputCategories))}
	for _, c := range OutputCategories {
		m.lists[c] = &types.ShipmentList{Category: c}
	}
	for _, a := range assignments {
		list, ok := m.lists[a.Category]
		if !ok {
			list = m.lists[types.CategoryUnmatched]
		}
		list.Append(a.Record)
	}
	return m
}

// List returns the list for c. It is never nil for an output category.
func (m *Manifest) List(c types.Category) *types.ShipmentList {
	return m.lists[c]
}

// Unmatched returns the diagnostic list.
func (m *Manifest) Unmatched() *types.ShipmentList {
	return m.lists[types.CategoryUnmatched]
}

// NonEmpty returns the lists that have entries, in OutputCategories order.
func (m *Manifest) NonEmpty() []*types.ShipmentList {
	var out []*types.ShipmentList
	for _, c := range OutputCategories {
		if l := m.lists[c]; l.Len() > 0 {
			out = append(out, l)
		}
	}
	return out
}

// RecordCount returns the number of records across all lists.
func (m *Manifest) RecordCount() int {
	n := 0
	for _, l := range m.lists {
		n += l.Len()
	}
	return n
}
