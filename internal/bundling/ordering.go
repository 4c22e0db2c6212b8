// Package bundling implements the shared ordering and grouping rules for
// tasks on worksheets and work orders, and for task associations on work
// order templates. Sort order is namespaced: bundles and unbundled items
// share one container-level integer space, while the items inside a bundle
// occupy their own per-bundle space starting at 1. The two spaces never mix.
//
// All functions here are pure; services load a container snapshot, compute a
// plan, and hand it to the repository to apply in one transaction.
package bundling

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// Item is a task or template association as the ordering rules see it.
type Item struct {
	ID        uuid.UUID
	SortOrder int
	BundleID  *uuid.UUID
	// Seq breaks sort-order ties by creation order (insertion sequence).
	Seq int
}

// Bundle is a container-level grouping row.
type Bundle struct {
	ID        uuid.UUID
	SortOrder int
}

// Container is a snapshot of one ordering scope: a worksheet, a work order,
// or a work order template.
type Container struct {
	Items   []Item
	Bundles []Bundle
}

// NextContainerSort computes the next container-level sort order:
// max over unbundled items and bundles, plus one. Items inside bundles are
// invisible to this computation regardless of their values.
func (c Container) NextContainerSort() int {
	max := 0
	for _, item := range c.Items {
		if item.BundleID == nil && item.SortOrder > max {
			max = item.SortOrder
		}
	}
	for _, b := range c.Bundles {
		if b.SortOrder > max {
			max = b.SortOrder
		}
	}
	return max + 1
}

// NextBundleSort computes the next within-bundle sort order for the given
// bundle: max over its current members, plus one. An empty bundle starts at 1.
func (c Container) NextBundleSort(bundleID uuid.UUID) int {
	max := 0
	for _, item := range c.Items {
		if item.BundleID != nil && *item.BundleID == bundleID && item.SortOrder > max {
			max = item.SortOrder
		}
	}
	return max + 1
}

// Members returns the items currently in the given bundle, in bundle order.
func (c Container) Members(bundleID uuid.UUID) []Item {
	var members []Item
	for _, item := range c.Items {
		if item.BundleID != nil && *item.BundleID == bundleID {
			members = append(members, item)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].SortOrder != members[j].SortOrder {
			return members[i].SortOrder < members[j].SortOrder
		}
		return lessID(members[i], members[j])
	})
	return members
}

// item lookup by ID; second result is false when absent.
func (c Container) find(id uuid.UUID) (Item, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// OrderAssignment pairs an item with its new sort order.
type OrderAssignment struct {
	ItemID    uuid.UUID
	SortOrder int
}

// sortByPriorOrder orders the selection by previous sort order, breaking ties
// by creation sequence and finally by ID so the result is total.
func sortByPriorOrder(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		if items[i].Seq != items[j].Seq {
			return items[i].Seq < items[j].Seq
		}
		return lessID(items[i], items[j])
	})
}

func lessID(a, b Item) bool {
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
