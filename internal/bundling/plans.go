package bundling

import (
	"github.com/google/uuid"

	"fieldops_backend/platform/apperr"
)

// GroupPlan describes the writes needed to put a set of items into a bundle.
type GroupPlan struct {
	// BundleID is the target bundle (existing or to be created).
	BundleID uuid.UUID
	// CreateBundle is true when the bundle row must be inserted.
	CreateBundle bool
	// BundleSort is the container-level slot for a newly created bundle.
	BundleSort int
	// Assignments are the within-bundle sort orders for the incoming items.
	Assignments []OrderAssignment
}

// PlanGroup computes how the given items join a bundle. When existingBundle is
// nil a new bundle row is planned at the next container-level slot. The
// incoming items receive sequential within-bundle orders continuing after the
// bundle's current maximum, in their pre-bundling relative order.
func PlanGroup(c Container, existingBundle *Bundle, itemIDs []uuid.UUID) (GroupPlan, error) {
	if len(itemIDs) == 0 {
		return GroupPlan{}, apperr.Validation("no items selected for bundling")
	}

	var selected []Item
	for _, id := range itemIDs {
		item, ok := c.find(id)
		if !ok {
			return GroupPlan{}, apperr.NotFound("bundled item not found in container")
		}
		selected = append(selected, item)
	}

	plan := GroupPlan{}
	next := 1
	if existingBundle != nil {
		plan.BundleID = existingBundle.ID
		next = c.NextBundleSort(existingBundle.ID)
	} else {
		plan.BundleID = uuid.New()
		plan.CreateBundle = true
		plan.BundleSort = c.NextContainerSort()
	}

	sortByPriorOrder(selected)
	for _, item := range selected {
		plan.Assignments = append(plan.Assignments, OrderAssignment{ItemID: item.ID, SortOrder: next})
		next++
	}
	return plan, nil
}

// RemovalPlan describes the writes needed to take one item out of a bundle.
type RemovalPlan struct {
	// RemovedSort is the container-level slot given to the removed item.
	RemovedSort int
	// BumpFrom is the container-level slot at which every remaining
	// container-level row (unbundled items and bundles alike) with
	// sort_order >= BumpFrom must be incremented by one to make room.
	BumpFrom int
	// DeleteBundle is true when the bundle must be deleted (0 or 1 members
	// would remain).
	DeleteBundle bool
	// Survivor, when non-nil, is the last remaining member: it reverts to an
	// unbundled item at SurvivorSort (the bundle's old container slot).
	Survivor     *uuid.UUID
	SurvivorSort int
}

// PlanRemoval computes the effect of removing one item from a bundle,
// including the auto-dissolve rules: a bundle never persists with fewer than
// two members.
func PlanRemoval(c Container, bundle Bundle, removeID uuid.UUID) (RemovalPlan, error) {
	members := c.Members(bundle.ID)

	found := false
	var remaining []Item
	for _, m := range members {
		if m.ID == removeID {
			found = true
			continue
		}
		remaining = append(remaining, m)
	}
	if !found {
		return RemovalPlan{}, apperr.NotFound("item is not a member of the bundle")
	}

	plan := RemovalPlan{
		RemovedSort: bundle.SortOrder + 1,
		BumpFrom:    bundle.SortOrder + 1,
	}

	switch len(remaining) {
	case 0:
		plan.DeleteBundle = true
	case 1:
		// The survivor takes over the bundle's container slot.
		plan.DeleteBundle = true
		survivorID := remaining[0].ID
		plan.Survivor = &survivorID
		plan.SurvivorSort = bundle.SortOrder
	}
	return plan, nil
}

// MovePlan is a removal from the source bundle combined with joining the
// destination. The source side must run its dissolve checks even though the
// caller frames the action as a re-bundle.
type MovePlan struct {
	Removal RemovalPlan
	Group   GroupPlan
}

// PlanMove computes a move of one item between two bundles in the same
// container.
func PlanMove(c Container, source, dest Bundle, itemID uuid.UUID) (MovePlan, error) {
	if source.ID == dest.ID {
		return MovePlan{}, apperr.Validation("item is already in the target bundle")
	}

	removal, err := PlanRemoval(c, source, itemID)
	if err != nil {
		return MovePlan{}, err
	}

	group, err := PlanGroup(c, &dest, []uuid.UUID{itemID})
	if err != nil {
		return MovePlan{}, err
	}

	// The item never actually lands at the removal slot, so no container
	// bump is needed on a move.
	removal.BumpFrom = 0
	return MovePlan{Removal: removal, Group: group}, nil
}
