package bundling

import (
	"testing"

	"github.com/google/uuid"
)

func ref(id uuid.UUID) *uuid.UUID { return &id }

func TestNextContainerSortIgnoresBundleInternalValues(t *testing.T) {
	bundleID := uuid.New()
	c := Container{
		Items: []Item{
			{ID: uuid.New(), SortOrder: 1},
			{ID: uuid.New(), SortOrder: 2},
			// Bundled members with huge in-bundle orders must not leak into
			// the container namespace.
			{ID: uuid.New(), SortOrder: 98, BundleID: ref(bundleID)},
			{ID: uuid.New(), SortOrder: 99, BundleID: ref(bundleID)},
		},
		Bundles: []Bundle{{ID: bundleID, SortOrder: 3}},
	}

	if got := c.NextContainerSort(); got != 4 {
		t.Fatalf("expected next container sort 4, got %d", got)
	}
}

func TestNextContainerSortEmptyContainer(t *testing.T) {
	if got := (Container{}).NextContainerSort(); got != 1 {
		t.Fatalf("expected 1 for empty container, got %d", got)
	}
}

func TestNextBundleSortIgnoresContainerValues(t *testing.T) {
	bundleID := uuid.New()
	c := Container{
		Items: []Item{
			{ID: uuid.New(), SortOrder: 40},
			{ID: uuid.New(), SortOrder: 1, BundleID: ref(bundleID)},
			{ID: uuid.New(), SortOrder: 2, BundleID: ref(bundleID)},
		},
		Bundles: []Bundle{{ID: bundleID, SortOrder: 41}},
	}

	if got := c.NextBundleSort(bundleID); got != 3 {
		t.Fatalf("expected next bundle sort 3, got %d", got)
	}
}

func TestNextBundleSortEmptyBundleStartsAtOne(t *testing.T) {
	bundleID := uuid.New()
	c := Container{Bundles: []Bundle{{ID: bundleID, SortOrder: 7}}}

	if got := c.NextBundleSort(bundleID); got != 1 {
		t.Fatalf("expected 1 for empty bundle, got %d", got)
	}
}

func TestPlanGroupNewBundleAssignsSequentialOrders(t *testing.T) {
	first := Item{ID: uuid.New(), SortOrder: 3, Seq: 1}
	second := Item{ID: uuid.New(), SortOrder: 1, Seq: 2}
	third := Item{ID: uuid.New(), SortOrder: 2, Seq: 3}
	c := Container{Items: []Item{first, second, third}}

	plan, err := PlanGroup(c, nil, []uuid.UUID{first.ID, second.ID, third.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.CreateBundle {
		t.Fatal("expected a new bundle to be created")
	}
	if plan.BundleSort != 4 {
		t.Fatalf("expected bundle slot 4, got %d", plan.BundleSort)
	}

	// Pre-bundling relative order: second (1), third (2), first (3).
	want := []uuid.UUID{second.ID, third.ID, first.ID}
	for i, assignment := range plan.Assignments {
		if assignment.ItemID != want[i] {
			t.Fatalf("assignment %d: expected item %s, got %s", i, want[i], assignment.ItemID)
		}
		if assignment.SortOrder != i+1 {
			t.Fatalf("assignment %d: expected order %d, got %d", i, i+1, assignment.SortOrder)
		}
	}
}

func TestPlanGroupTieBreaksByCreationOrder(t *testing.T) {
	older := Item{ID: uuid.New(), SortOrder: 5, Seq: 1}
	newer := Item{ID: uuid.New(), SortOrder: 5, Seq: 2}
	c := Container{Items: []Item{newer, older}}

	plan, err := PlanGroup(c, nil, []uuid.UUID{newer.ID, older.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Assignments[0].ItemID != older.ID {
		t.Fatal("expected the older item to come first on a sort-order tie")
	}
}

func TestPlanGroupExistingBundleContinuesNumbering(t *testing.T) {
	bundleID := uuid.New()
	bundle := Bundle{ID: bundleID, SortOrder: 1}
	existing := Item{ID: uuid.New(), SortOrder: 2, BundleID: ref(bundleID)}
	incoming := Item{ID: uuid.New(), SortOrder: 5}
	c := Container{Items: []Item{existing, incoming}, Bundles: []Bundle{bundle}}

	plan, err := PlanGroup(c, &bundle, []uuid.UUID{incoming.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CreateBundle {
		t.Fatal("expected reuse of the existing bundle")
	}
	if len(plan.Assignments) != 1 || plan.Assignments[0].SortOrder != 3 {
		t.Fatalf("expected the new member at in-bundle order 3, got %+v", plan.Assignments)
	}
}

func TestPlanGroupUnknownItem(t *testing.T) {
	if _, err := PlanGroup(Container{}, nil, []uuid.UUID{uuid.New()}); err == nil {
		t.Fatal("expected an error for an item outside the container")
	}
}

func TestPlanRemovalDissolvesTwoMemberBundle(t *testing.T) {
	bundleID := uuid.New()
	bundle := Bundle{ID: bundleID, SortOrder: 2}
	removed := Item{ID: uuid.New(), SortOrder: 1, BundleID: ref(bundleID)}
	survivor := Item{ID: uuid.New(), SortOrder: 2, BundleID: ref(bundleID)}
	c := Container{
		Items:   []Item{removed, survivor, {ID: uuid.New(), SortOrder: 1}},
		Bundles: []Bundle{bundle},
	}

	plan, err := PlanRemoval(c, bundle, removed.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.DeleteBundle {
		t.Fatal("expected the bundle to dissolve when one member would remain")
	}
	if plan.Survivor == nil || *plan.Survivor != survivor.ID {
		t.Fatalf("expected survivor %s, got %v", survivor.ID, plan.Survivor)
	}
	if plan.SurvivorSort != 2 {
		t.Fatalf("expected survivor to take the bundle slot 2, got %d", plan.SurvivorSort)
	}
	if plan.RemovedSort != 3 || plan.BumpFrom != 3 {
		t.Fatalf("expected removed item at slot 3 with bump from 3, got %d/%d", plan.RemovedSort, plan.BumpFrom)
	}
}

func TestPlanRemovalKeepsLargerBundle(t *testing.T) {
	bundleID := uuid.New()
	bundle := Bundle{ID: bundleID, SortOrder: 1}
	a := Item{ID: uuid.New(), SortOrder: 1, BundleID: ref(bundleID)}
	b := Item{ID: uuid.New(), SortOrder: 2, BundleID: ref(bundleID)}
	d := Item{ID: uuid.New(), SortOrder: 3, BundleID: ref(bundleID)}
	c := Container{Items: []Item{a, b, d}, Bundles: []Bundle{bundle}}

	plan, err := PlanRemoval(c, bundle, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.DeleteBundle {
		t.Fatal("expected the bundle to persist with two remaining members")
	}
	if plan.Survivor != nil {
		t.Fatal("expected no survivor handling for a surviving bundle")
	}
	if plan.RemovedSort != 2 {
		t.Fatalf("expected removed item at slot 2, got %d", plan.RemovedSort)
	}
}

func TestPlanRemovalNonMember(t *testing.T) {
	bundle := Bundle{ID: uuid.New(), SortOrder: 1}
	c := Container{Bundles: []Bundle{bundle}}

	if _, err := PlanRemoval(c, bundle, uuid.New()); err == nil {
		t.Fatal("expected an error for removing a non-member")
	}
}

func TestPlanMoveRunsSourceDissolveChecks(t *testing.T) {
	sourceID, destID := uuid.New(), uuid.New()
	source := Bundle{ID: sourceID, SortOrder: 1}
	dest := Bundle{ID: destID, SortOrder: 2}
	moving := Item{ID: uuid.New(), SortOrder: 1, BundleID: ref(sourceID)}
	staying := Item{ID: uuid.New(), SortOrder: 2, BundleID: ref(sourceID)}
	destMember := Item{ID: uuid.New(), SortOrder: 1, BundleID: ref(destID)}
	c := Container{Items: []Item{moving, staying, destMember}, Bundles: []Bundle{source, dest}}

	plan, err := PlanMove(c, source, dest, moving.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Removal.DeleteBundle {
		t.Fatal("expected the source bundle to dissolve")
	}
	if plan.Removal.Survivor == nil || *plan.Removal.Survivor != staying.ID {
		t.Fatal("expected the staying item to become direct")
	}
	if plan.Group.BundleID != destID || len(plan.Group.Assignments) != 1 {
		t.Fatalf("expected a single assignment into the destination, got %+v", plan.Group)
	}
	if plan.Group.Assignments[0].SortOrder != 2 {
		t.Fatalf("expected in-bundle order 2 in destination, got %d", plan.Group.Assignments[0].SortOrder)
	}
	if plan.Removal.BumpFrom != 0 {
		t.Fatal("expected no container bump on a move")
	}
}

func TestPlanMoveSameBundle(t *testing.T) {
	bundle := Bundle{ID: uuid.New(), SortOrder: 1}
	if _, err := PlanMove(Container{}, bundle, bundle, uuid.New()); err == nil {
		t.Fatal("expected an error moving within the same bundle")
	}
}
