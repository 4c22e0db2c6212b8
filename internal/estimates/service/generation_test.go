package service

import (
	"context"
	"strings"
	"testing"

	pricingrepo "fieldops_backend/internal/pricing/repository"
	pricingsvc "fieldops_backend/internal/pricing/service"
	wsrepo "fieldops_backend/internal/worksheets/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakePricing struct {
	rules       map[string]*pricingrepo.BundlingRule
	basePrices  map[uuid.UUID]decimal.Decimal
	defaultType *uuid.UUID
}

func (f *fakePricing) RuleForProductType(_ context.Context, productType string) (*pricingrepo.BundlingRule, error) {
	return f.rules[productType], nil
}

func (f *fakePricing) TemplateBasePrice(_ context.Context, templateID uuid.UUID) (*decimal.Decimal, error) {
	if price, ok := f.basePrices[templateID]; ok {
		return &price, nil
	}
	return nil, nil
}

func (f *fakePricing) DefaultLineItemTypeID(context.Context) (*uuid.UUID, error) {
	return f.defaultType, nil
}

func (f *fakePricing) LineItemTypeTaxable(context.Context, uuid.UUID) (*bool, error) {
	return nil, nil
}

func (f *fakePricing) DefaultTaxRate(context.Context) decimal.Decimal {
	return decimal.Zero
}

func (f *fakePricing) OrgTaxMultiplier(context.Context) *decimal.Decimal {
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func bundledTask(name string, bundleID uuid.UUID, qty, rate string, sortOrder int, seq int64, productType string) wsrepo.Task {
	t := wsrepo.Task{
		ID:              uuid.New(),
		BundleID:        &bundleID,
		Name:            name,
		Units:           "each",
		Rate:            dec(rate),
		EstQty:          dec(qty),
		SortOrder:       sortOrder,
		Seq:             seq,
		MappingStrategy: "bundle",
	}
	if productType != "" {
		t.ProductType = &productType
	}
	return t
}

func directTask(name string, qty, rate string, sortOrder int, seq int64) wsrepo.Task {
	return wsrepo.Task{
		ID:              uuid.New(),
		Name:            name,
		Units:           "each",
		Rate:            dec(rate),
		EstQty:          dec(qty),
		SortOrder:       sortOrder,
		Seq:             seq,
		MappingStrategy: "direct",
	}
}

func TestPlanLineItemsBundleEach(t *testing.T) {
	typeID := uuid.New()
	bundleID := uuid.New()
	pricing := &fakePricing{
		rules: map[string]*pricingrepo.BundlingRule{
			"install": {
				RuleName:      "install each",
				ProductType:   "install",
				PricingMethod: pricingsvc.PricingSumComponents,
				DefaultUnits:  pricingsvc.UnitsEach,
				IsActive:      true,
			},
		},
	}
	bundles := []wsrepo.TaskBundle{{ID: bundleID, Name: "Install Package", LineItemTypeID: typeID, SortOrder: 1}}
	tasks := []wsrepo.Task{
		bundledTask("Mount unit", bundleID, "1", "200", 1, 1, "install"),
		bundledTask("Wire unit", bundleID, "2", "150", 2, 2, "install"),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, bundles)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if !line.Qty.Equal(dec("1")) {
		t.Errorf("qty = %s, want 1", line.Qty)
	}
	if line.Units != "each" {
		t.Errorf("units = %q, want each", line.Units)
	}
	if !line.Price.Equal(dec("500")) {
		t.Errorf("price = %s, want 500", line.Price)
	}
	if line.LineItemTypeID == nil || *line.LineItemTypeID != typeID {
		t.Errorf("line item type = %v, want bundle's %s", line.LineItemTypeID, typeID)
	}
	if !strings.HasPrefix(line.Description, "Install Package") {
		t.Errorf("description = %q, want bundle name first", line.Description)
	}
}

func TestPlanLineItemsBundleHours(t *testing.T) {
	bundleID := uuid.New()
	pricing := &fakePricing{
		rules: map[string]*pricingrepo.BundlingRule{
			"service_call": {
				RuleName:      "service hours",
				ProductType:   "service_call",
				PricingMethod: pricingsvc.PricingSumComponents,
				DefaultUnits:  pricingsvc.UnitsHours,
				IsActive:      true,
			},
		},
	}
	bundles := []wsrepo.TaskBundle{{ID: bundleID, Name: "Service Visit", LineItemTypeID: uuid.New(), SortOrder: 1}}
	tasks := []wsrepo.Task{
		bundledTask("Diagnose", bundleID, "2", "75", 1, 1, "service_call"),
		bundledTask("Repair", bundleID, "3", "75", 2, 2, "service_call"),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, bundles)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if !line.Qty.Equal(dec("5")) {
		t.Errorf("qty = %s, want 5", line.Qty)
	}
	if line.Units != "hours" {
		t.Errorf("units = %q, want hours", line.Units)
	}
	if !line.Price.Equal(dec("375")) {
		t.Errorf("price = %s, want 375", line.Price)
	}
}

func TestPlanLineItemsDirect(t *testing.T) {
	defaultType := uuid.New()
	pricing := &fakePricing{defaultType: &defaultType}
	tasks := []wsrepo.Task{
		directTask("First", "2", "100", 1, 1),
		directTask("Second", "1", "50", 2, 2),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, nil)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].LineNumber != 1 || lines[1].LineNumber != 2 {
		t.Errorf("line numbers = %d, %d; want 1, 2", lines[0].LineNumber, lines[1].LineNumber)
	}
	if !lines[0].Total().Equal(dec("200")) {
		t.Errorf("first total = %s, want 200", lines[0].Total())
	}
	if lines[0].Description != "First" {
		t.Errorf("description = %q, want task name", lines[0].Description)
	}
	if lines[0].TaskID == nil || *lines[0].TaskID != tasks[0].ID {
		t.Errorf("first line should carry its task provenance")
	}
	if lines[0].LineItemTypeID == nil || *lines[0].LineItemTypeID != defaultType {
		t.Errorf("untyped task should fall back to the default type")
	}
}

func TestPlanLineItemsTotalsStableAcrossRuns(t *testing.T) {
	pricing := &fakePricing{}
	tasks := []wsrepo.Task{
		directTask("A", "2", "100", 3, 3),
		directTask("B", "1", "50", 1, 1),
		directTask("C", "4", "25", 2, 2),
	}

	first, err := planLineItems(context.Background(), pricing, tasks, nil)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	// Reversed input order must not change per-line totals or numbering.
	reversed := []wsrepo.Task{tasks[2], tasks[1], tasks[0]}
	second, err := planLineItems(context.Background(), pricing, reversed, nil)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("line counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Description != second[i].Description {
			t.Errorf("line %d: order changed: %q vs %q", i+1, first[i].Description, second[i].Description)
		}
		if !first[i].Total().Equal(second[i].Total()) {
			t.Errorf("line %d: total changed: %s vs %s", i+1, first[i].Total(), second[i].Total())
		}
	}
	// Sorted by originating sort order: B (1), C (2), A (3).
	if first[0].Description != "B" || first[1].Description != "C" || first[2].Description != "A" {
		t.Errorf("lines not in container order: %q, %q, %q",
			first[0].Description, first[1].Description, first[2].Description)
	}
}

func TestPlanLineItemsExcludeDropped(t *testing.T) {
	pricing := &fakePricing{}
	excluded := directTask("Hidden", "1", "999", 1, 1)
	excluded.MappingStrategy = "exclude"
	tasks := []wsrepo.Task{excluded, directTask("Visible", "1", "10", 2, 2)}

	lines, err := planLineItems(context.Background(), pricing, tasks, nil)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 1 || lines[0].Description != "Visible" {
		t.Fatalf("excluded task leaked into output: %+v", lines)
	}
}

func TestPlanLineItemsAllExcluded(t *testing.T) {
	pricing := &fakePricing{}
	excluded := directTask("Hidden", "1", "999", 1, 1)
	excluded.MappingStrategy = "exclude"

	if _, err := planLineItems(context.Background(), pricing, []wsrepo.Task{excluded}, nil); err != ErrEmptyWorksheet {
		t.Fatalf("err = %v, want ErrEmptyWorksheet", err)
	}
}

func TestPlanLineItemsIdentifierGroup(t *testing.T) {
	pricing := &fakePricing{
		rules: map[string]*pricingrepo.BundlingRule{
			"water_heater": {
				RuleName:      "water heaters",
				ProductType:   "water_heater",
				PricingMethod: pricingsvc.PricingSumComponents,
				DefaultUnits:  pricingsvc.UnitsEach,
				IsActive:      true,
			},
		},
	}
	mk := func(name, qty, rate string, sortOrder int, seq int64, ident string) wsrepo.Task {
		t := wsrepo.Task{
			ID:              uuid.New(),
			Name:            name,
			Units:           "each",
			Rate:            dec(rate),
			EstQty:          dec(qty),
			SortOrder:       sortOrder,
			Seq:             seq,
			MappingStrategy: "bundle",
			ProductType:     strPtr("water_heater"),
		}
		if ident != "" {
			t.BundleIdentifier = &ident
		}
		return t
	}
	tasks := []wsrepo.Task{
		mk("Remove old unit", "1", "100", 1, 1, "WH1"),
		mk("Install new unit", "1", "400", 2, 2, "WH1"),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, nil)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if !line.Price.Equal(dec("500")) {
		t.Errorf("price = %s, want 500", line.Price)
	}
	if !strings.HasPrefix(line.Description, "Custom Water Heater - WH1") {
		t.Errorf("description = %q, want identifier pattern", line.Description)
	}
	if !strings.Contains(line.Description, "\n- Remove old unit") || !strings.Contains(line.Description, "\n- Install new unit") {
		t.Errorf("description missing component list: %q", line.Description)
	}
}

func TestPlanLineItemsCombineInstances(t *testing.T) {
	pricing := &fakePricing{
		rules: map[string]*pricingrepo.BundlingRule{
			"water_heater": {
				RuleName:         "water heaters",
				ProductType:      "water_heater",
				PricingMethod:    pricingsvc.PricingSumComponents,
				DefaultUnits:     pricingsvc.UnitsEach,
				CombineInstances: true,
				IsActive:         true,
			},
		},
	}
	mk := func(name, rate string, sortOrder int, seq int64, ident string) wsrepo.Task {
		return wsrepo.Task{
			ID:               uuid.New(),
			Name:             name,
			Units:            "each",
			Rate:             dec(rate),
			EstQty:           dec("1"),
			SortOrder:        sortOrder,
			Seq:              seq,
			MappingStrategy:  "bundle",
			ProductType:      strPtr("water_heater"),
			BundleIdentifier: &ident,
		}
	}
	tasks := []wsrepo.Task{
		mk("Install WH1", "400", 1, 1, "WH1"),
		mk("Install WH2", "420", 2, 2, "WH2"),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, nil)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if !line.Qty.Equal(dec("2")) {
		t.Errorf("qty = %s, want 2", line.Qty)
	}
	if line.Description != "2x Water Heater" {
		t.Errorf("description = %q, want combined pattern", line.Description)
	}
	if !line.Price.Equal(dec("820")) {
		t.Errorf("price = %s, want 820", line.Price)
	}
}

func TestPlanLineItemsStepGates(t *testing.T) {
	bundleID := uuid.New()
	pricing := &fakePricing{
		rules: map[string]*pricingrepo.BundlingRule{
			"install": {
				RuleName:         "labor only",
				ProductType:      "install",
				PricingMethod:    pricingsvc.PricingSumComponents,
				DefaultUnits:     pricingsvc.UnitsEach,
				IncludeMaterials: false,
				IncludeLabor:     true,
				IncludeOverhead:  false,
				IsActive:         true,
			},
		},
	}
	bundles := []wsrepo.TaskBundle{{ID: bundleID, Name: "Install", LineItemTypeID: uuid.New(), SortOrder: 1}}

	labor := bundledTask("Labor", bundleID, "1", "300", 1, 1, "install")
	labor.StepType = strPtr("labor")
	materials := bundledTask("Materials", bundleID, "1", "150", 2, 2, "install")
	materials.StepType = strPtr("materials")
	untyped := bundledTask("Misc", bundleID, "1", "25", 3, 3, "install")

	lines, err := planLineItems(context.Background(), pricing, []wsrepo.Task{labor, materials, untyped}, bundles)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	// Materials gated out; the untyped component always contributes.
	if !lines[0].Price.Equal(dec("325")) {
		t.Errorf("price = %s, want 325", lines[0].Price)
	}
}

func TestPlanLineItemsTemplateBase(t *testing.T) {
	bundleID := uuid.New()
	templateID := uuid.New()
	pricing := &fakePricing{
		rules: map[string]*pricingrepo.BundlingRule{
			"install": {
				RuleName:            "flat install",
				ProductType:         "install",
				WorkOrderTemplateID: &templateID,
				PricingMethod:       pricingsvc.PricingTemplateBase,
				DefaultUnits:        pricingsvc.UnitsEach,
				IsActive:            true,
			},
		},
		basePrices: map[uuid.UUID]decimal.Decimal{templateID: dec("999")},
	}
	bundles := []wsrepo.TaskBundle{{ID: bundleID, Name: "Install", LineItemTypeID: uuid.New(), SortOrder: 1}}
	tasks := []wsrepo.Task{
		bundledTask("Mount", bundleID, "1", "200", 1, 1, "install"),
		bundledTask("Wire", bundleID, "2", "150", 2, 2, "install"),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, bundles)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if !lines[0].Price.Equal(dec("999")) {
		t.Errorf("price = %s, want the template base 999", lines[0].Price)
	}
}

func TestPlanLineItemsInterleavedOrder(t *testing.T) {
	typeID := uuid.New()
	bundleID := uuid.New()
	pricing := &fakePricing{}

	// Container order: direct (1), bundle (2), direct (3). Bundle members
	// carry within-bundle orders that would collide with container values.
	bundles := []wsrepo.TaskBundle{{ID: bundleID, Name: "Middle", LineItemTypeID: typeID, SortOrder: 2}}
	tasks := []wsrepo.Task{
		directTask("Before", "1", "10", 1, 1),
		bundledTask("Member A", bundleID, "1", "20", 1, 2, ""),
		bundledTask("Member B", bundleID, "1", "30", 2, 3, ""),
		directTask("After", "1", "40", 3, 4),
	}

	lines, err := planLineItems(context.Background(), pricing, tasks, bundles)
	if err != nil {
		t.Fatalf("planLineItems: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	wantOrder := []string{"Before", "Middle", "After"}
	for i, want := range wantOrder {
		if !strings.HasPrefix(lines[i].Description, want) {
			t.Errorf("line %d = %q, want prefix %q", i+1, lines[i].Description, want)
		}
		if lines[i].LineNumber != i+1 {
			t.Errorf("line %d has number %d", i+1, lines[i].LineNumber)
		}
	}
}
