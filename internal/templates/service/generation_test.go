package service

import (
	"testing"

	"fieldops_backend/internal/templates/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlanGenerationRemapsBundleMembership(t *testing.T) {
	templateID := uuid.New()
	tplBundleID := uuid.New()
	typeID := uuid.New()

	install := repository.TaskTemplate{
		ID:          uuid.New(),
		Name:        "Install unit",
		Units:       "hours",
		DefaultRate: dec("75"),
		DefaultQty:  dec("3"),
		ProductType: strPtr("water_heater"),
		StepType:    strPtr("labor"),
	}
	haul := repository.TaskTemplate{
		ID:          uuid.New(),
		Name:        "Haul away",
		Units:       "each",
		DefaultRate: dec("50"),
		DefaultQty:  dec("1"),
	}

	associations := []repository.Association{
		{ID: uuid.New(), TemplateID: templateID, TaskTemplateID: install.ID, BundleID: &tplBundleID, SortOrder: 1, MappingStrategy: "bundle"},
		{ID: uuid.New(), TemplateID: templateID, TaskTemplateID: haul.ID, BundleID: &tplBundleID, SortOrder: 2, MappingStrategy: "bundle"},
	}
	tplBundles := []repository.TemplateBundle{
		{ID: tplBundleID, TemplateID: templateID, Name: "Water Heater Swap", LineItemTypeID: typeID, SortOrder: 1},
	}
	taskTemplates := map[uuid.UUID]repository.TaskTemplate{install.ID: install, haul.ID: haul}

	bundles, tasks, err := planGeneration(associations, tplBundles, taskTemplates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundles) != 1 || len(tasks) != 2 {
		t.Fatalf("expected 1 bundle and 2 tasks, got %d and %d", len(bundles), len(tasks))
	}

	b := bundles[0]
	if b.ID == tplBundleID {
		t.Fatal("generated bundle must get a fresh identity")
	}
	if b.SourceTemplateBundleID == nil || *b.SourceTemplateBundleID != tplBundleID {
		t.Fatal("generated bundle must record its template bundle provenance")
	}
	if b.Name != "Water Heater Swap" || b.LineItemTypeID != typeID || b.SortOrder != 1 {
		t.Fatalf("bundle metadata not carried over: %+v", b)
	}

	for _, task := range tasks {
		if task.BundleID == nil || *task.BundleID != b.ID {
			t.Fatalf("task %q must point at the new bundle, got %v", task.Name, task.BundleID)
		}
		if task.MappingStrategy != "bundle" {
			t.Fatalf("task %q lost its mapping strategy", task.Name)
		}
	}
	first := tasks[0]
	if first.Name != "Install unit" || first.Units != "hours" || !first.Rate.Equal(dec("75")) || !first.EstQty.Equal(dec("3")) {
		t.Fatalf("task template defaults not carried over: %+v", first)
	}
	if first.TemplateID == nil || *first.TemplateID != install.ID {
		t.Fatal("task must record its task template provenance")
	}
	if first.ProductType == nil || *first.ProductType != "water_heater" {
		t.Fatal("product type not carried over")
	}
	if first.StepType == nil || *first.StepType != "labor" {
		t.Fatal("step type not carried over")
	}
}

func TestPlanGenerationCopiesBundleIdentifier(t *testing.T) {
	templateID := uuid.New()
	tt := repository.TaskTemplate{ID: uuid.New(), Name: "Flush tank", Units: "each", DefaultQty: dec("1")}
	associations := []repository.Association{
		{ID: uuid.New(), TemplateID: templateID, TaskTemplateID: tt.ID, SortOrder: 1, MappingStrategy: "bundle", BundleIdentifier: strPtr("WH1")},
	}
	taskTemplates := map[uuid.UUID]repository.TaskTemplate{tt.ID: tt}

	bundles, tasks, err := planGeneration(associations, nil, taskTemplates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundles) != 0 {
		t.Fatalf("expected no bundles, got %d", len(bundles))
	}
	if tasks[0].BundleIdentifier == nil || *tasks[0].BundleIdentifier != "WH1" {
		t.Fatal("bundle identifier not carried over")
	}
	if tasks[0].BundleID != nil {
		t.Fatal("identifier-mapped task must not get a bundle FK")
	}
}

func TestPlanGenerationFreshTaskIdentities(t *testing.T) {
	templateID := uuid.New()
	tt := repository.TaskTemplate{ID: uuid.New(), Name: "Inspect", Units: "each", DefaultQty: dec("1")}
	associations := []repository.Association{
		{ID: uuid.New(), TemplateID: templateID, TaskTemplateID: tt.ID, SortOrder: 1, MappingStrategy: "direct"},
		{ID: uuid.New(), TemplateID: templateID, TaskTemplateID: tt.ID, SortOrder: 2, MappingStrategy: "direct"},
	}
	taskTemplates := map[uuid.UUID]repository.TaskTemplate{tt.ID: tt}

	_, tasks, err := planGeneration(associations, nil, taskTemplates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("one association, one task: got %d", len(tasks))
	}
	if tasks[0].ID == tasks[1].ID {
		t.Fatal("each generated task needs its own identity")
	}
	if tasks[0].SortOrder != 1 || tasks[1].SortOrder != 2 {
		t.Fatalf("relative sort orders must be preserved: %d, %d", tasks[0].SortOrder, tasks[1].SortOrder)
	}
}

func TestPlanGenerationRejectsForeignBundleReference(t *testing.T) {
	templateID := uuid.New()
	foreign := uuid.New()
	tt := repository.TaskTemplate{ID: uuid.New(), Name: "Inspect", Units: "each", DefaultQty: dec("1")}
	associations := []repository.Association{
		{ID: uuid.New(), TemplateID: templateID, TaskTemplateID: tt.ID, BundleID: &foreign, SortOrder: 1, MappingStrategy: "bundle"},
	}
	taskTemplates := map[uuid.UUID]repository.TaskTemplate{tt.ID: tt}

	if _, _, err := planGeneration(associations, nil, taskTemplates); err == nil {
		t.Fatal("expected an error for a bundle reference outside the template")
	}
}
