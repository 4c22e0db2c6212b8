package service

import (
	"testing"
	"time"

	estrepo "fieldops_backend/internal/estimates/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlanTasksOneDirectTaskPerLine(t *testing.T) {
	workOrderID := uuid.New()
	typeID := uuid.New()
	lines := []estrepo.LineItem{
		{ID: uuid.New(), LineNumber: 1, Description: "Replace valve", Qty: dec("2"), Units: "each", Price: dec("120"), LineItemTypeID: &typeID},
		{ID: uuid.New(), LineNumber: 2, Description: "Labor", Qty: dec("3"), Units: "hours", Price: dec("85")},
	}

	tasks := planTasks(workOrderID, lines, time.Now())
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.WorkOrderID == nil || *task.WorkOrderID != workOrderID {
			t.Fatalf("task %q must live on the work order", task.Name)
		}
		if task.WorksheetID != nil {
			t.Fatalf("task %q must not belong to a worksheet", task.Name)
		}
		if task.MappingStrategy != "direct" {
			t.Fatalf("task %q must be direct, got %s", task.Name, task.MappingStrategy)
		}
	}

	first := tasks[0]
	if first.Name != "Replace valve" || !first.EstQty.Equal(dec("2")) || !first.Rate.Equal(dec("120")) || first.Units != "each" {
		t.Fatalf("line item fields not carried over: %+v", first)
	}
	if first.LineItemTypeID == nil || *first.LineItemTypeID != typeID {
		t.Fatal("line item type not carried over")
	}
	if first.SortOrder != 1 || tasks[1].SortOrder != 2 {
		t.Fatalf("container order must follow line numbers: %d, %d", first.SortOrder, tasks[1].SortOrder)
	}
}

func TestPlanTasksBundleLineUsesFirstDescriptionLine(t *testing.T) {
	lines := []estrepo.LineItem{
		{ID: uuid.New(), LineNumber: 1, Description: "Water Heater Swap\n- Install unit\n- Haul away", Qty: dec("1"), Units: "each", Price: dec("500")},
	}

	tasks := planTasks(uuid.New(), lines, time.Now())
	if tasks[0].Name != "Water Heater Swap" {
		t.Fatalf("expected bundle name as task name, got %q", tasks[0].Name)
	}
	if tasks[0].Description == nil || *tasks[0].Description != lines[0].Description {
		t.Fatal("full line description must be kept on the task")
	}
}

func TestPlanTasksSingleLineDescriptionNotDuplicated(t *testing.T) {
	lines := []estrepo.LineItem{
		{ID: uuid.New(), LineNumber: 1, Description: "Replace valve", Qty: dec("1"), Units: "each", Price: dec("120")},
	}

	tasks := planTasks(uuid.New(), lines, time.Now())
	if tasks[0].Description != nil {
		t.Fatal("a single-line description is already the name; no separate description expected")
	}
}
