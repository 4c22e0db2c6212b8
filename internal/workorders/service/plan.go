package service

import (
	"strings"
	"time"

	estrepo "fieldops_backend/internal/estimates/repository"
	wsrepo "fieldops_backend/internal/worksheets/repository"

	"github.com/google/uuid"
)

// planTasks maps estimate line items onto work order tasks: one direct task
// per line item, container slot taken from the line number. Bundled lines
// carry a multi-line description whose first line is the bundle name; only
// that first line becomes the task name.
func planTasks(workOrderID uuid.UUID, lines []estrepo.LineItem, now time.Time) []wsrepo.Task {
	woID := workOrderID
	tasks := make([]wsrepo.Task, 0, len(lines))
	for _, line := range lines {
		name, _, _ := strings.Cut(line.Description, "\n")
		var description *string
		if line.Description != name {
			d := line.Description
			description = &d
		}
		tasks = append(tasks, wsrepo.Task{
			ID:              uuid.New(),
			WorkOrderID:     &woID,
			LineItemTypeID:  line.LineItemTypeID,
			Name:            name,
			Description:     description,
			Units:           line.Units,
			Rate:            line.Price,
			EstQty:          line.Qty,
			SortOrder:       line.LineNumber,
			MappingStrategy: "direct",
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return tasks
}
