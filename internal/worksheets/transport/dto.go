// Package transport defines request/response DTOs for the worksheets module.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWorksheetRequest creates a new draft worksheet for a job.
type CreateWorksheetRequest struct {
	JobID      uuid.UUID  `json:"jobId" binding:"required"`
	TemplateID *uuid.UUID `json:"templateId"`
}

// CreateTaskRequest adds a task to a worksheet. Tasks always enter the
// container namespace; bundle membership moves through the bundle endpoints.
type CreateTaskRequest struct {
	ParentTaskID     *uuid.UUID       `json:"parentTaskId"`
	LineItemTypeID   *uuid.UUID       `json:"lineItemTypeId"`
	Assignee         *string          `json:"assignee" binding:"omitempty,max=128"`
	Name             string           `json:"name" binding:"required,max=255"`
	Description      *string          `json:"description" binding:"omitempty,max=2000"`
	Units            string           `json:"units" binding:"omitempty,max=32"`
	Rate             *decimal.Decimal `json:"rate"`
	EstQty           *decimal.Decimal `json:"estQty"`
	MappingStrategy  string           `json:"mappingStrategy" binding:"omitempty,oneof=direct exclude"`
	BundleIdentifier *string          `json:"bundleIdentifier" binding:"omitempty,max=128"`
	ProductType      *string          `json:"productType" binding:"omitempty,max=128"`
	StepType         *string          `json:"stepType" binding:"omitempty,oneof=materials labor overhead"`
}

// UpdateTaskRequest partially updates a task. Bundle membership is not
// editable here.
type UpdateTaskRequest struct {
	ParentTaskID     *uuid.UUID       `json:"parentTaskId"`
	LineItemTypeID   *uuid.UUID       `json:"lineItemTypeId"`
	Assignee         *string          `json:"assignee" binding:"omitempty,max=128"`
	Name             *string          `json:"name" binding:"omitempty,max=255"`
	Description      *string          `json:"description" binding:"omitempty,max=2000"`
	Units            *string          `json:"units" binding:"omitempty,max=32"`
	Rate             *decimal.Decimal `json:"rate"`
	EstQty           *decimal.Decimal `json:"estQty"`
	MappingStrategy  *string          `json:"mappingStrategy" binding:"omitempty,oneof=direct exclude"`
	BundleIdentifier *string          `json:"bundleIdentifier" binding:"omitempty,max=128"`
	ProductType      *string          `json:"productType" binding:"omitempty,max=128"`
	StepType         *string          `json:"stepType" binding:"omitempty,oneof=materials labor overhead"`
}

// GroupTasksRequest groups tasks into a named bundle. Grouping into an
// existing bundle of the same name accumulates membership.
type GroupTasksRequest struct {
	Name           string      `json:"name" binding:"required,max=255"`
	Description    *string     `json:"description" binding:"omitempty,max=2000"`
	LineItemTypeID uuid.UUID   `json:"lineItemTypeId" binding:"required"`
	TaskIDs        []uuid.UUID `json:"taskIds" binding:"required,min=1"`
}

// MoveTaskRequest moves one task from its current bundle into another.
type MoveTaskRequest struct {
	TaskID       uuid.UUID `json:"taskId" binding:"required"`
	DestBundleID uuid.UUID `json:"destBundleId" binding:"required"`
}

// WorksheetResponse is the API shape of a worksheet header.
type WorksheetResponse struct {
	ID         uuid.UUID  `json:"id"`
	JobID      uuid.UUID  `json:"jobId"`
	TemplateID *uuid.UUID `json:"templateId,omitempty"`
	EstimateID *uuid.UUID `json:"estimateId,omitempty"`
	Status     string     `json:"status"`
	Version    int        `json:"version"`
	ParentID   *uuid.UUID `json:"parentId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TaskResponse is the API shape of a task.
type TaskResponse struct {
	ID               uuid.UUID        `json:"id"`
	WorksheetID      *uuid.UUID       `json:"worksheetId,omitempty"`
	WorkOrderID      *uuid.UUID       `json:"workOrderId,omitempty"`
	ParentTaskID     *uuid.UUID       `json:"parentTaskId,omitempty"`
	TemplateID       *uuid.UUID       `json:"templateId,omitempty"`
	LineItemTypeID   *uuid.UUID       `json:"lineItemTypeId,omitempty"`
	BundleID         *uuid.UUID       `json:"bundleId,omitempty"`
	Assignee         *string          `json:"assignee,omitempty"`
	Name             string           `json:"name"`
	Description      *string          `json:"description,omitempty"`
	Units            string           `json:"units"`
	Rate             decimal.Decimal  `json:"rate"`
	EstQty           decimal.Decimal  `json:"estQty"`
	SortOrder        int              `json:"sortOrder"`
	MappingStrategy  string           `json:"mappingStrategy"`
	BundleIdentifier *string          `json:"bundleIdentifier,omitempty"`
	ProductType      *string          `json:"productType,omitempty"`
	StepType         *string          `json:"stepType,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// BundleResponse is the API shape of a task bundle.
type BundleResponse struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	Description            *string    `json:"description,omitempty"`
	LineItemTypeID         uuid.UUID  `json:"lineItemTypeId"`
	SortOrder              int        `json:"sortOrder"`
	SourceTemplateBundleID *uuid.UUID `json:"sourceTemplateBundleId,omitempty"`
}

// WorksheetDetailResponse is a worksheet with its tasks and bundles.
type WorksheetDetailResponse struct {
	WorksheetResponse
	Tasks   []TaskResponse   `json:"tasks"`
	Bundles []BundleResponse `json:"bundles"`
}
