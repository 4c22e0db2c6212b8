// Package transport defines request/response DTOs for the jobs module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateJobRequest creates a new job in draft.
type CreateJobRequest struct {
	ContactID   uuid.UUID  `json:"contactId" binding:"required"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateJobRequest partially updates a job. Status is intentionally absent:
// status moves only through the status endpoint.
type UpdateJobRequest struct {
	ContactID   *uuid.UUID `json:"contactId"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	// Write-once date fields may be supplied; changes to already-set values
	// are silently discarded.
	CreatedDate   *time.Time `json:"createdDate"`
	StartDate     *time.Time `json:"startDate"`
	CompletedDate *time.Time `json:"completedDate"`
}

// ChangeStatusRequest moves a job through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft submitted approved rejected completed cancelled blocked"`
}

// ListJobsRequest filters the job list.
type ListJobsRequest struct {
	ContactID *uuid.UUID `form:"contactId"`
	Status    *string    `form:"status" binding:"omitempty,oneof=draft submitted approved rejected completed cancelled blocked"`
	Search    string     `form:"search" binding:"omitempty,max=128"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// JobResponse is the API shape of a job.
type JobResponse struct {
	ID            uuid.UUID  `json:"id"`
	JobNumber     string     `json:"jobNumber"`
	Status        string     `json:"status"`
	ContactID     uuid.UUID  `json:"contactId"`
	Description   *string    `json:"description,omitempty"`
	CreatedDate   *time.Time `json:"createdDate,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// JobListResponse is a paginated job list.
type JobListResponse struct {
	Items      []JobResponse `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}
