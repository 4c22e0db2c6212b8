// Package transport contains request/response DTOs for the work orders module.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft open completed"`
}

type WorkOrderResponse struct {
	ID              uuid.UUID  `json:"id"`
	JobID           uuid.UUID  `json:"jobId"`
	EstimateID      *uuid.UUID `json:"estimateId,omitempty"`
	WorkOrderNumber string     `json:"workOrderNumber"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type WorkOrderTaskResponse struct {
	ID             uuid.UUID       `json:"id"`
	LineItemTypeID *uuid.UUID      `json:"lineItemTypeId,omitempty"`
	Assignee       *string         `json:"assignee,omitempty"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Units          string          `json:"units"`
	Rate           decimal.Decimal `json:"rate"`
	EstQty         decimal.Decimal `json:"estQty"`
	SortOrder      int             `json:"sortOrder"`
}

type WorkOrderDetailResponse struct {
	WorkOrderResponse
	Tasks []WorkOrderTaskResponse `json:"tasks"`
}
