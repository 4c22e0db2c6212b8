// Package transport defines request/response DTOs for the estimates module.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateEstimateRequest generates an estimate from a worksheet.
type GenerateEstimateRequest struct {
	WorksheetID uuid.UUID `json:"worksheetId" binding:"required"`
}

// UpdateEstimateRequest partially updates an estimate's dates. Changes to
// already-set protected dates are silently discarded.
type UpdateEstimateRequest struct {
	CreatedDate    *time.Time `json:"createdDate"`
	SentDate       *time.Time `json:"sentDate"`
	ClosedDate     *time.Time `json:"closedDate"`
	ExpirationDate *time.Time `json:"expirationDate"`
}

// ChangeStatusRequest moves an estimate through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft open accepted rejected expired superseded"`
}

// EstimateResponse is the API shape of an estimate.
type EstimateResponse struct {
	ID             uuid.UUID  `json:"id"`
	JobID          uuid.UUID  `json:"jobId"`
	EstimateNumber string     `json:"estimateNumber"`
	Version        int        `json:"version"`
	Status         string     `json:"status"`
	ParentID       *uuid.UUID `json:"parentId,omitempty"`
	CreatedDate    *time.Time `json:"createdDate,omitempty"`
	SentDate       *time.Time `json:"sentDate,omitempty"`
	ClosedDate     *time.Time `json:"closedDate,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// LineItemResponse is the API shape of an estimate line item.
type LineItemResponse struct {
	ID              uuid.UUID        `json:"id"`
	TaskID          *uuid.UUID       `json:"taskId,omitempty"`
	PriceListItemID *uuid.UUID       `json:"priceListItemId,omitempty"`
	LineNumber      int              `json:"lineNumber"`
	Description     string           `json:"description"`
	Qty             decimal.Decimal  `json:"qty"`
	Units           string           `json:"units"`
	Price           decimal.Decimal  `json:"price"`
	Total           decimal.Decimal  `json:"total"`
	LineItemTypeID  *uuid.UUID       `json:"lineItemTypeId,omitempty"`
	TaxableOverride *bool            `json:"taxableOverride,omitempty"`
	TaxRateOverride *decimal.Decimal `json:"taxRateOverride,omitempty"`
}

// TotalsResponse is an estimate's computed money summary.
type TotalsResponse struct {
	EstimateID uuid.UUID       `json:"estimateId"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}
