// Package transport contains request/response DTOs for the templates module.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

type CreateTemplateRequest struct {
	Title       string           `json:"title" binding:"required,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	ProductType *string          `json:"productType" binding:"omitempty,max=100"`
	BasePrice   *decimal.Decimal `json:"basePrice"`
}

type UpdateTemplateRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	ProductType *string          `json:"productType" binding:"omitempty,max=100"`
	BasePrice   *decimal.Decimal `json:"basePrice"`
	IsActive    *bool            `json:"isActive"`
}

type CreateTaskTemplateRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Description    *string          `json:"description" binding:"omitempty,max=2000"`
	Units          string           `json:"units" binding:"omitempty,max=20"`
	DefaultRate    *decimal.Decimal `json:"defaultRate"`
	DefaultQty     *decimal.Decimal `json:"defaultQty"`
	LineItemTypeID *uuid.UUID       `json:"lineItemTypeId"`
	ProductType    *string          `json:"productType" binding:"omitempty,max=100"`
	StepType       *string          `json:"stepType" binding:"omitempty,oneof=materials labor overhead"`
}

type UpdateTaskTemplateRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" binding:"omitempty,max=2000"`
	Units          *string          `json:"units" binding:"omitempty,max=20"`
	DefaultRate    *decimal.Decimal `json:"defaultRate"`
	DefaultQty     *decimal.Decimal `json:"defaultQty"`
	LineItemTypeID *uuid.UUID       `json:"lineItemTypeId"`
	ProductType    *string          `json:"productType" binding:"omitempty,max=100"`
	StepType       *string          `json:"stepType" binding:"omitempty,oneof=materials labor overhead"`
	IsActive       *bool            `json:"isActive"`
}

type AddAssociationRequest struct {
	TaskTemplateID   uuid.UUID `json:"taskTemplateId" binding:"required"`
	MappingStrategy  string    `json:"mappingStrategy" binding:"omitempty,oneof=direct exclude"`
	BundleIdentifier *string   `json:"bundleIdentifier" binding:"omitempty,max=100"`
}

type GroupAssociationsRequest struct {
	Name           string      `json:"name" binding:"required,min=1,max=200"`
	Description    *string     `json:"description" binding:"omitempty,max=2000"`
	LineItemTypeID uuid.UUID   `json:"lineItemTypeId" binding:"required"`
	AssociationIDs []uuid.UUID `json:"associationIds" binding:"required,min=1"`
}

type GenerateTasksRequest struct {
	WorksheetID uuid.UUID `json:"worksheetId" binding:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type TemplateResponse struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	ProductType *string          `json:"productType,omitempty"`
	BasePrice   *decimal.Decimal `json:"basePrice,omitempty"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type TaskTemplateResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Units          string          `json:"units"`
	DefaultRate    decimal.Decimal `json:"defaultRate"`
	DefaultQty     decimal.Decimal `json:"defaultQty"`
	LineItemTypeID *uuid.UUID      `json:"lineItemTypeId,omitempty"`
	ProductType    *string         `json:"productType,omitempty"`
	StepType       *string         `json:"stepType,omitempty"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type AssociationResponse struct {
	ID               uuid.UUID  `json:"id"`
	TemplateID       uuid.UUID  `json:"templateId"`
	TaskTemplateID   uuid.UUID  `json:"taskTemplateId"`
	BundleID         *uuid.UUID `json:"bundleId,omitempty"`
	SortOrder        int        `json:"sortOrder"`
	MappingStrategy  string     `json:"mappingStrategy"`
	BundleIdentifier *string    `json:"bundleIdentifier,omitempty"`
}

type TemplateBundleResponse struct {
	ID             uuid.UUID `json:"id"`
	TemplateID     uuid.UUID `json:"templateId"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	LineItemTypeID uuid.UUID `json:"lineItemTypeId"`
	SortOrder      int       `json:"sortOrder"`
}

type TemplateDetailResponse struct {
	TemplateResponse
	Associations []AssociationResponse    `json:"associations"`
	Bundles      []TemplateBundleResponse `json:"bundles"`
}
