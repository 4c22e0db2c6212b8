// Package transport defines request/response DTOs for the pricing module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLineItemTypeRequest creates a new line item type.
type CreateLineItemTypeRequest struct {
	Code    string `json:"code" binding:"required,max=16"`
	Name    string `json:"name" binding:"required,max=128"`
	Taxable bool   `json:"taxable"`
}

// UpdateLineItemTypeRequest partially updates a line item type.
type UpdateLineItemTypeRequest struct {
	Code     *string `json:"code" binding:"omitempty,max=16"`
	Name     *string `json:"name" binding:"omitempty,max=128"`
	Taxable  *bool   `json:"taxable"`
	IsActive *bool   `json:"isActive"`
}

// LineItemTypeResponse is the API shape of a line item type.
type LineItemTypeResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Taxable   bool      `json:"taxable"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateBundlingRuleRequest creates a new bundling rule.
type CreateBundlingRuleRequest struct {
	RuleName             string     `json:"ruleName" binding:"required,max=128"`
	ProductType          string     `json:"productType" binding:"required,max=64"`
	WorkOrderTemplateID  *uuid.UUID `json:"workOrderTemplateId"`
	PricingMethod        string     `json:"pricingMethod" binding:"omitempty,oneof=sum_components template_base custom_calculation"`
	DefaultUnits         string     `json:"defaultUnits" binding:"omitempty,oneof=each hours"`
	CombineInstances     bool       `json:"combineInstances"`
	IncludeMaterials     *bool      `json:"includeMaterials"`
	IncludeLabor         *bool      `json:"includeLabor"`
	IncludeOverhead      *bool      `json:"includeOverhead"`
	OutputLineItemTypeID *uuid.UUID `json:"outputLineItemTypeId"`
	Priority             int        `json:"priority"`
}

// UpdateBundlingRuleRequest partially updates a bundling rule.
type UpdateBundlingRuleRequest struct {
	RuleName             *string    `json:"ruleName" binding:"omitempty,max=128"`
	ProductType          *string    `json:"productType" binding:"omitempty,max=64"`
	WorkOrderTemplateID  *uuid.UUID `json:"workOrderTemplateId"`
	PricingMethod        *string    `json:"pricingMethod" binding:"omitempty,oneof=sum_components template_base custom_calculation"`
	DefaultUnits         *string    `json:"defaultUnits" binding:"omitempty,oneof=each hours"`
	CombineInstances     *bool      `json:"combineInstances"`
	IncludeMaterials     *bool      `json:"includeMaterials"`
	IncludeLabor         *bool      `json:"includeLabor"`
	IncludeOverhead      *bool      `json:"includeOverhead"`
	OutputLineItemTypeID *uuid.UUID `json:"outputLineItemTypeId"`
	Priority             *int       `json:"priority"`
	IsActive             *bool      `json:"isActive"`
}

// BundlingRuleResponse is the API shape of a bundling rule.
type BundlingRuleResponse struct {
	ID                   uuid.UUID  `json:"id"`
	RuleName             string     `json:"ruleName"`
	ProductType          string     `json:"productType"`
	WorkOrderTemplateID  *uuid.UUID `json:"workOrderTemplateId,omitempty"`
	PricingMethod        string     `json:"pricingMethod"`
	DefaultUnits         string     `json:"defaultUnits"`
	CombineInstances     bool       `json:"combineInstances"`
	IncludeMaterials     bool       `json:"includeMaterials"`
	IncludeLabor         bool       `json:"includeLabor"`
	IncludeOverhead      bool       `json:"includeOverhead"`
	OutputLineItemTypeID *uuid.UUID `json:"outputLineItemTypeId,omitempty"`
	Priority             int        `json:"priority"`
	IsActive             bool       `json:"isActive"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}
