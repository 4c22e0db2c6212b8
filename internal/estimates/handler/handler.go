// Package handler exposes the estimates HTTP API.
package handler

import (
	"net/http"

	"fieldops_backend/internal/estimates/repository"
	"fieldops_backend/internal/estimates/service"
	"fieldops_backend/internal/estimates/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for estimates.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new estimates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes attaches the estimates routes to the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/generate", h.Generate)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.POST("/:id/status", h.ChangeStatus)
	group.GET("/:id/line-items", h.LineItems)
	group.GET("/:id/totals", h.Totals)
}

// Generate handles POST /estimates/generate.
func (h *Handler) Generate(c *gin.Context) {
	var req transport.GenerateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	e, err := h.svc.Generate(c.Request.Context(), req.WorksheetID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toResponse(e))
}

// List handles GET /estimates?jobId=...
func (h *Handler) List(c *gin.Context) {
	jobID, err := uuid.Parse(c.Query("jobId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "jobId query parameter is required", nil)
		return
	}
	items, err := h.svc.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	out := make([]transport.EstimateResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// Get handles GET /estimates/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(e))
}

// Update handles PATCH /estimates/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	e, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(e))
}

// ChangeStatus handles POST /estimates/:id/status.
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	e, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(e))
}

// LineItems handles GET /estimates/:id/line-items.
func (h *Handler) LineItems(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := h.svc.LineItems(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	out := make([]transport.LineItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toLineItemResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// Totals handles GET /estimates/:id/totals.
func (h *Handler) Totals(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	totals, err := h.svc.Totals(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, totals)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid estimate id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(e *repository.Estimate) transport.EstimateResponse {
	return transport.EstimateResponse{
		ID:             e.ID,
		JobID:          e.JobID,
		EstimateNumber: e.EstimateNumber,
		Version:        e.Version,
		Status:         e.Status,
		ParentID:       e.ParentID,
		CreatedDate:    e.CreatedDate,
		SentDate:       e.SentDate,
		ClosedDate:     e.ClosedDate,
		ExpirationDate: e.ExpirationDate,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toLineItemResponse(li *repository.LineItem) transport.LineItemResponse {
	return transport.LineItemResponse{
		ID:              li.ID,
		TaskID:          li.TaskID,
		PriceListItemID: li.PriceListItemID,
		LineNumber:      li.LineNumber,
		Description:     li.Description,
		Qty:             li.Qty,
		Units:           li.Units,
		Price:           li.Price,
		Total:           li.Total(),
		LineItemTypeID:  li.LineItemTypeID,
		TaxableOverride: li.TaxableOverride,
		TaxRateOverride: li.TaxRateOverride,
	}
}
