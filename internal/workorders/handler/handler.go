// Package handler exposes the work orders HTTP API.
package handler

import (
	"net/http"

	"fieldops_backend/internal/workorders/repository"
	"fieldops_backend/internal/workorders/service"
	"fieldops_backend/internal/workorders/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for work orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new work orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes attaches the work orders routes to the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("/:id/status", h.ChangeStatus)
}

// List handles GET /work-orders?jobId=...
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
	out := make([]transport.WorkOrderResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// Get handles GET /work-orders/:id. Returns the work order with its tasks.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	w, err := h.svc.Get(ctx, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	tasks, err := h.svc.Tasks(ctx, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	detail := transport.WorkOrderDetailResponse{
		WorkOrderResponse: toResponse(w),
		Tasks:             make([]transport.WorkOrderTaskResponse, 0, len(tasks)),
	}
	for _, t := range tasks {
		detail.Tasks = append(detail.Tasks, transport.WorkOrderTaskResponse{
			ID:             t.ID,
			LineItemTypeID: t.LineItemTypeID,
			Assignee:       t.Assignee,
			Name:           t.Name,
			Description:    t.Description,
			Units:          t.Units,
			Rate:           t.Rate,
			EstQty:         t.EstQty,
			SortOrder:      t.SortOrder,
		})
	}
	httpkit.OK(c, detail)
}

// ChangeStatus handles POST /work-orders/:id/status.
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
	w, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(w))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid work order id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(w *repository.WorkOrder) transport.WorkOrderResponse {
	return transport.WorkOrderResponse{
		ID:              w.ID,
		JobID:           w.JobID,
		EstimateID:      w.EstimateID,
		WorkOrderNumber: w.WorkOrderNumber,
		Status:          w.Status,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}
