// Package handler exposes the jobs HTTP API.
package handler

import (
	"net/http"

	"fieldops_backend/internal/jobs/repository"
	"fieldops_backend/internal/jobs/service"
	"fieldops_backend/internal/jobs/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for jobs.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new jobs handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes attaches the jobs routes to the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/status", h.ChangeStatus)
}

// Create handles POST /jobs.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	job, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toResponse(job))
}

// Get handles GET /jobs/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(job))
}

// List handles GET /jobs.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	result, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toListResponse(result))
}

// Update handles PATCH /jobs/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	job, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(job))
}

// Delete handles DELETE /jobs/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// ChangeStatus handles POST /jobs/:id/status.
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
	job, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toResponse(job))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid job id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(j *repository.Job) transport.JobResponse {
	return transport.JobResponse{
		ID:            j.ID,
		JobNumber:     j.JobNumber,
		Status:        j.Status,
		ContactID:     j.ContactID,
		Description:   j.Description,
		CreatedDate:   j.CreatedDate,
		StartDate:     j.StartDate,
		CompletedDate: j.CompletedDate,
		DueDate:       j.DueDate,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

func toListResponse(r *repository.ListResult) transport.JobListResponse {
	items := make([]transport.JobResponse, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, toResponse(&r.Items[i]))
	}
	return transport.JobListResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalPages: r.TotalPages,
	}
}
