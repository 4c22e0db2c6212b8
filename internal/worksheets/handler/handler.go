// Package handler exposes the worksheets HTTP API.
package handler

import (
	"net/http"

	"fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/internal/worksheets/service"
	"fieldops_backend/internal/worksheets/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Handler handles HTTP requests for worksheets.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new worksheets handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes attaches the worksheets routes to the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("/:id/versions", h.CreateVersion)

	group.POST("/:id/tasks", h.CreateTask)
	group.PATCH("/:id/tasks/:taskId", h.UpdateTask)
	group.DELETE("/:id/tasks/:taskId", h.DeleteTask)

	group.POST("/:id/bundles", h.GroupTasks)
	group.DELETE("/:id/bundles/:bundleId/tasks/:taskId", h.RemoveFromBundle)
	group.POST("/:id/bundles/move", h.MoveTask)
}

// Create handles POST /worksheets.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	w, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toWorksheetResponse(w))
}

// List handles GET /worksheets?jobId=...
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
	out := make([]transport.WorksheetResponse, 0, len(items))
	for i := range items {
		out = append(out, toWorksheetResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// Get handles GET /worksheets/:id. Returns the worksheet with its tasks and
// bundles.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	w, err := h.svc.Get(ctx, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	var (
		tasks   []repository.Task
		bundles []repository.TaskBundle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = h.svc.Tasks(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		bundles, err = h.svc.Bundles(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	detail := transport.WorksheetDetailResponse{
		WorksheetResponse: toWorksheetResponse(w),
		Tasks:             make([]transport.TaskResponse, 0, len(tasks)),
		Bundles:           make([]transport.BundleResponse, 0, len(bundles)),
	}
	for i := range tasks {
		detail.Tasks = append(detail.Tasks, toTaskResponse(&tasks[i]))
	}
	for _, b := range bundles {
		detail.Bundles = append(detail.Bundles, transport.BundleResponse{
			ID:                     b.ID,
			Name:                   b.Name,
			Description:            b.Description,
			LineItemTypeID:         b.LineItemTypeID,
			SortOrder:              b.SortOrder,
			SourceTemplateBundleID: b.SourceTemplateBundleID,
		})
	}
	httpkit.OK(c, detail)
}

// CreateVersion handles POST /worksheets/:id/versions.
func (h *Handler) CreateVersion(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	next, err := h.svc.CreateNewVersion(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toWorksheetResponse(next))
}

// CreateTask handles POST /worksheets/:id/tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	t, err := h.svc.CreateTask(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toTaskResponse(t))
}

// UpdateTask handles PATCH /worksheets/:id/tasks/:taskId.
func (h *Handler) UpdateTask(c *gin.Context) {
	taskID, ok := parseParamID(c, "taskId")
	if !ok {
		return
	}
	var req transport.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	t, err := h.svc.UpdateTask(c.Request.Context(), taskID, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toTaskResponse(t))
}

// DeleteTask handles DELETE /worksheets/:id/tasks/:taskId.
func (h *Handler) DeleteTask(c *gin.Context) {
	taskID, ok := parseParamID(c, "taskId")
	if !ok {
		return
	}
	if err := h.svc.DeleteTask(c.Request.Context(), taskID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// GroupTasks handles POST /worksheets/:id/bundles.
func (h *Handler) GroupTasks(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.GroupTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	bundle, err := h.svc.GroupTasks(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, transport.BundleResponse{
		ID:                     bundle.ID,
		Name:                   bundle.Name,
		Description:            bundle.Description,
		LineItemTypeID:         bundle.LineItemTypeID,
		SortOrder:              bundle.SortOrder,
		SourceTemplateBundleID: bundle.SourceTemplateBundleID,
	})
}

// RemoveFromBundle handles DELETE /worksheets/:id/bundles/:bundleId/tasks/:taskId.
func (h *Handler) RemoveFromBundle(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	bundleID, ok := parseParamID(c, "bundleId")
	if !ok {
		return
	}
	taskID, ok := parseParamID(c, "taskId")
	if !ok {
		return
	}
	if err := h.svc.RemoveFromBundle(c.Request.Context(), id, bundleID, taskID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// MoveTask handles POST /worksheets/:id/bundles/move.
func (h *Handler) MoveTask(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	if err := h.svc.MoveTask(c.Request.Context(), id, req); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

func parseParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func toWorksheetResponse(w *repository.Worksheet) transport.WorksheetResponse {
	return transport.WorksheetResponse{
		ID:         w.ID,
		JobID:      w.JobID,
		TemplateID: w.TemplateID,
		EstimateID: w.EstimateID,
		Status:     w.Status,
		Version:    w.Version,
		ParentID:   w.ParentID,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

func toTaskResponse(t *repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:               t.ID,
		WorksheetID:      t.WorksheetID,
		WorkOrderID:      t.WorkOrderID,
		ParentTaskID:     t.ParentTaskID,
		TemplateID:       t.TemplateID,
		LineItemTypeID:   t.LineItemTypeID,
		BundleID:         t.BundleID,
		Assignee:         t.Assignee,
		Name:             t.Name,
		Description:      t.Description,
		Units:            t.Units,
		Rate:             t.Rate,
		EstQty:           t.EstQty,
		SortOrder:        t.SortOrder,
		MappingStrategy:  t.MappingStrategy,
		BundleIdentifier: t.BundleIdentifier,
		ProductType:      t.ProductType,
		StepType:         t.StepType,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}
