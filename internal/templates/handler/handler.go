// Package handler exposes the templates HTTP API.
package handler

import (
	"net/http"

	"fieldops_backend/internal/templates/repository"
	"fieldops_backend/internal/templates/service"
	"fieldops_backend/internal/templates/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for work order templates and task templates.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new templates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes attaches the work order template routes to the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	group.POST("/:id/tasks", h.AddAssociation)
	group.DELETE("/:id/tasks/:associationId", h.RemoveAssociation)

	group.POST("/:id/bundles", h.GroupAssociations)
	group.DELETE("/:id/bundles/:bundleId/tasks/:associationId", h.RemoveFromBundle)

	group.POST("/:id/generate", h.GenerateTasks)
}

// RegisterTaskTemplateRoutes attaches the task template routes to the given
// group.
func (h *Handler) RegisterTaskTemplateRoutes(group *gin.RouterGroup) {
	group.POST("", h.CreateTaskTemplate)
	group.GET("", h.ListTaskTemplates)
	group.GET("/:id", h.GetTaskTemplate)
	group.PATCH("/:id", h.UpdateTaskTemplate)
	group.DELETE("/:id", h.DeleteTaskTemplate)
}

// ── Work order templates ──────────────────────────────────────────────────────

// Create handles POST /templates.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	t, err := h.svc.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toTemplateResponse(t))
}

// List handles GET /templates.
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	out := make([]transport.TemplateResponse, 0, len(items))
	for i := range items {
		out = append(out, toTemplateResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// Get handles GET /templates/:id. Returns the template with its associations
// and bundles.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	t, err := h.svc.GetTemplate(ctx, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	associations, err := h.svc.Associations(ctx, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	bundles, err := h.svc.TemplateBundles(ctx, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	detail := transport.TemplateDetailResponse{
		TemplateResponse: toTemplateResponse(t),
		Associations:     make([]transport.AssociationResponse, 0, len(associations)),
		Bundles:          make([]transport.TemplateBundleResponse, 0, len(bundles)),
	}
	for _, a := range associations {
		detail.Associations = append(detail.Associations, toAssociationResponse(&a))
	}
	for _, b := range bundles {
		detail.Bundles = append(detail.Bundles, toTemplateBundleResponse(&b))
	}
	httpkit.OK(c, detail)
}

// Update handles PATCH /templates/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	t, err := h.svc.UpdateTemplate(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toTemplateResponse(t))
}

// Delete handles DELETE /templates/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTemplate(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// ── Associations and bundles ──────────────────────────────────────────────────

// AddAssociation handles POST /templates/:id/tasks.
func (h *Handler) AddAssociation(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.AddAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	a, err := h.svc.AddAssociation(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toAssociationResponse(a))
}

// RemoveAssociation handles DELETE /templates/:id/tasks/:associationId.
func (h *Handler) RemoveAssociation(c *gin.Context) {
	associationID, ok := parseParamID(c, "associationId")
	if !ok {
		return
	}
	if err := h.svc.RemoveAssociation(c.Request.Context(), associationID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// GroupAssociations handles POST /templates/:id/bundles.
func (h *Handler) GroupAssociations(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.GroupAssociationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	bundle, err := h.svc.GroupAssociations(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toTemplateBundleResponse(bundle))
}

// RemoveFromBundle handles DELETE /templates/:id/bundles/:bundleId/tasks/:associationId.
func (h *Handler) RemoveFromBundle(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	bundleID, ok := parseParamID(c, "bundleId")
	if !ok {
		return
	}
	associationID, ok := parseParamID(c, "associationId")
	if !ok {
		return
	}
	if err := h.svc.RemoveFromBundle(c.Request.Context(), id, bundleID, associationID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// GenerateTasks handles POST /templates/:id/generate.
func (h *Handler) GenerateTasks(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	if err := h.svc.GenerateTasks(c.Request.Context(), id, req.WorksheetID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// ── Task templates ────────────────────────────────────────────────────────────

// CreateTaskTemplate handles POST /task-templates.
func (h *Handler) CreateTaskTemplate(c *gin.Context) {
	var req transport.CreateTaskTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	t, err := h.svc.CreateTaskTemplate(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toTaskTemplateResponse(t))
}

// ListTaskTemplates handles GET /task-templates.
func (h *Handler) ListTaskTemplates(c *gin.Context) {
	items, err := h.svc.ListTaskTemplates(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	out := make([]transport.TaskTemplateResponse, 0, len(items))
	for i := range items {
		out = append(out, toTaskTemplateResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// GetTaskTemplate handles GET /task-templates/:id.
func (h *Handler) GetTaskTemplate(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetTaskTemplate(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toTaskTemplateResponse(t))
}

// UpdateTaskTemplate handles PATCH /task-templates/:id.
func (h *Handler) UpdateTaskTemplate(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateTaskTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	t, err := h.svc.UpdateTaskTemplate(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toTaskTemplateResponse(t))
}

// DeleteTaskTemplate handles DELETE /task-templates/:id.
func (h *Handler) DeleteTaskTemplate(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTaskTemplate(c.Request.Context(), id); err != nil {
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

func toTemplateResponse(t *repository.WorkOrderTemplate) transport.TemplateResponse {
	return transport.TemplateResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		ProductType: t.ProductType,
		BasePrice:   t.BasePrice,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskTemplateResponse(t *repository.TaskTemplate) transport.TaskTemplateResponse {
	return transport.TaskTemplateResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Units:          t.Units,
		DefaultRate:    t.DefaultRate,
		DefaultQty:     t.DefaultQty,
		LineItemTypeID: t.LineItemTypeID,
		ProductType:    t.ProductType,
		StepType:       t.StepType,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toAssociationResponse(a *repository.Association) transport.AssociationResponse {
	return transport.AssociationResponse{
		ID:               a.ID,
		TemplateID:       a.TemplateID,
		TaskTemplateID:   a.TaskTemplateID,
		BundleID:         a.BundleID,
		SortOrder:        a.SortOrder,
		MappingStrategy:  a.MappingStrategy,
		BundleIdentifier: a.BundleIdentifier,
	}
}

func toTemplateBundleResponse(b *repository.TemplateBundle) transport.TemplateBundleResponse {
	return transport.TemplateBundleResponse{
		ID:             b.ID,
		TemplateID:     b.TemplateID,
		Name:           b.Name,
		Description:    b.Description,
		LineItemTypeID: b.LineItemTypeID,
		SortOrder:      b.SortOrder,
	}
}
