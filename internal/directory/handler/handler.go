// Package handler exposes the directory HTTP API.
package handler

import (
	"net/http"

	"fieldops_backend/internal/directory/repository"
	"fieldops_backend/internal/directory/service"
	"fieldops_backend/internal/directory/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the directory.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new directory handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterBusinessRoutes attaches the business routes to the given group.
func (h *Handler) RegisterBusinessRoutes(group *gin.RouterGroup) {
	group.POST("", h.CreateBusiness)
	group.GET("", h.ListBusinesses)
	group.GET("/:id", h.GetBusiness)
	group.PATCH("/:id", h.UpdateBusiness)
	group.GET("/:id/contacts", h.ListContacts)
	group.GET("/:id/deletion-plan", h.PlanDeletion)
	group.POST("/:id/deletion", h.ExecuteDeletion)
}

// RegisterContactRoutes attaches the contact routes to the given group.
func (h *Handler) RegisterContactRoutes(group *gin.RouterGroup) {
	group.POST("", h.CreateContact)
	group.GET("/:id", h.GetContact)
	group.PATCH("/:id", h.UpdateContact)
	group.DELETE("/:id", h.DeleteContact)
}

// RegisterDocumentRoutes attaches the purchasing document routes. kind names
// the document family the group serves.
func (h *Handler) RegisterDocumentRoutes(group *gin.RouterGroup, kind string) {
	group.POST("", func(c *gin.Context) { h.createDocument(c, kind) })
	group.GET("/:id", func(c *gin.Context) { h.getDocument(c, kind) })
	group.DELETE("/:id", func(c *gin.Context) { h.deleteDocument(c, kind) })
}

// ── Businesses ────────────────────────────────────────────────────────────────

// CreateBusiness handles POST /businesses.
func (h *Handler) CreateBusiness(c *gin.Context) {
	var req transport.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	b, err := h.svc.CreateBusiness(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toBusinessResponse(b))
}

// ListBusinesses handles GET /businesses.
func (h *Handler) ListBusinesses(c *gin.Context) {
	items, err := h.svc.ListBusinesses(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	out := make([]transport.BusinessResponse, 0, len(items))
	for i := range items {
		out = append(out, toBusinessResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// GetBusiness handles GET /businesses/:id.
func (h *Handler) GetBusiness(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.GetBusiness(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toBusinessResponse(b))
}

// UpdateBusiness handles PATCH /businesses/:id.
func (h *Handler) UpdateBusiness(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	b, err := h.svc.UpdateBusiness(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toBusinessResponse(b))
}

// ListContacts handles GET /businesses/:id/contacts.
func (h *Handler) ListContacts(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.Contacts(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	out := make([]transport.ContactResponse, 0, len(items))
	for i := range items {
		out = append(out, toContactResponse(&items[i]))
	}
	httpkit.OK(c, out)
}

// PlanDeletion handles GET /businesses/:id/deletion-plan.
func (h *Handler) PlanDeletion(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	plan, err := h.svc.PlanDeletion(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, plan)
}

// ExecuteDeletion handles POST /businesses/:id/deletion.
func (h *Handler) ExecuteDeletion(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.ExecuteDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	if err := h.svc.ExecuteDeletion(c.Request.Context(), id, req.Choices); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// ── Contacts ──────────────────────────────────────────────────────────────────

// CreateContact handles POST /contacts.
func (h *Handler) CreateContact(c *gin.Context) {
	var req transport.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	contact, err := h.svc.CreateContact(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toContactResponse(contact))
}

// GetContact handles GET /contacts/:id.
func (h *Handler) GetContact(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	contact, err := h.svc.GetContact(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toContactResponse(contact))
}

// UpdateContact handles PATCH /contacts/:id.
func (h *Handler) UpdateContact(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	contact, err := h.svc.UpdateContact(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toContactResponse(contact))
}

// DeleteContact handles DELETE /contacts/:id. The optional body names the
// successor default contact.
func (h *Handler) DeleteContact(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.DeleteContactRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.HandleError(c, apperr.Validation(err.Error()))
			return
		}
	}
	if err := h.svc.DeleteContact(c.Request.Context(), id, req.NewDefaultContactID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

// ── Purchasing documents ──────────────────────────────────────────────────────

func (h *Handler) createDocument(c *gin.Context, kind string) {
	var req transport.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	d, err := h.svc.CreateDocument(c.Request.Context(), kind, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, toDocumentResponse(d))
}

func (h *Handler) getDocument(c *gin.Context, kind string) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	d, err := h.svc.GetDocument(c.Request.Context(), kind, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, toDocumentResponse(d))
}

func (h *Handler) deleteDocument(c *gin.Context, kind string) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDocument(c.Request.Context(), kind, id); err != nil {
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

func toBusinessResponse(b *repository.Business) transport.BusinessResponse {
	return transport.BusinessResponse{
		ID:               b.ID,
		Name:             b.Name,
		DefaultContactID: b.DefaultContactID,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toContactResponse(c *repository.Contact) transport.ContactResponse {
	return transport.ContactResponse{
		ID:            c.ID,
		BusinessID:    c.BusinessID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		TaxMultiplier: c.TaxMultiplier,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toDocumentResponse(d *repository.Document) transport.DocumentResponse {
	return transport.DocumentResponse{
		ID:        d.ID,
		ContactID: d.ContactID,
		Number:    d.Number,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
