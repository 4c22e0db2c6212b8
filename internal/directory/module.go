// Package directory provides the businesses and contacts domain module,
// including the business deletion workflow and the purchasing document
// headers it manages.
package directory

import (
	"fieldops_backend/internal/directory/handler"
	"fieldops_backend/internal/directory/repository"
	"fieldops_backend/internal/directory/service"
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the directory domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new directory module with all dependencies wired.
// jobs guards contact moves against open work.
func NewModule(pool *pgxpool.Pool, jobs service.JobCounter, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, jobs, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "directory"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterBusinessRoutes(ctx.Protected.Group("/businesses"))
	m.handler.RegisterContactRoutes(ctx.Protected.Group("/contacts"))
	m.handler.RegisterDocumentRoutes(ctx.Protected.Group("/purchase-orders"), repository.DocPurchaseOrder)
	m.handler.RegisterDocumentRoutes(ctx.Protected.Group("/bills"), repository.DocBill)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
