// Package templates provides the work order template domain module: reusable
// templates, task templates, template-time bundling, and task generation onto
// worksheets.
package templates

import (
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/templates/handler"
	"fieldops_backend/internal/templates/repository"
	"fieldops_backend/internal/templates/service"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the templates domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new templates module with all dependencies wired.
// worksheets receives the generated bundles and tasks.
func NewModule(pool *pgxpool.Pool, worksheets service.WorksheetImporter, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, worksheets, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "templates"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/templates"))
	m.handler.RegisterTaskTemplateRoutes(ctx.Protected.Group("/task-templates"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
