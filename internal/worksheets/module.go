// Package worksheets provides the estimate worksheet domain module: tasks,
// task bundles, the shared ordering rules, and worksheet versioning.
package worksheets

import (
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/worksheets/handler"
	"fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/internal/worksheets/service"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the worksheets domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new worksheets module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "worksheets"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/worksheets")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
