// Package jobs provides the job header domain module: job lifecycle,
// numbering, and the estimate-driven approval signals.
package jobs

import (
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/jobs/handler"
	"fieldops_backend/internal/jobs/repository"
	"fieldops_backend/internal/jobs/service"
	"fieldops_backend/internal/numbering"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the jobs domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new jobs module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, numbers numbering.Allocator, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, numbers, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "jobs"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/jobs")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
