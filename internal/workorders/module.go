// Package workorders provides the work order domain module: execution-side
// documents created from accepted estimates.
package workorders

import (
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/numbering"
	"fieldops_backend/internal/workorders/handler"
	"fieldops_backend/internal/workorders/repository"
	"fieldops_backend/internal/workorders/service"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the work orders domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new work orders module with all dependencies wired.
// lines provides the accepted estimate's line items.
func NewModule(pool *pgxpool.Pool, lines service.LineItemSource, numbers numbering.Allocator, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, lines, numbers, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "workorders"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// EstimateObserver returns the observer that creates a work order when an
// estimate is accepted.
func (m *Module) EstimateObserver() *service.EstimateObserver {
	return service.NewEstimateObserver(m.service)
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/work-orders")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
