// Package pricing provides the pricing configuration domain module:
// line item types, bundling rules, and tax calculation.
package pricing

import (
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/pricing/handler"
	"fieldops_backend/internal/pricing/repository"
	"fieldops_backend/internal/pricing/service"
	"fieldops_backend/internal/settings"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the pricing domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new pricing module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, settingsSvc *settings.Service, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, settingsSvc)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "pricing"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/pricing")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
