// Package estimates provides the estimate domain module: generation from
// worksheets, the status lifecycle, and the signals it drives into jobs and
// worksheets.
package estimates

import (
	"context"

	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/estimates/handler"
	"fieldops_backend/internal/estimates/repository"
	"fieldops_backend/internal/estimates/service"
	"fieldops_backend/internal/numbering"
	pricingsvc "fieldops_backend/internal/pricing/service"
	"fieldops_backend/internal/settings"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// JobsService is the jobs-side surface the estimates module needs.
type JobsService interface {
	service.JobSignals
	ContactIDForJob(ctx context.Context, jobID uuid.UUID) (uuid.UUID, error)
}

// ContactTaxSource reads a contact's tax multiplier.
type ContactTaxSource interface {
	ContactTaxMultiplier(ctx context.Context, contactID uuid.UUID) (*decimal.Decimal, error)
}

// WorksheetsService is the worksheet-side surface the estimates module
// needs.
type WorksheetsService interface {
	service.WorksheetSource
	service.WorksheetUpdater
}

// Module represents the estimates domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new estimates module with all dependencies wired. The
// worksheet and job observers fire synchronously after every status change.
func NewModule(pool *pgxpool.Pool, worksheets WorksheetsService, pricing *pricingsvc.Service, jobs JobsService, contacts ContactTaxSource, settingsSvc *settings.Service, numbers numbering.Allocator, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, worksheets, pricing, settingsSvc, numbers, log)
	svc.AddStatusObserver(&service.WorksheetObserver{Worksheets: worksheets})
	svc.AddStatusObserver(&service.JobObserver{Jobs: jobs})
	svc.SetCustomerSource(&jobTaxProfile{jobs: jobs, contacts: contacts})
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// jobTaxProfile resolves the customer tax profile behind a job's contact.
type jobTaxProfile struct {
	jobs     JobsService
	contacts ContactTaxSource
}

func (p *jobTaxProfile) TaxProfileForJob(ctx context.Context, jobID uuid.UUID) (*pricingsvc.CustomerTax, error) {
	contactID, err := p.jobs.ContactIDForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	multiplier, err := p.contacts.ContactTaxMultiplier(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return &pricingsvc.CustomerTax{TaxMultiplier: multiplier}, nil
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "estimates"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/estimates")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
