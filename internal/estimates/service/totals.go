package service

import (
	"context"

	"fieldops_backend/internal/estimates/transport"
	pricingsvc "fieldops_backend/internal/pricing/service"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerSource resolves the tax profile of the customer behind a job.
type CustomerSource interface {
	TaxProfileForJob(ctx context.Context, jobID uuid.UUID) (*pricingsvc.CustomerTax, error)
}

// SetCustomerSource wires the customer tax lookup. Without one, totals are
// computed in a customer context with no multiplier.
func (s *Service) SetCustomerSource(customers CustomerSource) {
	s.customers = customers
}

// Totals computes an estimate's subtotal, tax, and grand total. Tax is
// rendered at read time from the current configuration, never stored.
func (s *Service) Totals(ctx context.Context, id uuid.UUID) (*transport.TotalsResponse, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.LineItemsByEstimate(ctx, id)
	if err != nil {
		return nil, err
	}

	customer := &pricingsvc.CustomerTax{}
	if s.customers != nil {
		profile, err := s.customers.TaxProfileForJob(ctx, e.JobID)
		if err != nil {
			if !apperr.Is(err, apperr.KindNotFound) {
				return nil, err
			}
		} else if profile != nil {
			customer = profile
		}
	}

	typeTaxable := make(map[uuid.UUID]*bool)
	subtotal := decimal.Zero
	taxLines := make([]pricingsvc.TaxLine, 0, len(lines))
	for _, li := range lines {
		subtotal = subtotal.Add(li.Total())

		var taxable *bool
		if li.LineItemTypeID != nil {
			cached, ok := typeTaxable[*li.LineItemTypeID]
			if !ok {
				cached, err = s.pricing.LineItemTypeTaxable(ctx, *li.LineItemTypeID)
				if err != nil {
					return nil, err
				}
				typeTaxable[*li.LineItemTypeID] = cached
			}
			taxable = cached
		}
		taxLines = append(taxLines, pricingsvc.TaxLine{
			Total:           li.Total(),
			TaxableOverride: li.TaxableOverride,
			TaxRateOverride: li.TaxRateOverride,
			TypeTaxable:     taxable,
		})
	}

	tax := pricingsvc.DocumentTax(taxLines, customer,
		s.pricing.OrgTaxMultiplier(ctx), s.pricing.DefaultTaxRate(ctx))

	return &transport.TotalsResponse{
		EstimateID: e.ID,
		Subtotal:   subtotal,
		Tax:        tax,
		Total:      subtotal.Add(tax),
	}, nil
}
