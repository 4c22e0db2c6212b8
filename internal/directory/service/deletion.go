package service

import (
	"context"

	"fieldops_backend/internal/directory/domain"
	"fieldops_backend/internal/directory/repository"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
)

// PlanDeletion gathers everything deleting the business would touch, with
// the actions each object may take. Nothing is written.
func (s *Service) PlanDeletion(ctx context.Context, businessID uuid.UUID) (*domain.Plan, error) {
	b, err := s.repo.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.repo.ContactsByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		BusinessID:       businessID,
		DefaultContactID: b.DefaultContactID,
	}
	contactIDs := make([]uuid.UUID, 0, len(contacts))
	for _, c := range contacts {
		contactIDs = append(contactIDs, c.ID)
		plan.Contacts = append(plan.Contacts, domain.Dependent{
			ObjectType:     domain.ObjectContact,
			ObjectID:       c.ID,
			Label:          c.Name,
			AllowedActions: domain.ContactActions(),
		})
	}
	if len(contactIDs) == 0 {
		return plan, nil
	}

	jobs, err := s.repo.JobsByContacts(ctx, contactIDs)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		plan.Jobs = append(plan.Jobs, domain.Dependent{
			ObjectType:     domain.ObjectJob,
			ObjectID:       j.ID,
			Label:          j.JobNumber,
			Status:         j.Status,
			OwnerContactID: j.ContactID,
			AllowedActions: domain.JobActions(),
		})
	}

	for kind, objectType := range map[string]string{
		repository.DocPurchaseOrder: domain.ObjectPurchaseOrder,
		repository.DocBill:          domain.ObjectBill,
	} {
		docs, err := s.repo.DocumentsByContacts(ctx, kind, contactIDs)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			plan.Documents = append(plan.Documents, domain.Dependent{
				ObjectType:     objectType,
				ObjectID:       d.ID,
				Label:          d.Number,
				Status:         d.Status,
				OwnerContactID: derefOrNil(d.ContactID),
				AllowedActions: domain.DocumentActions(d.Status),
			})
		}
	}
	return plan, nil
}

// ExecuteDeletion validates the caller's decisions against a fresh plan and
// applies them atomically.
func (s *Service) ExecuteDeletion(ctx context.Context, businessID uuid.UUID, choices []domain.Choice) error {
	plan, err := s.PlanDeletion(ctx, businessID)
	if err != nil {
		return err
	}
	if err := domain.ValidateChoices(plan, choices); err != nil {
		return err
	}

	ex := repository.Execution{BusinessID: businessID}
	byObject := make(map[uuid.UUID]domain.Choice, len(choices))
	for _, c := range choices {
		byObject[c.ObjectID] = c
	}

	for _, dep := range plan.Contacts {
		c, ok := byObject[dep.ObjectID]
		if !ok {
			continue
		}
		switch c.Action {
		case domain.ActionDelete:
			ex.DeleteContacts = append(ex.DeleteContacts, dep.ObjectID)
		case domain.ActionReassign:
			if _, err := s.repo.GetBusiness(ctx, *c.ReassignTo); err != nil {
				return err
			}
			ex.ReassignContacts = append(ex.ReassignContacts, repository.ContactReassignment{
				ContactID:  dep.ObjectID,
				BusinessID: *c.ReassignTo,
			})
		case domain.ActionUnlink:
			ex.UnlinkContacts = append(ex.UnlinkContacts, dep.ObjectID)
		}
	}

	for _, dep := range plan.Jobs {
		c, ok := byObject[dep.ObjectID]
		if !ok {
			continue
		}
		switch c.Action {
		case domain.ActionDelete:
			ex.DeleteJobs = append(ex.DeleteJobs, dep.ObjectID)
		case domain.ActionReassign:
			ex.ReassignJobs = append(ex.ReassignJobs, repository.JobReassignment{
				JobID:     dep.ObjectID,
				ContactID: *c.ReassignTo,
			})
		}
	}

	for _, dep := range plan.Documents {
		c, ok := byObject[dep.ObjectID]
		if !ok {
			continue
		}
		switch dep.ObjectType {
		case domain.ObjectPurchaseOrder:
			if c.Action == domain.ActionDelete {
				ex.DeletePOs = append(ex.DeletePOs, dep.ObjectID)
			} else {
				ex.UnlinkPOs = append(ex.UnlinkPOs, dep.ObjectID)
			}
		case domain.ObjectBill:
			if c.Action == domain.ActionDelete {
				ex.DeleteBills = append(ex.DeleteBills, dep.ObjectID)
			} else {
				ex.UnlinkBills = append(ex.UnlinkBills, dep.ObjectID)
			}
		default:
			return apperr.Validationf("unknown document type %q in plan", dep.ObjectType)
		}
	}

	if err := s.repo.ExecuteDeletion(ctx, ex); err != nil {
		return err
	}
	s.log.Info("business deleted",
		"business_id", businessID,
		"contacts_deleted", len(ex.DeleteContacts),
		"jobs_deleted", len(ex.DeleteJobs))
	return nil
}

func derefOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
