// Package domain provides core business rules for the directory bounded
// context: businesses, contacts, and the business deletion workflow.
package domain

import (
	"fmt"

	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
)

// Deletion actions a dependent object may take.
const (
	ActionDelete   = "delete"
	ActionReassign = "reassign"
	ActionUnlink   = "unlink"
)

// Dependent object kinds in a deletion plan.
const (
	ObjectContact       = "contact"
	ObjectJob           = "job"
	ObjectPurchaseOrder = "purchase_order"
	ObjectBill          = "bill"
)

// Dependent is one object affected by deleting a business, with the actions
// it may legally take.
type Dependent struct {
	ObjectType     string    `json:"objectType"`
	ObjectID       uuid.UUID `json:"objectId"`
	Label          string    `json:"label"`
	Status         string    `json:"status,omitempty"`
	OwnerContactID uuid.UUID `json:"ownerContactId,omitempty"`
	AllowedActions []string  `json:"allowedActions"`
}

// Plan is everything deleting a business touches, in presentation order:
// contacts, their jobs, then purchasing documents referencing those contacts.
type Plan struct {
	BusinessID       uuid.UUID   `json:"businessId"`
	DefaultContactID *uuid.UUID  `json:"defaultContactId,omitempty"`
	Contacts         []Dependent `json:"contacts"`
	Jobs             []Dependent `json:"jobs"`
	Documents        []Dependent `json:"documents"`
}

// Choice is the caller's decision for one dependent object.
type Choice struct {
	ObjectType string     `json:"objectType"`
	ObjectID   uuid.UUID  `json:"objectId"`
	Action     string     `json:"action"`
	ReassignTo *uuid.UUID `json:"reassignTo,omitempty"`
}

// ContactActions returns the legal actions for a contact of the business
// being deleted: it can be deleted, moved to another business, or kept
// without one.
func ContactActions() []string {
	return []string{ActionDelete, ActionReassign, ActionUnlink}
}

// JobActions returns the legal actions for a job whose contact may be
// deleted.
func JobActions() []string {
	return []string{ActionDelete, ActionReassign}
}

// DocumentActions returns the legal actions for a purchasing document. Only
// draft documents may be deleted; any document can drop its contact
// reference.
func DocumentActions(status string) []string {
	if status == "draft" {
		return []string{ActionDelete, ActionUnlink}
	}
	return []string{ActionUnlink}
}

// ValidateChoices checks a full set of deletion decisions against the plan.
// All violations are collected before anything is reported, so the caller
// sees every problem in one pass.
func ValidateChoices(plan *Plan, choices []Choice) error {
	byObject := make(map[uuid.UUID]Choice, len(choices))
	for _, c := range choices {
		byObject[c.ObjectID] = c
	}

	var details []string
	add := func(format string, args ...any) {
		details = append(details, fmt.Sprintf(format, args...))
	}

	deletedContacts := make(map[uuid.UUID]bool)
	for _, dep := range plan.Contacts {
		c, ok := byObject[dep.ObjectID]
		if !ok {
			add("contact %s: no action chosen", dep.Label)
			continue
		}
		switch c.Action {
		case ActionDelete:
			deletedContacts[dep.ObjectID] = true
		case ActionReassign:
			if c.ReassignTo == nil {
				add("contact %s: reassignment needs a target business", dep.Label)
			} else if *c.ReassignTo == plan.BusinessID {
				add("contact %s: cannot reassign to the business being deleted", dep.Label)
			}
		case ActionUnlink:
		default:
			add("contact %s: unknown action %q", dep.Label, c.Action)
		}
	}

	for _, dep := range plan.Jobs {
		c, ok := byObject[dep.ObjectID]
		if !ok {
			if deletedContacts[dep.OwnerContactID] {
				add("job %s: its contact is being deleted, choose delete or reassign", dep.Label)
			}
			continue
		}
		switch c.Action {
		case ActionDelete:
		case ActionReassign:
			if c.ReassignTo == nil {
				add("job %s: reassignment needs a target contact", dep.Label)
			} else if deletedContacts[*c.ReassignTo] {
				add("job %s: cannot reassign to a contact that is also being deleted", dep.Label)
			} else if *c.ReassignTo == dep.OwnerContactID {
				add("job %s: reassignment target must be a different contact", dep.Label)
			}
		default:
			add("job %s: unknown action %q", dep.Label, c.Action)
		}
	}

	for _, dep := range plan.Documents {
		c, ok := byObject[dep.ObjectID]
		if !ok {
			continue
		}
		switch c.Action {
		case ActionDelete:
			if dep.Status != "draft" {
				add("%s %s: only draft documents can be deleted", dep.ObjectType, dep.Label)
			}
		case ActionUnlink:
		default:
			add("%s %s: unknown action %q", dep.ObjectType, dep.Label, c.Action)
		}
	}

	if len(details) > 0 {
		return apperr.Validation("deletion plan has unresolved problems").WithDetails(details)
	}
	return nil
}
