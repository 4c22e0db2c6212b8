package domain

import (
	"errors"
	"strings"
	"testing"

	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
)

func planFixture() (*Plan, uuid.UUID, uuid.UUID, uuid.UUID) {
	businessID := uuid.New()
	contactA := uuid.New()
	contactB := uuid.New()
	jobID := uuid.New()
	poID := uuid.New()

	plan := &Plan{
		BusinessID: businessID,
		Contacts: []Dependent{
			{ObjectType: ObjectContact, ObjectID: contactA, Label: "Ann", AllowedActions: ContactActions()},
			{ObjectType: ObjectContact, ObjectID: contactB, Label: "Bob", AllowedActions: ContactActions()},
		},
		Jobs: []Dependent{
			{ObjectType: ObjectJob, ObjectID: jobID, Label: "J-0001", OwnerContactID: contactA, AllowedActions: JobActions()},
		},
		Documents: []Dependent{
			{ObjectType: ObjectPurchaseOrder, ObjectID: poID, Label: "PO-0001", Status: "open", OwnerContactID: contactA, AllowedActions: DocumentActions("open")},
		},
	}
	return plan, contactA, contactB, jobID
}

func TestValidateChoicesAcceptsCompletePlan(t *testing.T) {
	plan, contactA, contactB, jobID := planFixture()
	poID := plan.Documents[0].ObjectID

	choices := []Choice{
		{ObjectID: contactA, Action: ActionDelete},
		{ObjectID: contactB, Action: ActionUnlink},
		{ObjectID: jobID, Action: ActionReassign, ReassignTo: &contactB},
		{ObjectID: poID, Action: ActionUnlink},
	}
	if err := ValidateChoices(plan, choices); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateChoicesCollectsAllErrors(t *testing.T) {
	plan, contactA, contactB, jobID := planFixture()
	poID := plan.Documents[0].ObjectID

	// Three independent problems: job reassigned onto a deleted contact, a
	// non-draft document marked for deletion, and one contact left without a
	// decision.
	choices := []Choice{
		{ObjectID: contactA, Action: ActionDelete},
		{ObjectID: jobID, Action: ActionReassign, ReassignTo: &contactA},
		{ObjectID: poID, Action: ActionDelete},
	}
	err := ValidateChoices(plan, choices)
	if err != nil && contactB == uuid.Nil {
		t.Fatal("fixture must provide a second contact")
	}
	if err == nil {
		t.Fatal("expected validation errors")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an apperr.Error, got %T", err)
	}
	details, ok := appErr.Details.([]string)
	if !ok {
		t.Fatalf("expected string details, got %T", appErr.Details)
	}
	if len(details) != 3 {
		t.Fatalf("expected 3 collected problems, got %d: %v", len(details), details)
	}
}

func TestValidateChoicesJobOfDeletedContactNeedsDecision(t *testing.T) {
	plan, contactA, contactB, _ := planFixture()
	poID := plan.Documents[0].ObjectID

	choices := []Choice{
		{ObjectID: contactA, Action: ActionDelete},
		{ObjectID: contactB, Action: ActionUnlink},
		{ObjectID: poID, Action: ActionUnlink},
	}
	err := ValidateChoices(plan, choices)
	if err == nil {
		t.Fatal("a job of a deleted contact cannot be left undecided")
	}
	if !strings.Contains(err.Error(), "deletion plan") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateChoicesJobOfSurvivingContactMayStay(t *testing.T) {
	plan, contactA, contactB, _ := planFixture()
	poID := plan.Documents[0].ObjectID

	// Ann is only unlinked, so her job keeps its contact and needs no action.
	choices := []Choice{
		{ObjectID: contactA, Action: ActionUnlink},
		{ObjectID: contactB, Action: ActionUnlink},
		{ObjectID: poID, Action: ActionUnlink},
	}
	if err := ValidateChoices(plan, choices); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateChoicesReassignToDeletedBusinessRejected(t *testing.T) {
	plan, contactA, contactB, jobID := planFixture()
	poID := plan.Documents[0].ObjectID

	choices := []Choice{
		{ObjectID: contactA, Action: ActionReassign, ReassignTo: &plan.BusinessID},
		{ObjectID: contactB, Action: ActionUnlink},
		{ObjectID: jobID, Action: ActionDelete},
		{ObjectID: poID, Action: ActionUnlink},
	}
	if err := ValidateChoices(plan, choices); err == nil {
		t.Fatal("reassigning a contact to the business being deleted must fail")
	}
}

func TestDocumentActionsDraftOnlyDelete(t *testing.T) {
	draft := DocumentActions("draft")
	if len(draft) != 2 || draft[0] != ActionDelete {
		t.Fatalf("draft documents should allow delete and unlink, got %v", draft)
	}
	open := DocumentActions("open")
	if len(open) != 1 || open[0] != ActionUnlink {
		t.Fatalf("non-draft documents should only allow unlink, got %v", open)
	}
}
