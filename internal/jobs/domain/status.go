// Package domain provides core business rules for the jobs bounded context.
package domain

import (
	"time"

	"fieldops_backend/internal/workflow"
)

// Job statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	// StatusBlocked is entered only via an estimate signal: the accepted
	// estimate backing an approved job was superseded.
	StatusBlocked = "blocked"
)

// StatusTransitions is the job lifecycle table. rejected, completed and
// cancelled are terminal.
var StatusTransitions = workflow.Transitions{
	StatusDraft:     {StatusSubmitted, StatusRejected},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusCompleted, StatusCancelled, StatusBlocked},
	StatusBlocked:   {StatusApproved},
}

// ValidateStatusChange checks a job status move against the lifecycle table.
func ValidateStatusChange(oldStatus, newStatus string) error {
	return workflow.ValidateTransition("job", oldStatus, newStatus, StatusTransitions)
}

// IsTerminalStatus reports whether a job status has no successors.
func IsTerminalStatus(status string) bool {
	return workflow.IsTerminal(status, StatusTransitions)
}

// StampStatusDates applies the date side effects of entering a status:
// approval stamps start_date, completion or cancellation stamps
// completed_date. Already-set dates are never overwritten.
func StampStatusDates(newStatus string, startDate, completedDate *time.Time, now time.Time) (*time.Time, *time.Time) {
	switch newStatus {
	case StatusApproved:
		startDate = workflow.SetOnce(startDate, now)
	case StatusCompleted, StatusCancelled:
		completedDate = workflow.SetOnce(completedDate, now)
	}
	return startDate, completedDate
}

// ApprovalPath returns the sequence of legal transitions that takes a job
// from its current status to approved, for the accepted-estimate signal.
// An empty path means the job is already approved; nil means approval is not
// reachable.
func ApprovalPath(current string) []string {
	switch current {
	case StatusApproved:
		return []string{}
	case StatusDraft:
		return []string{StatusSubmitted, StatusApproved}
	case StatusSubmitted, StatusBlocked:
		return []string{StatusApproved}
	default:
		return nil
	}
}
