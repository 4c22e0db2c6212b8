// Package domain provides core business rules for the estimates bounded
// context.
package domain

import (
	"time"

	"fieldops_backend/internal/workflow"
)

// Estimate statuses.
const (
	StatusDraft      = "draft"
	StatusOpen       = "open"
	StatusAccepted   = "accepted"
	StatusRejected   = "rejected"
	StatusExpired    = "expired"
	StatusSuperseded = "superseded"
)

// StatusTransitions is the estimate lifecycle table. accepted, rejected,
// expired and superseded are terminal.
var StatusTransitions = workflow.Transitions{
	StatusDraft: {StatusOpen, StatusRejected},
	StatusOpen:  {StatusAccepted, StatusSuperseded, StatusRejected, StatusExpired},
}

// ValidateStatusChange checks an estimate status move against the lifecycle
// table.
func ValidateStatusChange(oldStatus, newStatus string) error {
	return workflow.ValidateTransition("estimate", oldStatus, newStatus, StatusTransitions)
}

// IsTerminalStatus reports whether an estimate status has no successors.
func IsTerminalStatus(status string) bool {
	return workflow.IsTerminal(status, StatusTransitions)
}

// StampStatusDates applies the date side effects of entering a status:
// opening stamps sent_date and the expiration date, any terminal status
// stamps closed_date. Already-set dates are never overwritten.
func StampStatusDates(newStatus string, sentDate, expirationDate, closedDate *time.Time, now time.Time, expireDays int) (sent, expiration, closed *time.Time) {
	sent, expiration, closed = sentDate, expirationDate, closedDate
	if newStatus == StatusOpen {
		sent = workflow.SetOnce(sent, now)
		expiration = workflow.SetOnce(expiration, now.AddDate(0, 0, expireDays))
	}
	if IsTerminalStatus(newStatus) {
		closed = workflow.SetOnce(closed, now)
	}
	return sent, expiration, closed
}
