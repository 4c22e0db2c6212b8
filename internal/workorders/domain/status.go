// Package domain provides core business rules for the work orders bounded
// context.
package domain

import (
	"fieldops_backend/internal/workflow"
)

// Work order statuses.
const (
	StatusDraft     = "draft"
	StatusOpen      = "open"
	StatusCompleted = "completed"
)

// StatusTransitions is the work order lifecycle table. completed is terminal.
var StatusTransitions = workflow.Transitions{
	StatusDraft: {StatusOpen},
	StatusOpen:  {StatusCompleted},
}

// ValidateStatusChange checks a work order status move against the lifecycle
// table.
func ValidateStatusChange(oldStatus, newStatus string) error {
	return workflow.ValidateTransition("work order", oldStatus, newStatus, StatusTransitions)
}

// IsTerminalStatus reports whether a work order status has no successors.
func IsTerminalStatus(status string) bool {
	return workflow.IsTerminal(status, StatusTransitions)
}
