// Package workflow provides the shared status-transition machinery used by
// document lifecycles (jobs, estimates, worksheets, work orders).
package workflow

import (
	"time"

	"fieldops_backend/platform/apperr"
)

// Transitions maps a status to the set of statuses it may move to.
// A status with no entry is terminal.
type Transitions map[string][]string

// ValidateTransition returns nil when newStatus equals oldStatus or is listed
// as a legal successor of oldStatus. Any other change is a validation error.
func ValidateTransition(entity, oldStatus, newStatus string, table Transitions) error {
	if newStatus == oldStatus {
		return nil
	}
	for _, allowed := range table[oldStatus] {
		if allowed == newStatus {
			return nil
		}
	}
	return apperr.Validationf("%s cannot move from %s to %s", entity, oldStatus, newStatus)
}

// CanTransition reports whether the move is legal without building an error.
func CanTransition(oldStatus, newStatus string, table Transitions) bool {
	if newStatus == oldStatus {
		return true
	}
	for _, allowed := range table[oldStatus] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no legal successors.
func IsTerminal(status string, table Transitions) bool {
	return len(table[status]) == 0
}

// ProtectDate enforces the write-once contract on a date column: once the
// stored value is non-nil it wins over whatever the caller supplied. This is
// silent correction, not an error — the attempted change is simply discarded.
func ProtectDate(stored, incoming *time.Time) *time.Time {
	if stored != nil {
		return stored
	}
	return incoming
}

// SetOnce returns the stored value when present, otherwise the fallback.
// Used for statuses that auto-stamp a date on entry (start_date on approval,
// closed_date on terminal estimates).
func SetOnce(stored *time.Time, fallback time.Time) *time.Time {
	if stored != nil {
		return stored
	}
	t := fallback
	return &t
}
