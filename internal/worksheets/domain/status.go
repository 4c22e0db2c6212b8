// Package domain holds the worksheet lifecycle rules.
package domain

// Worksheet statuses.
const (
	StatusDraft      = "draft"
	StatusFinal      = "final"
	StatusSuperseded = "superseded"
)

// Task mapping strategies.
const (
	MappingDirect  = "direct"
	MappingBundle  = "bundle"
	MappingExclude = "exclude"
)

// StatusForEstimate maps an estimate status onto the worksheet status it
// implies. The worksheet is stamped when the estimate moves, not kept in
// continuous sync.
func StatusForEstimate(estimateStatus string) string {
	switch estimateStatus {
	case "draft":
		return StatusDraft
	case "open", "accepted", "rejected", "expired":
		return StatusFinal
	case "superseded":
		return StatusSuperseded
	default:
		return StatusDraft
	}
}
