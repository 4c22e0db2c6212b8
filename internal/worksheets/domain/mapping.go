package domain

import (
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
)

// ValidateMapping enforces the cross-field rule between a task's mapping
// strategy and its bundle reference: a bundle reference is required for
// bundle mapping and forbidden for every other strategy.
func ValidateMapping(strategy string, bundleID *uuid.UUID) error {
	switch strategy {
	case MappingBundle:
		if bundleID == nil {
			return apperr.Validation("bundle mapping requires a bundle reference")
		}
	case MappingDirect, MappingExclude:
		if bundleID != nil {
			return apperr.Validationf("%s mapping cannot carry a bundle reference", strategy)
		}
	default:
		return apperr.Validationf("unknown mapping strategy: %s", strategy)
	}
	return nil
}

// ValidatePlacement enforces that a task or bundle lives on exactly one
// container: a worksheet or a work order, never both, never neither.
func ValidatePlacement(worksheetID, workOrderID *uuid.UUID) error {
	if worksheetID == nil && workOrderID == nil {
		return apperr.Validation("task must belong to a worksheet or a work order")
	}
	if worksheetID != nil && workOrderID != nil {
		return apperr.Validation("task cannot belong to both a worksheet and a work order")
	}
	return nil
}
