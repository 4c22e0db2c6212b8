package service

import (
	"fieldops_backend/internal/templates/repository"
	wsrepo "fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
)

// planGeneration maps a template's bundles and associations onto fresh
// worksheet rows. Every generated row gets a new identity; bundle membership
// is remapped onto the new bundle IDs while sort orders are kept relative so
// the worksheet can shift them into its own container.
func planGeneration(associations []repository.Association, tplBundles []repository.TemplateBundle, taskTemplates map[uuid.UUID]repository.TaskTemplate) ([]wsrepo.TaskBundle, []wsrepo.Task, error) {
	bundleIDs := make(map[uuid.UUID]uuid.UUID, len(tplBundles))
	bundles := make([]wsrepo.TaskBundle, 0, len(tplBundles))
	for _, tb := range tplBundles {
		newID := uuid.New()
		bundleIDs[tb.ID] = newID
		sourceID := tb.ID
		bundles = append(bundles, wsrepo.TaskBundle{
			ID:                     newID,
			Name:                   tb.Name,
			Description:            tb.Description,
			LineItemTypeID:         tb.LineItemTypeID,
			SortOrder:              tb.SortOrder,
			SourceTemplateBundleID: &sourceID,
		})
	}

	tasks := make([]wsrepo.Task, 0, len(associations))
	for _, a := range associations {
		tt, ok := taskTemplates[a.TaskTemplateID]
		if !ok {
			return nil, nil, apperr.NotFound("task template not found")
		}
		var bundleID *uuid.UUID
		if a.BundleID != nil {
			id, found := bundleIDs[*a.BundleID]
			if !found {
				return nil, nil, apperr.Validation("association references a bundle outside its template")
			}
			bundleID = &id
		}
		templateRef := tt.ID
		tasks = append(tasks, wsrepo.Task{
			ID:               uuid.New(),
			TemplateID:       &templateRef,
			LineItemTypeID:   tt.LineItemTypeID,
			BundleID:         bundleID,
			Name:             tt.Name,
			Description:      tt.Description,
			Units:            tt.Units,
			Rate:             tt.DefaultRate,
			EstQty:           tt.DefaultQty,
			SortOrder:        a.SortOrder,
			MappingStrategy:  a.MappingStrategy,
			BundleIdentifier: a.BundleIdentifier,
			ProductType:      tt.ProductType,
			StepType:         tt.StepType,
		})
	}
	return bundles, tasks, nil
}
