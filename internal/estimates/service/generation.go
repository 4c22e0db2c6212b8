package service

import (
	"context"
	"sort"
	"time"

	"fieldops_backend/internal/estimates/repository"
	pricingrepo "fieldops_backend/internal/pricing/repository"
	"fieldops_backend/internal/worksheets/domain"
	wsrepo "fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrEmptyWorksheet rejects estimate generation on a worksheet with no
// tasks.
var ErrEmptyWorksheet = apperr.Validation("worksheet has no tasks to estimate")

// PricingSource resolves bundling rules, template base prices, line item
// type defaults, and the tax configuration.
type PricingSource interface {
	RuleForProductType(ctx context.Context, productType string) (*pricingrepo.BundlingRule, error)
	TemplateBasePrice(ctx context.Context, templateID uuid.UUID) (*decimal.Decimal, error)
	DefaultLineItemTypeID(ctx context.Context) (*uuid.UUID, error)
	LineItemTypeTaxable(ctx context.Context, id uuid.UUID) (*bool, error)
	DefaultTaxRate(ctx context.Context) decimal.Decimal
	OrgTaxMultiplier(ctx context.Context) *decimal.Decimal
}

// linePlan is a planned line item plus the ordering key of its origin: the
// container-level sort order of the originating task or bundle, with the
// insertion sequence as tie break.
type linePlan struct {
	line       repository.LineItem
	originSort int
	originSeq  int64
}

// planLineItems turns a worksheet's tasks into priced line items. Tasks are
// partitioned by their own mapping strategy: excluded tasks drop out, bundle
// tasks fold into their task bundle (or an identifier group when no bundle
// row exists), the rest map one to one. Line numbers follow the
// container-level order of the originating task or bundle.
func planLineItems(ctx context.Context, pricing PricingSource, tasks []wsrepo.Task, bundles []wsrepo.TaskBundle) ([]repository.LineItem, error) {
	byBundle := make(map[uuid.UUID][]wsrepo.Task)
	type identGroup struct {
		productType string
		identifier  *string
		tasks       []wsrepo.Task
	}
	var identGroups []*identGroup
	identIndex := make(map[string]*identGroup)

	var plans []linePlan

	var defaultTypeID *uuid.UUID
	defaultTypeLoaded := false
	defaultType := func() (*uuid.UUID, error) {
		if !defaultTypeLoaded {
			id, err := pricing.DefaultLineItemTypeID(ctx)
			if err != nil {
				return nil, err
			}
			defaultTypeID = id
			defaultTypeLoaded = true
		}
		return defaultTypeID, nil
	}

	for _, t := range tasks {
		switch t.MappingStrategy {
		case domain.MappingExclude:
			continue

		case domain.MappingBundle:
			if t.BundleID != nil {
				byBundle[*t.BundleID] = append(byBundle[*t.BundleID], t)
				continue
			}
			pt := ""
			if t.ProductType != nil {
				pt = *t.ProductType
			}
			var ident *string
			key := "_auto_" + pt
			if t.BundleIdentifier != nil && *t.BundleIdentifier != "" {
				ident = t.BundleIdentifier
				key = pt + "|" + *t.BundleIdentifier
			}
			g, ok := identIndex[key]
			if !ok {
				g = &identGroup{productType: pt, identifier: ident}
				identIndex[key] = g
				identGroups = append(identGroups, g)
			}
			g.tasks = append(g.tasks, t)

		default:
			// Direct: one line per task, instance config as-is.
			desc := t.Name
			if t.Description != nil && *t.Description != "" {
				desc = *t.Description
			}
			qty := t.EstQty
			if qty.IsZero() {
				qty = decimal.NewFromInt(1)
			}
			typeID := t.LineItemTypeID
			if typeID == nil {
				var err error
				if typeID, err = defaultType(); err != nil {
					return nil, err
				}
			}
			taskID := t.ID
			plans = append(plans, linePlan{
				line: repository.LineItem{
					TaskID:         &taskID,
					Description:    desc,
					Qty:            qty,
					Units:          t.Units,
					Price:          t.Rate,
					LineItemTypeID: typeID,
				},
				originSort: t.SortOrder,
				originSeq:  t.Seq,
			})
		}
	}

	// Named bundles collapse to one line each, keyed to the bundle's
	// container slot and typed by the bundle's designated line item type.
	for _, b := range bundles {
		members := byBundle[b.ID]
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].SortOrder != members[j].SortOrder {
				return members[i].SortOrder < members[j].SortOrder
			}
			return members[i].Seq < members[j].Seq
		})

		rule, base, err := ruleForTasks(ctx, pricing, members)
		if err != nil {
			return nil, err
		}
		qty, units, price := priceGroup(rule, members, base, 1)

		typeID := b.LineItemTypeID
		plans = append(plans, linePlan{
			line: repository.LineItem{
				Description:    bundleDescription(&b, members),
				Qty:            qty,
				Units:          units,
				Price:          price,
				LineItemTypeID: &typeID,
			},
			originSort: b.SortOrder,
			originSeq:  minSeq(members),
		})
	}

	// Identifier groups, with instance combining per the matched rule.
	byProductType := make(map[string][]*identGroup)
	var productTypes []string
	for _, g := range identGroups {
		if _, ok := byProductType[g.productType]; !ok {
			productTypes = append(productTypes, g.productType)
		}
		byProductType[g.productType] = append(byProductType[g.productType], g)
	}

	for _, pt := range productTypes {
		groups := byProductType[pt]
		rule, base, err := ruleAndBase(ctx, pricing, pt)
		if err != nil {
			return nil, err
		}

		if rule != nil && rule.CombineInstances && len(groups) > 1 {
			var all []wsrepo.Task
			for _, g := range groups {
				all = append(all, g.tasks...)
			}
			qty, units, price := priceGroup(rule, all, base, len(groups))
			typeID, err := resolveGroupType(rule, all, defaultType)
			if err != nil {
				return nil, err
			}
			plans = append(plans, linePlan{
				line: repository.LineItem{
					Description:    groupDescription(pt, nil, len(groups), nil),
					Qty:            qty,
					Units:          units,
					Price:          price,
					LineItemTypeID: typeID,
				},
				originSort: minSort(all),
				originSeq:  minSeq(all),
			})
			continue
		}

		for _, g := range groups {
			qty, units, price := priceGroup(rule, g.tasks, base, 1)
			typeID, err := resolveGroupType(rule, g.tasks, defaultType)
			if err != nil {
				return nil, err
			}
			plans = append(plans, linePlan{
				line: repository.LineItem{
					Description:    groupDescription(pt, g.identifier, 1, g.tasks),
					Qty:            qty,
					Units:          units,
					Price:          price,
					LineItemTypeID: typeID,
				},
				originSort: minSort(g.tasks),
				originSeq:  minSeq(g.tasks),
			})
		}
	}

	if len(plans) == 0 {
		return nil, ErrEmptyWorksheet
	}

	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].originSort != plans[j].originSort {
			return plans[i].originSort < plans[j].originSort
		}
		return plans[i].originSeq < plans[j].originSeq
	})

	out := make([]repository.LineItem, 0, len(plans))
	for i, p := range plans {
		p.line.ID = uuid.New()
		p.line.LineNumber = i + 1
		p.line.CreatedAt = time.Now()
		out = append(out, p.line)
	}
	return out, nil
}

// ruleForTasks resolves the bundling rule for a named bundle's members via
// their shared product type.
func ruleForTasks(ctx context.Context, pricing PricingSource, tasks []wsrepo.Task) (*pricingrepo.BundlingRule, *decimal.Decimal, error) {
	for _, t := range tasks {
		if t.ProductType != nil && *t.ProductType != "" {
			return ruleAndBase(ctx, pricing, *t.ProductType)
		}
	}
	return nil, nil, nil
}

// ruleAndBase looks up the active rule for a product type and, for
// template-base pricing, the linked template's base price.
func ruleAndBase(ctx context.Context, pricing PricingSource, productType string) (*pricingrepo.BundlingRule, *decimal.Decimal, error) {
	if productType == "" {
		return nil, nil, nil
	}
	rule, err := pricing.RuleForProductType(ctx, productType)
	if err != nil {
		return nil, nil, err
	}
	if rule == nil || rule.WorkOrderTemplateID == nil {
		return rule, nil, nil
	}
	base, err := pricing.TemplateBasePrice(ctx, *rule.WorkOrderTemplateID)
	if err != nil {
		return rule, nil, err
	}
	return rule, base, nil
}

// resolveGroupType walks the line item type fallback chain for an identifier
// group: rule override, then the first typed component, then the app-wide
// default.
func resolveGroupType(rule *pricingrepo.BundlingRule, tasks []wsrepo.Task, defaultType func() (*uuid.UUID, error)) (*uuid.UUID, error) {
	resolvers := []func() (*uuid.UUID, error){
		func() (*uuid.UUID, error) {
			if rule != nil {
				return rule.OutputLineItemTypeID, nil
			}
			return nil, nil
		},
		func() (*uuid.UUID, error) {
			for _, t := range tasks {
				if t.LineItemTypeID != nil {
					return t.LineItemTypeID, nil
				}
			}
			return nil, nil
		},
		defaultType,
	}
	for _, resolve := range resolvers {
		id, err := resolve()
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, nil
}

func minSort(tasks []wsrepo.Task) int {
	min := 0
	for i, t := range tasks {
		if i == 0 || t.SortOrder < min {
			min = t.SortOrder
		}
	}
	return min
}

func minSeq(tasks []wsrepo.Task) int64 {
	var min int64
	for i, t := range tasks {
		if i == 0 || t.Seq < min {
			min = t.Seq
		}
	}
	return min
}
