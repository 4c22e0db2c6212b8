package service

import (
	"strconv"
	"strings"

	pricingrepo "fieldops_backend/internal/pricing/repository"
	"fieldops_backend/internal/pricing/service"
	wsrepo "fieldops_backend/internal/worksheets/repository"

	"github.com/shopspring/decimal"
)

// stepIncluded applies a rule's component gates. A task with no recognized
// step type always contributes.
func stepIncluded(rule *pricingrepo.BundlingRule, stepType *string) bool {
	if rule == nil || stepType == nil {
		return true
	}
	switch *stepType {
	case "materials":
		return rule.IncludeMaterials
	case "labor":
		return rule.IncludeLabor
	case "overhead":
		return rule.IncludeOverhead
	default:
		return true
	}
}

// componentSum totals qty times rate over the tasks that pass the rule's
// step gates.
func componentSum(rule *pricingrepo.BundlingRule, tasks []wsrepo.Task) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range tasks {
		if stepIncluded(rule, t.StepType) {
			sum = sum.Add(t.EstQty.Mul(t.Rate))
		}
	}
	return sum
}

// priceGroup applies a bundling rule to a group of component tasks and
// returns the aggregate quantity, unit string, and price. instances is the
// number of combined instances folded into this group (1 unless the rule
// combines instances).
//
// With hours units the price carries the summed component total and the
// quantity carries the summed hours. With a template base price the base
// replaces the component sum outright for a single instance, and is divided
// across combined instances.
func priceGroup(rule *pricingrepo.BundlingRule, tasks []wsrepo.Task, basePrice *decimal.Decimal, instances int) (qty decimal.Decimal, units string, price decimal.Decimal) {
	price = componentSum(rule, tasks)

	units = service.UnitsEach
	if rule != nil && rule.DefaultUnits != "" {
		units = rule.DefaultUnits
	}

	if rule != nil && rule.PricingMethod == service.PricingTemplateBase && basePrice != nil {
		if instances > 1 {
			price = basePrice.Div(decimal.NewFromInt(int64(instances)))
		} else {
			price = *basePrice
		}
	}

	if units == service.UnitsHours {
		qty = decimal.Zero
		for _, t := range tasks {
			if stepIncluded(rule, t.StepType) {
				qty = qty.Add(t.EstQty)
			}
		}
		return qty, units, price
	}

	qty = decimal.NewFromInt(int64(instances))
	return qty, units, price
}

// titleWords renders a product type key like "water_heater" as a readable
// title, "Water Heater".
func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// groupDescription builds the line description for an identifier-based
// bundle group.
func groupDescription(productType string, identifier *string, instances int, tasks []wsrepo.Task) string {
	title := titleWords(productType)
	if title == "" {
		title = "Bundle"
	}

	var b strings.Builder
	if instances > 1 {
		b.WriteString(strconv.Itoa(instances))
		b.WriteString("x ")
		b.WriteString(title)
	} else {
		b.WriteString("Custom ")
		b.WriteString(title)
		if identifier != nil && *identifier != "" {
			b.WriteString(" - ")
			b.WriteString(*identifier)
		}
	}
	if len(tasks) > 1 {
		for _, t := range tasks {
			b.WriteString("\n- ")
			b.WriteString(t.Name)
		}
	}
	return b.String()
}

// bundleDescription builds the line description for a named task bundle.
func bundleDescription(bundle *wsrepo.TaskBundle, members []wsrepo.Task) string {
	var b strings.Builder
	b.WriteString(bundle.Name)
	if len(members) > 1 {
		for _, t := range members {
			b.WriteString("\n- ")
			b.WriteString(t.Name)
		}
	}
	return b.String()
}
