package service

import "github.com/shopspring/decimal"

// TaxLine is the tax-relevant view of a billing line item.
type TaxLine struct {
	// Total is the extended amount (qty × unit price).
	Total decimal.Decimal
	// TaxableOverride, when set, wins over the line item type's taxability.
	TaxableOverride *bool
	// TaxRateOverride, when set, wins over the configured default rate.
	// Rates are percentages: 8.25 means 8.25%.
	TaxRateOverride *decimal.Decimal
	// TypeTaxable is the line item type's taxability; nil when the line has
	// no type.
	TypeTaxable *bool
}

// CustomerTax carries a customer's tax configuration.
type CustomerTax struct {
	TaxMultiplier *decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// EffectiveTaxability resolves whether a line is taxable: the per-line
// override wins, then the line item type's flag, then false.
func EffectiveTaxability(line TaxLine) bool {
	if line.TaxableOverride != nil {
		return *line.TaxableOverride
	}
	if line.TypeTaxable != nil {
		return *line.TypeTaxable
	}
	return false
}

// EffectiveTaxRate resolves the percentage rate for a line: the per-line
// override wins, then the configured default, then zero.
func EffectiveTaxRate(line TaxLine, defaultRate decimal.Decimal) decimal.Decimal {
	if line.TaxRateOverride != nil {
		return *line.TaxRateOverride
	}
	return defaultRate
}

// taxMultiplier resolves the rate multiplier: the customer's own multiplier
// when given, the organization multiplier for customer-less (purchase)
// contexts, otherwise 1.
func taxMultiplier(customer *CustomerTax, orgMultiplier *decimal.Decimal) decimal.Decimal {
	if customer != nil {
		if customer.TaxMultiplier != nil {
			return *customer.TaxMultiplier
		}
		return decimal.NewFromInt(1)
	}
	if orgMultiplier != nil {
		return *orgMultiplier
	}
	return decimal.NewFromInt(1)
}

// LineItemTax computes the tax owed on one line, rounded half-up to cents.
// A $33.33 line at 8.25% yields exactly $2.75.
func LineItemTax(line TaxLine, customer *CustomerTax, orgMultiplier *decimal.Decimal, defaultRate decimal.Decimal) decimal.Decimal {
	if !EffectiveTaxability(line) {
		return decimal.Zero
	}

	rate := EffectiveTaxRate(line, defaultRate)
	multiplier := taxMultiplier(customer, orgMultiplier)

	return line.Total.Mul(rate).Div(oneHundred).Mul(multiplier).Round(2)
}

// DocumentTax sums the per-line taxes of a document.
func DocumentTax(lines []TaxLine, customer *CustomerTax, orgMultiplier *decimal.Decimal, defaultRate decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineItemTax(line, customer, orgMultiplier, defaultRate))
	}
	return total
}
