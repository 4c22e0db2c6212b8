package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func boolPtr(b bool) *bool                       { return &b }
func decPtr(s string) *decimal.Decimal           { d := dec(s); return &d }
func taxableLine(total string) TaxLine           { return TaxLine{Total: dec(total), TypeTaxable: boolPtr(true)} }

func TestLineItemTaxRounding(t *testing.T) {
	// 33.33 × 8.25% = 2.749725 → 2.75
	got := LineItemTax(taxableLine("33.33"), nil, nil, dec("8.25"))
	if !got.Equal(dec("2.75")) {
		t.Fatalf("expected 2.75, got %s", got)
	}
}

func TestLineItemTaxNonTaxableType(t *testing.T) {
	line := TaxLine{Total: dec("100.00"), TypeTaxable: boolPtr(false)}
	if got := LineItemTax(line, nil, nil, dec("8.25")); !got.IsZero() {
		t.Fatalf("expected zero tax, got %s", got)
	}
}

func TestLineItemTaxNoTypeDefaultsNonTaxable(t *testing.T) {
	line := TaxLine{Total: dec("100.00")}
	if got := LineItemTax(line, nil, nil, dec("8.25")); !got.IsZero() {
		t.Fatalf("expected zero tax for untyped line, got %s", got)
	}
}

func TestTaxableOverrideWinsOverType(t *testing.T) {
	line := TaxLine{Total: dec("100.00"), TypeTaxable: boolPtr(false), TaxableOverride: boolPtr(true)}
	if got := LineItemTax(line, nil, nil, dec("10")); !got.Equal(dec("10.00")) {
		t.Fatalf("expected 10.00, got %s", got)
	}

	line = TaxLine{Total: dec("100.00"), TypeTaxable: boolPtr(true), TaxableOverride: boolPtr(false)}
	if got := LineItemTax(line, nil, nil, dec("10")); !got.IsZero() {
		t.Fatalf("expected zero with false override, got %s", got)
	}
}

func TestRateOverrideWinsOverDefault(t *testing.T) {
	line := taxableLine("200.00")
	line.TaxRateOverride = decPtr("5")
	if got := LineItemTax(line, nil, nil, dec("8.25")); !got.Equal(dec("10.00")) {
		t.Fatalf("expected 10.00, got %s", got)
	}
}

func TestCustomerMultiplierApplies(t *testing.T) {
	customer := &CustomerTax{TaxMultiplier: decPtr("0.5")}
	got := LineItemTax(taxableLine("100.00"), customer, nil, dec("10"))
	if !got.Equal(dec("5.00")) {
		t.Fatalf("expected 5.00, got %s", got)
	}
}

func TestCustomerWithoutMultiplierIgnoresOrgMultiplier(t *testing.T) {
	customer := &CustomerTax{}
	got := LineItemTax(taxableLine("100.00"), customer, decPtr("2"), dec("10"))
	if !got.Equal(dec("10.00")) {
		t.Fatalf("expected 10.00, got %s", got)
	}
}

func TestOrgMultiplierAppliesToPurchaseContext(t *testing.T) {
	got := LineItemTax(taxableLine("100.00"), nil, decPtr("1.5"), dec("10"))
	if !got.Equal(dec("15.00")) {
		t.Fatalf("expected 15.00, got %s", got)
	}
}

func TestDocumentTaxSumsLines(t *testing.T) {
	lines := []TaxLine{
		taxableLine("33.33"),
		taxableLine("100.00"),
		{Total: dec("50.00")}, // untyped, non-taxable
	}
	got := DocumentTax(lines, nil, nil, dec("8.25"))
	// 2.75 + 8.25 + 0
	if !got.Equal(dec("11.00")) {
		t.Fatalf("expected 11.00, got %s", got)
	}
}
