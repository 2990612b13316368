// Package money holds the pure line and aggregate total calculations.
// Amounts are rounded to two decimals half away from zero, which is half-up
// for the non-negative values accepted here.
package money

import (
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/shopspring/decimal"
)

const Places = 2

var (
	hundred = decimal.NewFromInt(100)
)

type Line struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

type Totals struct {
	Base  decimal.Decimal
	Tax   decimal.Decimal
	Final decimal.Decimal
}

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ComputeLine prices quantity units at unitPrice with taxRate percent of tax.
func ComputeLine(quantity int, unitPrice, taxRate decimal.Decimal) (Line, error) {
	if quantity < 0 {
		return Line{}, apperr.InvalidOperation("quantity must not be negative, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return Line{}, apperr.InvalidOperation("unit price must not be negative, got %s", unitPrice)
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return Line{}, err
	}

	subtotal := Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
	tax := Round(subtotal.Mul(taxRate).Div(hundred))
	return Line{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return apperr.InvalidOperation("tax rate must be between 0 and 100, got %s", rate)
	}
	return nil
}

// ComputeAggregate sums already rounded line amounts. No further rounding happens here.
func ComputeAggregate(lines []Line) Totals {
	t := Totals{Base: decimal.Zero, Tax: decimal.Zero, Final: decimal.Zero}
	for _, l := range lines {
		t.Base = t.Base.Add(l.Subtotal)
		t.Tax = t.Tax.Add(l.Tax)
		t.Final = t.Final.Add(l.Total)
	}
	return t
}
