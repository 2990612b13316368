package usecase

import (
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/money"
	"github.com/shopspring/decimal"
)

func validatePricing(price, taxRate decimal.Decimal, minStock int) error {
	if price.IsNegative() {
		return apperr.InvalidOperation("unit price must not be negative")
	}
	if err := money.ValidateTaxRate(taxRate); err != nil {
		return err
	}
	if minStock < 0 {
		return apperr.InvalidOperation("minimum stock must not be negative")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
