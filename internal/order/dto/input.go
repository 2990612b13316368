package dto

import "github.com/shopspring/decimal"

type CreateOrderInput struct {
	CustomerID int64
	CreatorID  int64
	Notes      string
	Lines      []LineInput
}

// LineInput prices default to the product's current unit price and tax rate.
type LineInput struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
	TaxRate   *decimal.Decimal
}
