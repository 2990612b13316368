package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description"`
	Category      *string         `db:"category" json:"category"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxRate       decimal.Decimal `db:"tax_rate" json:"tax_rate"` // percentage, 0-100
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	MinStock      int             `db:"min_stock" json:"min_stock"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}

// IsLowStock reports whether the current quantity has reached the product's minimum.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStock
}
