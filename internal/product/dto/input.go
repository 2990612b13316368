package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Name         string
	Description  string
	Category     string
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	InitialStock int // recorded as an ENTRY movement
	MinStock     int
	ActorID      *int64
}

type UpdateProductInput struct {
	ID          int64
	Name        string
	Description string
	Category    string
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	MinStock    int
}
