package dto

import "github.com/fekuna/omnipos-sales-service/internal/model"

type MovementFilters struct {
	ProductID int64 // zero means every product
	OrderID   int64
	Kind      model.MovementKind
	Limit     int
}

type ProductStock struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	StockQuantity int    `db:"stock_quantity"`
	MinStock      int    `db:"min_stock"`
	IsActive      bool   `db:"is_active"`
}
