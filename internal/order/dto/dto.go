package dto

import "github.com/fekuna/omnipos-sales-service/internal/model"

type OrderFilters struct {
	Status     model.OrderStatus
	CustomerID int64
	Page       int
	PageSize   int
}
