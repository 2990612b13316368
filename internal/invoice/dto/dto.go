package dto

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

// InvoiceFilters bounds are inclusive issue dates.
type InvoiceFilters struct {
	Status     model.InvoiceStatus
	CustomerID int64
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
