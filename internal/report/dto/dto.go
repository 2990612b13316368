package dto

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/shopspring/decimal"
)

// AmountFilters bounds are inclusive issue dates. Zero values are ignored.
type AmountFilters struct {
	Status model.InvoiceStatus
	From   *time.Time
	To     *time.Time
}

type InvoiceAmount struct {
	IssueDate  time.Time           `db:"issue_date"`
	Status     model.InvoiceStatus `db:"status"`
	TotalFinal decimal.Decimal     `db:"total_final"`
}
