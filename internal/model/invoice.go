package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoicePending: {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoiceCancelled},
	InvoicePaid:    {InvoiceCancelled},
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Invoice is a snapshot of a paid order. Totals are copied from the order and never recomputed.
type Invoice struct {
	BaseModel
	Number     string          `db:"number" json:"number"`
	OrderID    int64           `db:"order_id" json:"order_id"`
	CustomerID int64           `db:"customer_id" json:"customer_id"`
	IssuedBy   int64           `db:"issued_by" json:"issued_by"`
	IssueDate  time.Time       `db:"issue_date" json:"issue_date"`
	DueDate    time.Time       `db:"due_date" json:"due_date"`
	Status     InvoiceStatus   `db:"status" json:"status"`
	TotalBase  decimal.Decimal `db:"total_base" json:"total_base"`
	TotalTax   decimal.Decimal `db:"total_tax" json:"total_tax"`
	TotalFinal decimal.Decimal `db:"total_final" json:"total_final"`
	Notes      *string         `db:"notes" json:"notes"`
}
