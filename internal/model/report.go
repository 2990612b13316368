package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Statistics struct {
	Customers          int             `json:"customers"`
	Products           int             `json:"products"`
	Orders             int             `json:"orders"`
	Invoices           int             `json:"invoices"`
	LowStockProducts   int             `json:"low_stock_products"`
	PendingInvoices    int             `json:"pending_invoices"`
	MonthSales         decimal.Decimal `json:"month_sales"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// DailySales aggregates the invoices issued on one date.
type DailySales struct {
	Date         time.Time       `json:"date"`
	InvoiceCount int             `json:"invoice_count"`
	Total        decimal.Decimal `json:"total"`
	PaidTotal    decimal.Decimal `json:"paid_total"`
	PendingTotal decimal.Decimal `json:"pending_total"`
}
