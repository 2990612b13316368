package model

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderShipped, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

type Order struct {
	BaseModel
	CustomerID int64           `db:"customer_id" json:"customer_id"`
	CreatedBy  int64           `db:"created_by" json:"created_by"`
	Status     OrderStatus     `db:"status" json:"status"`
	Notes      *string         `db:"notes" json:"notes"`
	TotalBase  decimal.Decimal `db:"total_base" json:"total_base"`
	TotalTax   decimal.Decimal `db:"total_tax" json:"total_tax"`
	TotalFinal decimal.Decimal `db:"total_final" json:"total_final"`
	Lines      []OrderLine     `db:"-" json:"lines"`
}

// OrderLine prices are captured when the line is added and do not follow later product changes.
type OrderLine struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Position  int             `db:"position" json:"position"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxRate   decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Total     decimal.Decimal `db:"total" json:"total"`
}
