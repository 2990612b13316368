package model

import "time"

type MovementKind string

const (
	MovementEntry      MovementKind = "ENTRY"
	MovementExit       MovementKind = "EXIT"
	MovementAdjustment MovementKind = "ADJUSTMENT"
	MovementSale       MovementKind = "SALE"
)

func (k MovementKind) Valid() bool {
	switch k {
	case MovementEntry, MovementExit, MovementAdjustment, MovementSale:
		return true
	}
	return false
}

// Decreases reports whether the movement takes units out of stock.
// Adjustments add stock, the same as entries.
func (k MovementKind) Decreases() bool {
	return k == MovementExit || k == MovementSale
}

// StockMovement is an append-only ledger row. QuantityAfter is always
// QuantityBefore plus or minus Quantity depending on Kind.
type StockMovement struct {
	ID             int64        `db:"id" json:"id"`
	ProductID      int64        `db:"product_id" json:"product_id"`
	Kind           MovementKind `db:"kind" json:"kind"`
	Quantity       int          `db:"quantity" json:"quantity"`
	QuantityBefore int          `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int          `db:"quantity_after" json:"quantity_after"`
	ActorID        *int64       `db:"actor_id" json:"actor_id"`
	OrderID        *int64       `db:"order_id" json:"order_id"`
	Reason         *string      `db:"reason" json:"reason"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

type StockLevel struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	MinStock  int   `json:"min_stock"`
	LowStock  bool  `json:"low_stock"`
}
