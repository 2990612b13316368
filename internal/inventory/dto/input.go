package dto

import "github.com/fekuna/omnipos-sales-service/internal/model"

type RecordMovementInput struct {
	ProductID int64
	Kind      model.MovementKind // ENTRY, EXIT or ADJUSTMENT
	Quantity  int
	Reason    string
	ActorID   int64
}

type MovementInput struct {
	ProductID int64
	Kind      model.MovementKind
	Quantity  int
	Reason    string
	ActorID   *int64
	OrderID   *int64 // required for SALE, rejected otherwise
}
