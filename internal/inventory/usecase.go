package inventory

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	// RecordMovement is the manual entry point: ENTRY, EXIT or ADJUSTMENT by an actor.
	RecordMovement(ctx context.Context, input *dto.RecordMovementInput) (*model.StockMovement, error)
	// ApplyMovement updates the stock and appends the movement in one unit of
	// work, joining the transaction on ctx if there is one. Callers hold the
	// product lock.
	ApplyMovement(ctx context.Context, input *dto.MovementInput) (*model.StockMovement, error)
	History(ctx context.Context, productID int64) ([]model.StockMovement, error)
	Recent(ctx context.Context, limit int) ([]model.StockMovement, error)
	GetStock(ctx context.Context, productID int64) (*model.StockLevel, error)
}
