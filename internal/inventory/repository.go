package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Repository interface {
	// Stock levels live on the product row.
	FindProductStock(ctx context.Context, productID int64) (*dto.ProductStock, error)

	// Conditional updates. ok is false when the product does not exist or,
	// for decreases, when the stock is below qty; nothing is written then.
	IncreaseStock(ctx context.Context, productID int64, qty int, now time.Time) (after int, ok bool, err error)
	DecreaseStock(ctx context.Context, productID int64, qty int, now time.Time) (after int, ok bool, err error)

	// Movements / Audit
	InsertMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, error)
}
