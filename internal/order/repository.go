package order

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
)

type Repository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateTotals(ctx context.Context, order *model.Order) error
	// UpdateStatus moves the order only if it is still in from. ok reports whether it did.
	UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus, now time.Time) (ok bool, err error)
	// Delete removes a PENDING order and its lines. ok is false when no PENDING order matched.
	Delete(ctx context.Context, id int64) (ok bool, err error)

	// Lines
	InsertLine(ctx context.Context, line *model.OrderLine) error
	DeleteLine(ctx context.Context, orderID, lineID int64) error
	FindLines(ctx context.Context, orderIDs []int64) ([]model.OrderLine, error)
}
