package order

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	AddLine(ctx context.Context, orderID int64, input *dto.LineInput) (*model.Order, error)
	RemoveLine(ctx context.Context, orderID, lineID int64) (*model.Order, error)
	ChangeState(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
}
