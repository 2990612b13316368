package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/customer"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/money"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/user"
	"go.uber.org/zap"
)

type Deps struct {
	Repo      order.Repository
	Products  product.Repository
	Customers customer.Repository
	Users     user.Repository
	Tx        database.Transactor
	Locker    lock.Locker
	Publisher events.Publisher
	Logger    logger.ZapLogger
	Clock     func() time.Time
}

type orderUseCase struct {
	repo      order.Repository
	products  product.Repository
	customers customer.Repository
	users     user.Repository
	tx        database.Transactor
	locker    lock.Locker
	publisher events.Publisher
	logger    logger.ZapLogger
	clock     func() time.Time
}

func NewOrderUseCase(deps Deps) order.UseCase {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderUseCase{
		repo:      deps.Repo,
		products:  deps.Products,
		customers: deps.Customers,
		users:     deps.Users,
		tx:        deps.Tx,
		locker:    deps.Locker,
		publisher: publisher,
		logger:    deps.Logger,
		clock:     func() time.Time { return clock().UTC() },
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	c, err := uc.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("customer", "id", input.CustomerID)
	}
	creator, err := uc.users.FindByID(ctx, input.CreatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, apperr.NotFound("user", "id", input.CreatorID)
	}

	now := uc.clock()
	o := &model.Order{
		BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
		CustomerID: c.ID,
		CreatedBy:  creator.ID,
		Status:     model.OrderPending,
		Notes:      optional(input.Notes),
		Lines:      []model.OrderLine{},
	}
	recompute(o)

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, o); err != nil {
			return err
		}
		for i := range input.Lines {
			if err := uc.appendLine(ctx, o, &input.Lines[i]); err != nil {
				return err
			}
		}
		return uc.saveTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", o.CustomerID),
		zap.Int("lines", len(o.Lines)),
	)
	return o, nil
}

func (uc *orderUseCase) AddLine(ctx context.Context, orderID int64, input *dto.LineInput) (*model.Order, error) {
	return uc.mutatePending(ctx, orderID, func(ctx context.Context, o *model.Order) error {
		return uc.appendLine(ctx, o, input)
	})
}

func (uc *orderUseCase) RemoveLine(ctx context.Context, orderID, lineID int64) (*model.Order, error) {
	return uc.mutatePending(ctx, orderID, func(ctx context.Context, o *model.Order) error {
		idx := -1
		for i, l := range o.Lines {
			if l.ID == lineID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperr.NotFound("order line", "id", lineID)
		}
		if err := uc.repo.DeleteLine(ctx, o.ID, lineID); err != nil {
			return err
		}
		o.Lines = append(o.Lines[:idx], o.Lines[idx+1:]...)
		return nil
	})
}

// mutatePending runs fn on a PENDING order under the order lock and inside one
// transaction, then stores the recomputed totals with it.
func (uc *orderUseCase) mutatePending(ctx context.Context, orderID int64, fn func(ctx context.Context, o *model.Order) error) (*model.Order, error) {
	unlock, err := uc.locker.Lock(ctx, lock.OrderKey(orderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var o *model.Order
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = uc.load(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderPending {
			return apperr.InvalidOperation("order %d is %s, only PENDING orders can be modified", o.ID, o.Status)
		}
		if err := fn(ctx, o); err != nil {
			return err
		}
		return uc.saveTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *orderUseCase) appendLine(ctx context.Context, o *model.Order, input *dto.LineInput) error {
	if input.Quantity < 1 {
		return apperr.InvalidOperation("line quantity must be at least 1, got %d", input.Quantity)
	}
	p, err := uc.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperr.NotFound("product", "id", input.ProductID)
	}
	if !p.IsActive {
		return apperr.InvalidOperation("product %d is inactive", p.ID)
	}
	// Soft check only. Stock is deducted, and checked again, when the invoice is issued.
	if p.StockQuantity < input.Quantity {
		return &apperr.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.StockQuantity,
			Requested:   input.Quantity,
		}
	}

	unitPrice := p.UnitPrice
	if input.UnitPrice != nil {
		unitPrice = money.Round(*input.UnitPrice)
	}
	taxRate := p.TaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	amounts, err := money.ComputeLine(input.Quantity, unitPrice, taxRate)
	if err != nil {
		return err
	}

	position := 1
	for _, l := range o.Lines {
		if l.Position >= position {
			position = l.Position + 1
		}
	}

	line := model.OrderLine{
		OrderID:   o.ID,
		ProductID: p.ID,
		Position:  position,
		Quantity:  input.Quantity,
		UnitPrice: unitPrice,
		TaxRate:   taxRate,
		Subtotal:  amounts.Subtotal,
		TaxAmount: amounts.Tax,
		Total:     amounts.Total,
	}
	if err := uc.repo.InsertLine(ctx, &line); err != nil {
		return err
	}
	o.Lines = append(o.Lines, line)
	return nil
}

func (uc *orderUseCase) saveTotals(ctx context.Context, o *model.Order) error {
	recompute(o)
	o.UpdatedAt = uc.clock()
	return uc.repo.UpdateTotals(ctx, o)
}

// recompute derives the order totals from its lines.
func recompute(o *model.Order) {
	lines := make([]money.Line, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, money.Line{Subtotal: l.Subtotal, Tax: l.TaxAmount, Total: l.Total})
	}
	totals := money.ComputeAggregate(lines)
	o.TotalBase = totals.Base
	o.TotalTax = totals.Tax
	o.TotalFinal = totals.Final
}

func (uc *orderUseCase) ChangeState(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperr.InvalidOperation("unknown order status %q", status)
	}

	unlock, err := uc.locker.Lock(ctx, lock.OrderKey(orderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if !from.CanTransitionTo(status) {
		return nil, &apperr.TransitionError{Entity: "order", From: string(from), To: string(status)}
	}

	now := uc.clock()
	ok, err := uc.repo.UpdateStatus(ctx, o.ID, from, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// another instance moved it first
		current, err := uc.load(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &apperr.TransitionError{Entity: "order", From: string(current.Status), To: string(status)}
	}
	o.Status = status
	o.UpdatedAt = now

	uc.logger.Info("order state changed",
		zap.Int64("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	uc.publish(ctx, events.TypeOrderStateChanged, o.ID, map[string]any{
		"order_id": o.ID,
		"from":     from,
		"to":       status,
	})
	return o, nil
}

func (uc *orderUseCase) DeleteOrder(ctx context.Context, orderID int64) error {
	unlock, err := uc.locker.Lock(ctx, lock.OrderKey(orderID))
	if err != nil {
		return err
	}
	defer unlock()

	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := uc.repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("order", "id", orderID)
		}
		if o.Status != model.OrderPending {
			return apperr.InvalidOperation("order %d is %s, only PENDING orders can be deleted", o.ID, o.Status)
		}
		ok, err := uc.repo.Delete(ctx, orderID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidOperation("order %d is no longer PENDING", orderID)
		}
		return nil
	})
}

func (uc *orderUseCase) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return uc.load(ctx, orderID)
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	if filters == nil {
		filters = &dto.OrderFilters{}
	}
	orders, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*model.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Lines = []model.OrderLine{}
		byID[orders[i].ID] = &orders[i]
	}
	lines, err := uc.repo.FindLines(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, l := range lines {
		o := byID[l.OrderID]
		o.Lines = append(o.Lines, l)
	}
	return orders, count, nil
}

func (uc *orderUseCase) load(ctx context.Context, orderID int64) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order", "id", orderID)
	}
	lines, err := uc.repo.FindLines(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (uc *orderUseCase) publish(ctx context.Context, eventType string, orderID int64, payload any) {
	e, err := events.New(eventType, fmt.Sprintf("order-%d", orderID), payload, uc.clock())
	if err == nil {
		err = uc.publisher.Publish(ctx, e)
	}
	if err != nil {
		uc.logger.Warn("failed to publish order event", zap.Int64("order_id", orderID), zap.String("event_type", eventType), zap.Error(err))
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
