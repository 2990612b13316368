package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const defaultRecentLimit = 20

var tracer = otel.Tracer("github.com/fekuna/omnipos-sales-service/internal/inventory")

type Deps struct {
	Repo        inventory.Repository
	Users       user.Repository
	Tx          database.Transactor
	Locker      lock.Locker
	Publisher   events.Publisher
	Logger      logger.ZapLogger
	RecentLimit int
	Clock       func() time.Time
}

type inventoryUseCase struct {
	repo        inventory.Repository
	users       user.Repository
	tx          database.Transactor
	locker      lock.Locker
	publisher   events.Publisher
	logger      logger.ZapLogger
	recentLimit int
	clock       func() time.Time
}

func NewInventoryUseCase(deps Deps) inventory.UseCase {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	limit := deps.RecentLimit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return &inventoryUseCase{
		repo:        deps.Repo,
		users:       deps.Users,
		tx:          deps.Tx,
		locker:      deps.Locker,
		publisher:   publisher,
		logger:      deps.Logger,
		recentLimit: limit,
		clock:       func() time.Time { return clock().UTC() },
	}
}

func (uc *inventoryUseCase) RecordMovement(ctx context.Context, input *dto.RecordMovementInput) (*model.StockMovement, error) {
	if input.Kind == model.MovementSale {
		return nil, apperr.InvalidOperation("SALE movements are only recorded by invoice issuance")
	}
	actor, err := uc.users.FindByID(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, apperr.NotFound("user", "id", input.ActorID)
	}

	unlock, err := uc.locker.Lock(ctx, lock.ProductKey(input.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var movement *model.StockMovement
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		movement, err = uc.ApplyMovement(ctx, &dto.MovementInput{
			ProductID: input.ProductID,
			Kind:      input.Kind,
			Quantity:  input.Quantity,
			Reason:    input.Reason,
			ActorID:   &actor.ID,
		})
		return err
	})
	if err != nil {
		uc.logger.Warn("stock movement rejected",
			zap.Int64("product_id", input.ProductID),
			zap.String("kind", string(input.Kind)),
			zap.Int("quantity", input.Quantity),
			zap.Error(err),
		)
		return nil, err
	}

	uc.publishMovement(ctx, movement)
	return movement, nil
}

func (uc *inventoryUseCase) ApplyMovement(ctx context.Context, input *dto.MovementInput) (*model.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "inventory.ApplyMovement")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product_id", input.ProductID),
		attribute.String("kind", string(input.Kind)),
		attribute.Int("quantity", input.Quantity),
	)

	if err := validateMovement(input); err != nil {
		return nil, err
	}

	var movement *model.StockMovement
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := uc.clock()

		var (
			after int
			ok    bool
			err   error
		)
		if input.Kind.Decreases() {
			after, ok, err = uc.repo.DecreaseStock(ctx, input.ProductID, input.Quantity, now)
		} else {
			after, ok, err = uc.repo.IncreaseStock(ctx, input.ProductID, input.Quantity, now)
		}
		if err != nil {
			return err
		}
		if !ok {
			return uc.rejection(ctx, input)
		}

		before := after + input.Quantity
		if !input.Kind.Decreases() {
			before = after - input.Quantity
		}

		movement = &model.StockMovement{
			ProductID:      input.ProductID,
			Kind:           input.Kind,
			Quantity:       input.Quantity,
			QuantityBefore: before,
			QuantityAfter:  after,
			ActorID:        input.ActorID,
			OrderID:        input.OrderID,
			Reason:         optional(input.Reason),
			CreatedAt:      now,
		}
		return uc.repo.InsertMovement(ctx, movement)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return movement, nil
}

// rejection explains why a conditional stock update matched no row.
func (uc *inventoryUseCase) rejection(ctx context.Context, input *dto.MovementInput) error {
	ps, err := uc.repo.FindProductStock(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if ps == nil {
		return apperr.NotFound("product", "id", input.ProductID)
	}
	return &apperr.InsufficientStockError{
		ProductID:   ps.ID,
		ProductName: ps.Name,
		Available:   ps.StockQuantity,
		Requested:   input.Quantity,
	}
}

func validateMovement(input *dto.MovementInput) error {
	if !input.Kind.Valid() {
		return apperr.InvalidOperation("unknown movement kind %q", input.Kind)
	}
	if input.Quantity < 1 {
		return apperr.InvalidOperation("movement quantity must be at least 1, got %d", input.Quantity)
	}
	if input.Kind == model.MovementSale && input.OrderID == nil {
		return apperr.InvalidOperation("SALE movements must reference an order")
	}
	if input.Kind != model.MovementSale && input.OrderID != nil {
		return apperr.InvalidOperation("only SALE movements may reference an order")
	}
	return nil
}

func (uc *inventoryUseCase) History(ctx context.Context, productID int64) ([]model.StockMovement, error) {
	ps, err := uc.repo.FindProductStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		return nil, apperr.NotFound("product", "id", productID)
	}
	return uc.repo.ListMovements(ctx, &dto.MovementFilters{ProductID: productID})
}

func (uc *inventoryUseCase) Recent(ctx context.Context, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = uc.recentLimit
	}
	return uc.repo.ListMovements(ctx, &dto.MovementFilters{Limit: limit})
}

func (uc *inventoryUseCase) GetStock(ctx context.Context, productID int64) (*model.StockLevel, error) {
	ps, err := uc.repo.FindProductStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		return nil, apperr.NotFound("product", "id", productID)
	}
	return &model.StockLevel{
		ProductID: ps.ID,
		Quantity:  ps.StockQuantity,
		MinStock:  ps.MinStock,
		LowStock:  ps.StockQuantity <= ps.MinStock,
	}, nil
}

func (uc *inventoryUseCase) publishMovement(ctx context.Context, m *model.StockMovement) {
	e, err := events.New(events.TypeStockMovement, fmt.Sprintf("product-%d", m.ProductID), m, m.CreatedAt)
	if err == nil {
		err = uc.publisher.Publish(ctx, e)
	}
	if err != nil {
		uc.logger.Warn("failed to publish stock movement", zap.Int64("movement_id", m.ID), zap.Error(err))
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
