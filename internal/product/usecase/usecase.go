package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	invDto "github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/money"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"go.uber.org/zap"
)

const initialStockReason = "initial stock"

type productUseCase struct {
	repo      product.Repository
	inventory inventory.UseCase
	tx        database.Transactor
	logger    logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, inv inventory.UseCase, tx database.Transactor, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:      repo,
		inventory: inv,
		tx:        tx,
		logger:    log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.InvalidOperation("product name is required")
	}
	if err := validatePricing(input.UnitPrice, input.TaxRate, input.MinStock); err != nil {
		return nil, err
	}
	if input.InitialStock < 0 {
		return nil, apperr.InvalidOperation("initial stock must not be negative")
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:   model.BaseModel{CreatedAt: now, UpdatedAt: now},
		Name:        strings.TrimSpace(input.Name),
		Description: optional(input.Description),
		Category:    optional(input.Category),
		UnitPrice:   money.Round(input.UnitPrice),
		TaxRate:     input.TaxRate,
		MinStock:    input.MinStock,
		IsActive:    true,
	}

	// The product starts empty; any initial quantity goes through the ledger so
	// that the stock always equals the sum of its movements.
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, p); err != nil {
			return err
		}
		if input.InitialStock == 0 {
			return nil
		}
		m, err := uc.inventory.ApplyMovement(ctx, &invDto.MovementInput{
			ProductID: p.ID,
			Kind:      model.MovementEntry,
			Quantity:  input.InitialStock,
			Reason:    initialStockReason,
			ActorID:   input.ActorID,
		})
		if err != nil {
			return err
		}
		p.StockQuantity = m.QuantityAfter
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("product created", zap.Int64("product_id", p.ID), zap.Int("stock", p.StockQuantity))
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", "id", id)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.InvalidOperation("product name is required")
	}
	if err := validatePricing(input.UnitPrice, input.TaxRate, input.MinStock); err != nil {
		return nil, err
	}

	// Update fields. Existing order lines keep the price they captured.
	p.Name = strings.TrimSpace(input.Name)
	p.Description = optional(input.Description)
	p.Category = optional(input.Category)
	p.UnitPrice = money.Round(input.UnitPrice)
	p.TaxRate = input.TaxRate
	p.MinStock = input.MinStock
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUseCase) SetProductActive(ctx context.Context, id int64, active bool) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsActive == active {
		return p, nil
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUseCase) ListLowStock(ctx context.Context) ([]model.Product, error) {
	return uc.repo.FindLowStock(ctx)
}
