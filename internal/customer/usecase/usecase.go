package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/customer"
	"github.com/fekuna/omnipos-sales-service/internal/customer/dto"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"go.uber.org/zap"
)

type customerUseCase struct {
	repo   customer.Repository
	logger logger.ZapLogger
}

func NewCustomerUseCase(repo customer.Repository, log logger.ZapLogger) customer.UseCase {
	return &customerUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *customerUseCase) CreateCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error) {
	taxID := strings.TrimSpace(input.TaxID)
	if strings.TrimSpace(input.Name) == "" || taxID == "" {
		return nil, apperr.InvalidOperation("customer name and tax id are required")
	}

	existing, err := uc.repo.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.DuplicateKey("customer", "tax_id", taxID)
	}

	now := time.Now().UTC()
	c := &model.Customer{
		BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
		Name:       strings.TrimSpace(input.Name),
		TaxID:      taxID,
		Email:      optional(input.Email),
		Phone:      optional(input.Phone),
		Address:    optional(input.Address),
		PostalCode: optional(input.PostalCode),
		City:       optional(input.City),
		Province:   optional(input.Province),
		IsActive:   true,
	}

	if err := uc.repo.Create(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.DuplicateKey("customer", "tax_id", taxID)
		}
		return nil, err
	}

	uc.logger.Info("customer created", zap.Int64("customer_id", c.ID))
	return c, nil
}

func (uc *customerUseCase) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("customer", "id", id)
	}
	return c, nil
}

func (uc *customerUseCase) ListCustomers(ctx context.Context, filters *dto.CustomerFilters) ([]model.Customer, int, error) {
	if filters == nil {
		filters = &dto.CustomerFilters{}
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *customerUseCase) UpdateCustomer(ctx context.Context, input *dto.UpdateCustomerInput) (*model.Customer, error) {
	c, err := uc.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	taxID := strings.TrimSpace(input.TaxID)
	if strings.TrimSpace(input.Name) == "" || taxID == "" {
		return nil, apperr.InvalidOperation("customer name and tax id are required")
	}
	if taxID != c.TaxID {
		other, err := uc.repo.FindByTaxID(ctx, taxID)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != c.ID {
			return nil, apperr.DuplicateKey("customer", "tax_id", taxID)
		}
	}

	c.Name = strings.TrimSpace(input.Name)
	c.TaxID = taxID
	c.Email = optional(input.Email)
	c.Phone = optional(input.Phone)
	c.Address = optional(input.Address)
	c.PostalCode = optional(input.PostalCode)
	c.City = optional(input.City)
	c.Province = optional(input.Province)
	c.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.DuplicateKey("customer", "tax_id", taxID)
		}
		return nil, err
	}
	return c, nil
}

func (uc *customerUseCase) SetCustomerActive(ctx context.Context, id int64, active bool) (*model.Customer, error) {
	c, err := uc.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsActive == active {
		return c, nil
	}
	c.IsActive = active
	c.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
