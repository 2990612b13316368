package usecase

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/user"
	"github.com/fekuna/omnipos-sales-service/internal/user/dto"
	"go.uber.org/zap"
)

type userUseCase struct {
	repo   user.Repository
	logger logger.ZapLogger
}

func NewUserUseCase(repo user.Repository, log logger.ZapLogger) user.UseCase {
	return &userUseCase{repo: repo, logger: log}
}

func (uc *userUseCase) CreateUser(ctx context.Context, input *dto.CreateUserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidOperation("invalid email %q", input.Email)
	}
	role := input.Role
	if role == "" {
		role = model.RoleSales
	}
	if !role.Valid() {
		return nil, apperr.InvalidOperation("unknown role %q", role)
	}

	existing, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.DuplicateKey("user", "email", email)
	}

	u := &model.User{
		Name:      strings.TrimSpace(input.Name),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.DuplicateKey("user", "email", email)
		}
		return nil, err
	}

	uc.logger.Info("user created", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (uc *userUseCase) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user", "id", id)
	}
	return u, nil
}
