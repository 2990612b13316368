package dto

import "github.com/fekuna/omnipos-sales-service/internal/model"

type CreateUserInput struct {
	Name  string
	Email string
	Role  model.UserRole // SALES when empty
}
