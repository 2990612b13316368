package model

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleSales     UserRole = "SALES"
	RoleWarehouse UserRole = "WAREHOUSE"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleSales || r == RoleWarehouse
}

// User is the actor recorded on orders, invoices and stock movements.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      UserRole  `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
