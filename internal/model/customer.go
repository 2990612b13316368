package model

type Customer struct {
	BaseModel
	Name       string  `db:"name" json:"name"`
	TaxID      string  `db:"tax_id" json:"tax_id"`
	Email      *string `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone"`
	Address    *string `db:"address" json:"address"`
	PostalCode *string `db:"postal_code" json:"postal_code"`
	City       *string `db:"city" json:"city"`
	Province   *string `db:"province" json:"province"`
	IsActive   bool    `db:"is_active" json:"is_active"`
}
