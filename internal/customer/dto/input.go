package dto

type CreateCustomerInput struct {
	Name       string
	TaxID      string
	Email      string
	Phone      string
	Address    string
	PostalCode string
	City       string
	Province   string
}

type UpdateCustomerInput struct {
	ID         int64
	Name       string
	TaxID      string
	Email      string
	Phone      string
	Address    string
	PostalCode string
	City       string
	Province   string
}
