package dto

type CustomerFilters struct {
	IsActive *bool
	Search   string // matches name or tax id
	Page     int
	PageSize int
}
