package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/customer/dto"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const customerColumns = `id, name, tax_id, email, phone, address, postal_code, city, province, is_active, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Customer) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO customers (name, tax_id, email, phone, address, postal_code, city, province, is_active, created_at, updated_at)
        VALUES (:name, :tax_id, :email, :phone, :address, :postal_code, :city, :province, :is_active, :created_at, :updated_at)
        RETURNING id
    `, c)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, &c.ID, query, args...)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *PGRepository) FindByTaxID(ctx context.Context, taxID string) (*model.Customer, error) {
	return r.findOne(ctx, "tax_id = ?", taxID)
}

func (r *PGRepository) findOne(ctx context.Context, where string, arg any) (*model.Customer, error) {
	q := database.Conn(ctx, r.DB)
	var c model.Customer
	query := q.Rebind(`SELECT ` + customerColumns + ` FROM customers WHERE ` + where + ` LIMIT 1`)
	err := sqlx.GetContext(ctx, q, &c, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CustomerFilters) ([]model.Customer, int, error) {
	q := database.Conn(ctx, r.DB)
	customers := []model.Customer{}
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.Search != "" {
		conditions = append(conditions, "(LOWER(name) LIKE :search OR LOWER(tax_id) LIKE :search)")
		args["search"] = "%" + strings.ToLower(f.Search) + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := q.BindNamed("SELECT count(*) FROM customers"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + customerColumns + " FROM customers" + whereClause + " ORDER BY name ASC, id ASC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.SelectContext(ctx, q, &customers, listQuery, listArgs...); err != nil {
		return nil, 0, err
	}
	return customers, count, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Customer) error {
	query := `
        UPDATE customers
        SET name = :name,
            tax_id = :tax_id,
            email = :email,
            phone = :phone,
            address = :address,
            postal_code = :postal_code,
            city = :city,
            province = :province,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.DB), query, c)
	return err
}
