package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, description, category, unit_price, tax_rate, stock_quantity, min_stock, is_active, created_at, updated_at`

// PGRepository queries are written for PostgreSQL and stay compatible with SQLite.
type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO products (
            name, description, category, unit_price, tax_rate,
            stock_quantity, min_stock, is_active, created_at, updated_at
        )
        VALUES (
            :name, :description, :category, :unit_price, :tax_rate,
            :stock_quantity, :min_stock, :is_active, :created_at, :updated_at
        )
        RETURNING id
    `, p)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, &p.ID, query, args...)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	q := database.Conn(ctx, r.DB)
	var product model.Product
	query := q.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ? LIMIT 1`)
	err := sqlx.GetContext(ctx, q, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	q := database.Conn(ctx, r.DB)

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	err = sqlx.SelectContext(ctx, q, &products, q.Rebind(query), args...)
	return products, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	q := database.Conn(ctx, r.DB)
	products := []model.Product{}
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(LOWER(name) LIKE :search OR LOWER(COALESCE(description, '')) LIKE :search)")
		args["search"] = "%" + strings.ToLower(f.SearchQuery) + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery, countArgs, err := q.BindNamed("SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	// List
	orderBy := "created_at DESC, id DESC"
	if f.SortBy != "" {
		// whitelisted, never interpolated from input
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "CAST(unit_price AS NUMERIC)"
		case "stock":
			orderBy = "stock_quantity"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC, id ASC"
		} else {
			orderBy += " DESC, id DESC"
		}
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s", productColumns, whereClause, orderBy)
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.SelectContext(ctx, q, &products, listQuery, listArgs...); err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            description = :description,
            category = :category,
            unit_price = :unit_price,
            tax_rate = :tax_rate,
            min_stock = :min_stock,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.DB), query, p)
	return err
}

func (r *PGRepository) FindLowStock(ctx context.Context) ([]model.Product, error) {
	q := database.Conn(ctx, r.DB)
	products := []model.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = ? AND stock_quantity <= min_stock ORDER BY stock_quantity ASC, id ASC`
	err := sqlx.SelectContext(ctx, q, &products, q.Rebind(query), true)
	return products, err
}
