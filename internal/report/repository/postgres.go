package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/report/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CountCustomers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM customers`)
}

func (r *PGRepository) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM products`)
}

func (r *PGRepository) CountOrders(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM orders`)
}

func (r *PGRepository) CountInvoices(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM invoices`)
}

func (r *PGRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM products WHERE is_active = ? AND stock_quantity <= ?`, true, threshold)
}

func (r *PGRepository) CountInvoicesByStatus(ctx context.Context, status model.InvoiceStatus) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM invoices WHERE status = ?`, string(status))
}

func (r *PGRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.DB, &n, r.DB.Rebind(query), args...)
	return n, err
}

// InvoiceAmounts returns the rows sums are computed from. Money is added up in
// Go so both backends agree on decimal precision.
func (r *PGRepository) InvoiceAmounts(ctx context.Context, f *dto.AmountFilters) ([]dto.InvoiceAmount, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}
	if f.From != nil {
		conditions = append(conditions, "issue_date >= :from")
		args["from"] = dateOf(*f.From)
	}
	if f.To != nil {
		conditions = append(conditions, "issue_date < :to")
		args["to"] = dateOf(*f.To).AddDate(0, 0, 1)
	}

	query := "SELECT issue_date, status, total_final FROM invoices"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY issue_date DESC, id DESC"

	q, qArgs, err := r.DB.BindNamed(query, args)
	if err != nil {
		return nil, err
	}
	amounts := []dto.InvoiceAmount{}
	if err := sqlx.SelectContext(ctx, r.DB, &amounts, q, qArgs...); err != nil {
		return nil, err
	}
	return amounts, nil
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
