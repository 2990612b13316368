package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, number, order_id, customer_id, issued_by, issue_date, due_date, status, total_base, total_tax, total_final, notes, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, inv *model.Invoice) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO invoices (
            number, order_id, customer_id, issued_by, issue_date, due_date, status,
            total_base, total_tax, total_final, notes, created_at, updated_at
        )
        VALUES (
            :number, :order_id, :customer_id, :issued_by, :issue_date, :due_date, :status,
            :total_base, :total_tax, :total_final, :notes, :created_at, :updated_at
        )
        RETURNING id
    `, inv)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, &inv.ID, query, args...)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Invoice, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *PGRepository) FindByOrderID(ctx context.Context, orderID int64) (*model.Invoice, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *PGRepository) findOne(ctx context.Context, where string, arg any) (*model.Invoice, error) {
	q := database.Conn(ctx, r.DB)
	var inv model.Invoice
	query := q.Rebind(`SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + where)
	if err := sqlx.GetContext(ctx, q, &inv, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InvoiceFilters) ([]model.Invoice, int, error) {
	q := database.Conn(ctx, r.DB)
	invoices := []model.Invoice{}
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}
	if f.CustomerID != 0 {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	if f.From != nil {
		conditions = append(conditions, "issue_date >= :from")
		args["from"] = dateOf(*f.From)
	}
	if f.To != nil {
		conditions = append(conditions, "issue_date < :to")
		args["to"] = dateOf(*f.To).AddDate(0, 0, 1)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := q.BindNamed("SELECT count(*) FROM invoices"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + invoiceColumns + " FROM invoices" + whereClause + " ORDER BY issue_date DESC, id DESC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.SelectContext(ctx, q, &invoices, listQuery, listArgs...); err != nil {
		return nil, 0, err
	}
	return invoices, count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to model.InvoiceStatus, now time.Time) (bool, error) {
	q := database.Conn(ctx, r.DB)
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		string(to), now, id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update invoice status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// NextNumber relies on the upsert taking the counter row lock (PostgreSQL) or
// the database write lock (SQLite) until the surrounding transaction ends.
func (r *PGRepository) NextNumber(ctx context.Context, scope string) (int64, error) {
	q := database.Conn(ctx, r.DB)
	var value int64
	query := q.Rebind(`
        INSERT INTO invoice_counters (scope, value) VALUES (?, 1)
        ON CONFLICT (scope) DO UPDATE SET value = invoice_counters.value + 1
        RETURNING value
    `)
	if err := sqlx.GetContext(ctx, q, &value, query, scope); err != nil {
		return 0, fmt.Errorf("failed to increment invoice counter: %w", err)
	}
	return value, nil
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
