package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
	"github.com/jmoiron/sqlx"
)

const (
	orderColumns = `id, customer_id, created_by, status, notes, total_base, total_tax, total_final, created_at, updated_at`
	lineColumns  = `id, order_id, product_id, position, quantity, unit_price, tax_rate, subtotal, tax_amount, total`
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO orders (customer_id, created_by, status, notes, total_base, total_tax, total_final, created_at, updated_at)
        VALUES (:customer_id, :created_by, :status, :notes, :total_base, :total_tax, :total_final, :created_at, :updated_at)
        RETURNING id
    `, o)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, q, &o.ID, query, args...); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	q := database.Conn(ctx, r.DB)
	var o model.Order
	query := q.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &o, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	q := database.Conn(ctx, r.DB)
	orders := []model.Order{}
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := q.BindNamed("SELECT count(*) FROM orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + orderColumns + " FROM orders" + whereClause + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.SelectContext(ctx, q, &orders, listQuery, listArgs...); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *PGRepository) UpdateTotals(ctx context.Context, o *model.Order) error {
	query := `
        UPDATE orders
        SET total_base = :total_base,
            total_tax = :total_tax,
            total_final = :total_final,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.DB), query, o)
	return err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus, now time.Time) (bool, error) {
	q := database.Conn(ctx, r.DB)
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		string(to), now, id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) (bool, error) {
	q := database.Conn(ctx, r.DB)
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM order_lines WHERE order_id = ?`), id); err != nil {
		return false, fmt.Errorf("failed to delete order lines: %w", err)
	}
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM orders WHERE id = ? AND status = ?`), id, string(model.OrderPending))
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *PGRepository) InsertLine(ctx context.Context, l *model.OrderLine) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO order_lines (order_id, product_id, position, quantity, unit_price, tax_rate, subtotal, tax_amount, total)
        VALUES (:order_id, :product_id, :position, :quantity, :unit_price, :tax_rate, :subtotal, :tax_amount, :total)
        RETURNING id
    `, l)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, q, &l.ID, query, args...); err != nil {
		return fmt.Errorf("failed to insert order line: %w", err)
	}
	return nil
}

func (r *PGRepository) DeleteLine(ctx context.Context, orderID, lineID int64) error {
	q := database.Conn(ctx, r.DB)
	_, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM order_lines WHERE id = ? AND order_id = ?`), lineID, orderID)
	return err
}

func (r *PGRepository) FindLines(ctx context.Context, orderIDs []int64) ([]model.OrderLine, error) {
	lines := []model.OrderLine{}
	if len(orderIDs) == 0 {
		return lines, nil
	}
	q := database.Conn(ctx, r.DB)

	query, args, err := sqlx.In(`SELECT `+lineColumns+` FROM order_lines WHERE order_id IN (?) ORDER BY order_id, position, id`, orderIDs)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, q, &lines, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return lines, nil
}
