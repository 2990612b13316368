package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const movementColumns = `id, product_id, kind, quantity, quantity_before, quantity_after, actor_id, order_id, reason, created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindProductStock(ctx context.Context, productID int64) (*dto.ProductStock, error) {
	q := database.Conn(ctx, r.DB)
	var ps dto.ProductStock
	query := q.Rebind(`SELECT id, name, stock_quantity, min_stock, is_active FROM products WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &ps, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ps, nil
}

func (r *PGRepository) IncreaseStock(ctx context.Context, productID int64, qty int, now time.Time) (int, bool, error) {
	return r.updateStock(ctx, `
        UPDATE products
        SET stock_quantity = stock_quantity + ?, updated_at = ?
        WHERE id = ?
        RETURNING stock_quantity
    `, qty, now, productID)
}

// DecreaseStock checks and writes in one statement, so two concurrent
// deductions can never both pass the check.
func (r *PGRepository) DecreaseStock(ctx context.Context, productID int64, qty int, now time.Time) (int, bool, error) {
	return r.updateStock(ctx, `
        UPDATE products
        SET stock_quantity = stock_quantity - ?, updated_at = ?
        WHERE id = ? AND stock_quantity >= ?
        RETURNING stock_quantity
    `, qty, now, productID, qty)
}

func (r *PGRepository) updateStock(ctx context.Context, query string, args ...any) (int, bool, error) {
	q := database.Conn(ctx, r.DB)
	var after int
	if err := sqlx.GetContext(ctx, q, &after, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to update stock: %w", err)
	}
	return after, true, nil
}

func (r *PGRepository) InsertMovement(ctx context.Context, m *model.StockMovement) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO stock_movements (
            product_id, kind, quantity, quantity_before, quantity_after,
            actor_id, order_id, reason, created_at
        )
        VALUES (
            :product_id, :kind, :quantity, :quantity_before, :quantity_after,
            :actor_id, :order_id, :reason, :created_at
        )
        RETURNING id
    `, m)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, q, &m.ID, query, args...); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, error) {
	q := database.Conn(ctx, r.DB)
	items := []model.StockMovement{}

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != 0 {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.OrderID != 0 {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	if f.Kind != "" {
		conditions = append(conditions, "kind = :kind")
		args["kind"] = string(f.Kind)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + movementColumns + " FROM stock_movements" + whereClause + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	query, bound, err := q.BindNamed(query, args)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, q, &items, query, bound...); err != nil {
		return nil, err
	}
	return items, nil
}
