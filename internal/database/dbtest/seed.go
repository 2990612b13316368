package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// User inserts an active SALES user and returns its id.
func User(t testing.TB, db *sqlx.DB, email string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (name, email, role, is_active, created_at) VALUES (?, ?, 'SALES', ?, ?)`,
		email, email, true, time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// Customer inserts an active customer and returns its id.
func Customer(t testing.TB, db *sqlx.DB, taxID string) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO customers (name, tax_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"Customer "+taxID, taxID, true, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// Product inserts an active product with the given price, tax rate and stock.
// No movement is recorded for the stock.
func Product(t testing.TB, db *sqlx.DB, name, price, taxRate string, stock int) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO products (name, unit_price, tax_rate, stock_quantity, min_stock, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		name, price, taxRate, stock, true, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// Stock reads the current stock of a product.
func Stock(t testing.TB, db *sqlx.DB, productID int64) int {
	t.Helper()
	var qty int
	require.NoError(t, db.Get(&qty, `SELECT stock_quantity FROM products WHERE id = ?`, productID))
	return qty
}

// Count runs SELECT COUNT(*) FROM table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

// Invoice inserts a PAID order for customer and an invoice for it with the
// given issue date, status and final total. Base and tax are left at zero.
func Invoice(t testing.TB, db *sqlx.DB, customerID, userID int64, issueDate time.Time, status, total string) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO orders (customer_id, created_by, status, total_final, created_at, updated_at) VALUES (?, ?, 'PAID', ?, ?, ?)`,
		customerID, userID, total, now, now)
	require.NoError(t, err)
	orderID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = db.Exec(`INSERT INTO invoices (number, order_id, customer_id, issued_by, issue_date, due_date, status, total_base, total_tax, total_final, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, '0', '0', ?, ?, ?)`,
		fmt.Sprintf("T-%06d", orderID), orderID, customerID, userID, issueDate, issueDate.AddDate(0, 0, 30), status, total, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
