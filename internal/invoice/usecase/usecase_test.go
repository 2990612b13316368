package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	customerRepo "github.com/fekuna/omnipos-sales-service/internal/customer/repository"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/database/dbtest"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	invRepo "github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	invUC "github.com/fekuna/omnipos-sales-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/invoice"
	"github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/invoice/repository"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	orderDto "github.com/fekuna/omnipos-sales-service/internal/order/dto"
	orderRepo "github.com/fekuna/omnipos-sales-service/internal/order/repository"
	orderUC "github.com/fekuna/omnipos-sales-service/internal/order/usecase"
	productRepo "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	userRepo "github.com/fekuna/omnipos-sales-service/internal/user/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db        *sqlx.DB
	uc        invoice.UseCase
	orders    order.UseCase
	publisher *recordingPublisher
	customer  int64
	actor     int64
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	tx := database.NewTxManager(db)
	locker := lock.NewLocalLocker()
	users := userRepo.NewPGRepository(db)
	orders := orderRepo.NewPGRepository(db)
	clock := func() time.Time { return fixedNow }
	pub := &recordingPublisher{}

	inventory := invUC.NewInventoryUseCase(invUC.Deps{
		Repo:   invRepo.NewPGRepository(db),
		Users:  users,
		Tx:     tx,
		Locker: locker,
		Logger: logger.NewNop(),
		Clock:  clock,
	})
	return &fixture{
		db: db,
		uc: NewInvoiceUseCase(Deps{
			Repo:      repository.NewPGRepository(db),
			Orders:    orders,
			Users:     users,
			Inventory: inventory,
			Tx:        tx,
			Locker:    locker,
			Publisher: pub,
			Logger:    logger.NewNop(),
			Prefix:    "FAC",
			DueDays:   30,
			Clock:     clock,
		}),
		orders: orderUC.NewOrderUseCase(orderUC.Deps{
			Repo:      orders,
			Products:  productRepo.NewPGRepository(db),
			Customers: customerRepo.NewPGRepository(db),
			Users:     users,
			Tx:        tx,
			Locker:    locker,
			Logger:    logger.NewNop(),
			Clock:     clock,
		}),
		publisher: pub,
		customer:  dbtest.Customer(t, db, "B00000001"),
		actor:     dbtest.User(t, db, "billing@example.com"),
	}
}

// paidOrder creates an order with the given lines and moves it to PAID.
func (f *fixture) paidOrder(t *testing.T, lines ...orderDto.LineInput) *model.Order {
	t.Helper()
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, &orderDto.CreateOrderInput{
		CustomerID: f.customer,
		CreatorID:  f.actor,
		Lines:      lines,
	})
	require.NoError(t, err)
	o, err = f.orders.ChangeState(ctx, o.ID, model.OrderPaid)
	require.NoError(t, err)
	return o
}

func (f *fixture) issue(orderID int64) (*model.Invoice, error) {
	return f.uc.Issue(context.Background(), &dto.IssueInput{OrderID: orderID, ActorID: f.actor})
}

func TestIssueDeductsStockAndCopiesTotals(t *testing.T) {
	f := newFixture(t)
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
	o := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 4})

	inv, err := f.uc.Issue(context.Background(), &dto.IssueInput{OrderID: o.ID, ActorID: f.actor, Notes: "  first  "})
	require.NoError(t, err)

	assert.Equal(t, "FAC-2025-000001", inv.Number)
	assert.Equal(t, model.InvoicePending, inv.Status)
	assert.Equal(t, o.ID, inv.OrderID)
	assert.Equal(t, f.customer, inv.CustomerID)
	assert.Equal(t, f.actor, inv.IssuedBy)
	assert.Equal(t, "40.00", inv.TotalBase.StringFixed(2))
	assert.Equal(t, "8.40", inv.TotalTax.StringFixed(2))
	assert.Equal(t, "48.40", inv.TotalFinal.StringFixed(2))
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC), inv.DueDate)
	require.NotNil(t, inv.Notes)
	assert.Equal(t, "first", *inv.Notes)

	assert.Equal(t, 6, dbtest.Stock(t, f.db, p))

	var m model.StockMovement
	require.NoError(t, f.db.Get(&m, `SELECT id, product_id, kind, quantity, quantity_before, quantity_after, actor_id, order_id, reason, created_at FROM stock_movements WHERE order_id = ?`, o.ID))
	assert.Equal(t, model.MovementSale, m.Kind)
	assert.Equal(t, 4, m.Quantity)
	assert.Equal(t, 10, m.QuantityBefore)
	assert.Equal(t, 6, m.QuantityAfter)
	require.NotNil(t, m.Reason)
	assert.Contains(t, *m.Reason, "order #")

	stored, err := f.uc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, stored.Number)
	assert.True(t, inv.TotalFinal.Equal(stored.TotalFinal))
	assert.True(t, inv.DueDate.Equal(stored.DueDate))

	assert.Equal(t, []string{events.TypeInvoiceIssued}, f.publisher.types())
}

func TestIssueRejectsUnpaidOrder(t *testing.T) {
	f := newFixture(t)
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
	o, err := f.orders.CreateOrder(context.Background(), &orderDto.CreateOrderInput{
		CustomerID: f.customer,
		CreatorID:  f.actor,
		Lines:      []orderDto.LineInput{{ProductID: p, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.issue(o.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	assert.Equal(t, 0, dbtest.Count(t, f.db, "invoices"))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "stock_movements"))
	assert.Equal(t, 10, dbtest.Stock(t, f.db, p))
	assert.Empty(t, f.publisher.types())
}

func TestIssueRequiresOrderAndActor(t *testing.T) {
	f := newFixture(t)
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
	o := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 1})

	_, err := f.issue(999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.uc.Issue(context.Background(), &dto.IssueInput{OrderID: o.ID, ActorID: 999})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, 10, dbtest.Stock(t, f.db, p))
}

func TestIssueTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
	o := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 3})

	_, err := f.issue(o.ID)
	require.NoError(t, err)

	_, err = f.issue(o.ID)
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	assert.Equal(t, 7, dbtest.Stock(t, f.db, p))
	assert.Equal(t, 1, dbtest.Count(t, f.db, "invoices"))
}

func TestIssueIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a := dbtest.Product(t, f.db, "A", "5.00", "10", 10)
	b := dbtest.Product(t, f.db, "B", "8.00", "10", 3)
	o := f.paidOrder(t,
		orderDto.LineInput{ProductID: a, Quantity: 4},
		orderDto.LineInput{ProductID: b, Quantity: 3},
	)

	// stock of B drops below the line quantity after the order was paid
	_, err := f.db.Exec(`UPDATE products SET stock_quantity = 1 WHERE id = ?`, b)
	require.NoError(t, err)

	_, err = f.issue(o.ID)
	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, b, stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Equal(t, 10, dbtest.Stock(t, f.db, a))
	assert.Equal(t, 1, dbtest.Stock(t, f.db, b))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "stock_movements"))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "invoices"))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "invoice_counters"))
}

// Two paid orders want 6 units each of a product with 10 in stock.
func TestConcurrentIssueOversell(t *testing.T) {
	f := newFixture(t)
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
	first := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 6})
	second := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 6})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.issue(id)
		}()
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperr.ErrInsufficientStock):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 4, dbtest.Stock(t, f.db, p))
	assert.Equal(t, 1, dbtest.Count(t, f.db, "invoices"))
}

// Two paid orders take the whole stock of 5 each; exactly one drains it to 0.
func TestConcurrentIssueDrainsStockExactly(t *testing.T) {
	for round := 0; round < 10; round++ {
		f := newFixture(t)
		p := dbtest.Product(t, f.db, "P", "10.00", "21", 5)
		first := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 5})
		second := f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 5})

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []int64{first.ID, second.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.issue(id)
			}()
		}
		wg.Wait()

		var stockErr *apperr.InsufficientStockError
		if errs[0] == nil {
			require.ErrorAs(t, errs[1], &stockErr)
		} else {
			require.NoError(t, errs[1])
			require.ErrorAs(t, errs[0], &stockErr)
		}
		assert.Equal(t, 0, stockErr.Available)
		assert.Equal(t, 5, stockErr.Requested)
		assert.Equal(t, 0, dbtest.Stock(t, f.db, p))
		assert.Equal(t, 1, dbtest.Count(t, f.db, "invoices"))
		assert.Equal(t, 1, dbtest.Count(t, f.db, "stock_movements"))
	}
}

func TestIssueRejectsOrderWithoutLines(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder(t)

	_, err := f.issue(o.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
	assert.Equal(t, 0, dbtest.Count(t, f.db, "invoices"))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "invoice_counters"))

	// the next real invoice still gets the first number
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 5)
	inv, err := f.issue(f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 1}).ID)
	require.NoError(t, err)
	assert.Equal(t, "FAC-2025-000001", inv.Number)
}

func TestConcurrentIssueNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	const n = 8
	ids := make([]int64, n)
	for i := range ids {
		p := dbtest.Product(t, f.db, "P", "1.00", "0", 5)
		ids[i] = f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 1}).ID
	}

	var wg sync.WaitGroup
	numbers := make([]string, n)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.issue(id)
			if assert.NoError(t, err) {
				numbers[i] = inv.Number
			}
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{
		"FAC-2025-000001", "FAC-2025-000002", "FAC-2025-000003", "FAC-2025-000004",
		"FAC-2025-000005", "FAC-2025-000006", "FAC-2025-000007", "FAC-2025-000008",
	}, numbers)
}

func TestChangeState(t *testing.T) {
	tests := []struct {
		name  string
		path  []model.InvoiceStatus
		to    model.InvoiceStatus
		valid bool
	}{
		{"pending to paid", nil, model.InvoicePaid, true},
		{"pending to overdue", nil, model.InvoiceOverdue, true},
		{"pending to cancelled", nil, model.InvoiceCancelled, true},
		{"overdue to paid", []model.InvoiceStatus{model.InvoiceOverdue}, model.InvoicePaid, false},
		{"overdue to cancelled", []model.InvoiceStatus{model.InvoiceOverdue}, model.InvoiceCancelled, true},
		{"paid to cancelled", []model.InvoiceStatus{model.InvoicePaid}, model.InvoiceCancelled, true},
		{"paid to pending", []model.InvoiceStatus{model.InvoicePaid}, model.InvoicePending, false},
		{"paid to overdue", []model.InvoiceStatus{model.InvoicePaid}, model.InvoiceOverdue, false},
		{"cancelled is terminal", []model.InvoiceStatus{model.InvoiceCancelled}, model.InvoicePaid, false},
		{"pending to pending", nil, model.InvoicePending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
			inv, err := f.issue(f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 1}).ID)
			require.NoError(t, err)

			for _, s := range tt.path {
				_, err := f.uc.ChangeState(ctx, inv.ID, s)
				require.NoError(t, err)
			}

			got, err := f.uc.ChangeState(ctx, inv.ID, tt.to)
			if !tt.valid {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)

			stored, err := f.uc.GetInvoice(ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.to, stored.Status)
		})
	}
}

func TestChangeStateDoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 10)
	inv, err := f.issue(f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 4}).ID)
	require.NoError(t, err)

	_, err = f.uc.ChangeState(context.Background(), inv.ID, model.InvoiceCancelled)
	require.NoError(t, err)
	assert.Equal(t, 6, dbtest.Stock(t, f.db, p))
	assert.Contains(t, f.publisher.types(), events.TypeInvoiceStateChanged)
}

func TestChangeStateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.ChangeState(context.Background(), 1, model.InvoiceStatus("VOID"))
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	_, err = f.uc.ChangeState(context.Background(), 999, model.InvoicePaid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.Customer(t, f.db, "B00000002")
	p := dbtest.Product(t, f.db, "P", "10.00", "21", 100)

	first, err := f.issue(f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 1}).ID)
	require.NoError(t, err)
	second, err := f.issue(f.paidOrder(t, orderDto.LineInput{ProductID: p, Quantity: 2}).ID)
	require.NoError(t, err)

	o, err := f.orders.CreateOrder(ctx, &orderDto.CreateOrderInput{
		CustomerID: other,
		CreatorID:  f.actor,
		Lines:      []orderDto.LineInput{{ProductID: p, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = f.orders.ChangeState(ctx, o.ID, model.OrderPaid)
	require.NoError(t, err)
	third, err := f.issue(o.ID)
	require.NoError(t, err)
	_, err = f.uc.ChangeState(ctx, second.ID, model.InvoicePaid)
	require.NoError(t, err)

	all, total, err := f.uc.ListInvoices(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	// same issue date, newest id first
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	paid, total, err := f.uc.ListInvoices(ctx, &dto.InvoiceFilters{Status: model.InvoicePaid})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, second.ID, paid[0].ID)

	byCustomer, _, err := f.uc.ListInvoices(ctx, &dto.InvoiceFilters{CustomerID: other})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, third.ID, byCustomer[0].ID)

	day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	sameDay, _, err := f.uc.ListInvoices(ctx, &dto.InvoiceFilters{From: &day, To: &day})
	require.NoError(t, err)
	assert.Len(t, sameDay, 3)

	later := day.AddDate(0, 0, 1)
	none, total, err := f.uc.ListInvoices(ctx, &dto.InvoiceFilters{From: &later})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, none)

	paged, total, err := f.uc.ListInvoices(ctx, &dto.InvoiceFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, paged, 1)
	assert.Equal(t, first.ID, paged[0].ID)

	_, _, err = f.uc.ListInvoices(ctx, &dto.InvoiceFilters{From: &later, To: &day})
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}
