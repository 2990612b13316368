package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/database/dbtest"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	userRepo "github.com/fekuna/omnipos-sales-service/internal/user/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sqlx.DB
	uc    inventory.UseCase
	tx    *database.TxManager
	actor int64
}

func newFixture(t *testing.T, clock func() time.Time) *fixture {
	db := dbtest.New(t)
	tx := database.NewTxManager(db)
	uc := NewInventoryUseCase(Deps{
		Repo:        repository.NewPGRepository(db),
		Users:       userRepo.NewPGRepository(db),
		Tx:          tx,
		Locker:      lock.NewLocalLocker(),
		Logger:      logger.NewNop(),
		RecentLimit: 2,
		Clock:       clock,
	})

	res := db.MustExec(`INSERT INTO users (name, email, role, created_at) VALUES ('Warehouse', 'wh@example.com', 'WAREHOUSE', ?)`, time.Now().UTC())
	actor, err := res.LastInsertId()
	require.NoError(t, err)

	return &fixture{db: db, uc: uc, tx: tx, actor: actor}
}

func (f *fixture) product(t *testing.T, name string, stock int) int64 {
	now := time.Now().UTC()
	res := f.db.MustExec(`INSERT INTO products (name, unit_price, tax_rate, stock_quantity, min_stock, created_at, updated_at) VALUES (?, '10.00', '21', ?, 2, ?, ?)`,
		name, stock, now, now)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func (f *fixture) order(t *testing.T) int64 {
	now := time.Now().UTC()
	res := f.db.MustExec(`INSERT INTO customers (name, tax_id, created_at, updated_at) VALUES ('Acme', 'B1', ?, ?)`, now, now)
	customerID, err := res.LastInsertId()
	require.NoError(t, err)
	res = f.db.MustExec(`INSERT INTO orders (customer_id, created_by, status, created_at, updated_at) VALUES (?, ?, 'PAID', ?, ?)`, customerID, f.actor, now, now)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	level, err := f.uc.GetStock(context.Background(), productID)
	require.NoError(t, err)
	return level.Quantity
}

func TestRecordMovementKinds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Widget", 10)

	tests := []struct {
		kind   model.MovementKind
		qty    int
		before int
		after  int
	}{
		{model.MovementEntry, 5, 10, 15},
		{model.MovementExit, 3, 15, 12},
		{model.MovementAdjustment, 2, 12, 14},
		{model.MovementExit, 14, 14, 0},
	}
	for _, tt := range tests {
		m, err := f.uc.RecordMovement(ctx, &dto.RecordMovementInput{ProductID: p, Kind: tt.kind, Quantity: tt.qty, Reason: "count", ActorID: f.actor})
		require.NoError(t, err)
		assert.Equal(t, tt.before, m.QuantityBefore, tt.kind)
		assert.Equal(t, tt.after, m.QuantityAfter, tt.kind)
		assert.Equal(t, f.actor, *m.ActorID)
		assert.Nil(t, m.OrderID)
		assert.Equal(t, tt.after, f.stock(t, p))
	}

	level, err := f.uc.GetStock(ctx, p)
	require.NoError(t, err)
	assert.True(t, level.LowStock)
}

func TestRecordMovementInsufficientStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Widget", 3)

	_, err := f.uc.RecordMovement(ctx, &dto.RecordMovementInput{ProductID: p, Kind: model.MovementExit, Quantity: 4, ActorID: f.actor})
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	var stockErr *apperr.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, "Widget", stockErr.ProductName)

	assert.Equal(t, 3, f.stock(t, p))
	history, err := f.uc.History(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordMovementValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Widget", 3)

	tests := []struct {
		name  string
		input dto.RecordMovementInput
		want  error
	}{
		{"sale is reserved", dto.RecordMovementInput{ProductID: p, Kind: model.MovementSale, Quantity: 1, ActorID: f.actor}, apperr.ErrInvalidOperation},
		{"zero quantity", dto.RecordMovementInput{ProductID: p, Kind: model.MovementEntry, Quantity: 0, ActorID: f.actor}, apperr.ErrInvalidOperation},
		{"unknown kind", dto.RecordMovementInput{ProductID: p, Kind: "LOSS", Quantity: 1, ActorID: f.actor}, apperr.ErrInvalidOperation},
		{"unknown actor", dto.RecordMovementInput{ProductID: p, Kind: model.MovementEntry, Quantity: 1, ActorID: 999}, apperr.ErrNotFound},
		{"unknown product", dto.RecordMovementInput{ProductID: 999, Kind: model.MovementEntry, Quantity: 1, ActorID: f.actor}, apperr.ErrNotFound},
		{"unknown product exit", dto.RecordMovementInput{ProductID: 999, Kind: model.MovementExit, Quantity: 1, ActorID: f.actor}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.RecordMovement(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApplyMovementSaleNeedsOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Widget", 5)
	orderID := f.order(t)

	_, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{ProductID: p, Kind: model.MovementSale, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	_, err = f.uc.ApplyMovement(ctx, &dto.MovementInput{ProductID: p, Kind: model.MovementEntry, Quantity: 1, OrderID: &orderID})
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	m, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{ProductID: p, Kind: model.MovementSale, Quantity: 2, OrderID: &orderID, Reason: "sale"})
	require.NoError(t, err)
	assert.Equal(t, 5, m.QuantityBefore)
	assert.Equal(t, 3, m.QuantityAfter)
	assert.Equal(t, orderID, *m.OrderID)
}

func TestApplyMovementJoinsCallerTransaction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Widget", 5)
	boom := errors.New("later step failed")

	err := f.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{ProductID: p, Kind: model.MovementExit, Quantity: 5})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, f.stock(t, p))

	history, err := f.uc.History(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryOrderingBreaksTiesByID(t *testing.T) {
	fixed := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, func() time.Time { return fixed })
	ctx := context.Background()
	p := f.product(t, "Widget", 0)

	var ids []int64
	for i := 1; i <= 3; i++ {
		m, err := f.uc.RecordMovement(ctx, &dto.RecordMovementInput{ProductID: p, Kind: model.MovementEntry, Quantity: i, ActorID: f.actor})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	history, err := f.uc.History(ctx, p)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, []int64{history[0].ID, history[1].ID, history[2].ID})
	assert.Equal(t, 6, history[0].QuantityAfter)
	assert.True(t, history[0].CreatedAt.Equal(fixed))

	_, err = f.uc.History(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecentIsGlobalAndLimited(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.product(t, "A", 1)
	b := f.product(t, "B", 1)

	for _, p := range []int64{a, b, a} {
		_, err := f.uc.RecordMovement(ctx, &dto.RecordMovementInput{ProductID: p, Kind: model.MovementEntry, Quantity: 1, ActorID: f.actor})
		require.NoError(t, err)
	}

	recent, err := f.uc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, a, recent[0].ProductID)
	assert.Equal(t, b, recent[1].ProductID)

	recent, err = f.uc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestConcurrentExitsNeverOverdraw(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Widget", 10)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.RecordMovement(ctx, &dto.RecordMovementInput{ProductID: p, Kind: model.MovementExit, Quantity: 1, ActorID: f.actor})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 5, rejected)
	assert.Equal(t, 0, f.stock(t, p))

	history, err := f.uc.History(ctx, p)
	require.NoError(t, err)
	assert.Len(t, history, 10)
	for _, m := range history {
		assert.Equal(t, m.QuantityBefore-1, m.QuantityAfter)
	}
}
