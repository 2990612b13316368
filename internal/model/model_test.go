package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderPaid, OrderShipped, OrderCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderPaid}:      true,
		{OrderPending, OrderCancelled}: true,
		{OrderPaid, OrderShipped}:      true,
		{OrderPaid, OrderCancelled}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, OrderShipped.IsTerminal())
	assert.True(t, OrderCancelled.IsTerminal())
	assert.False(t, OrderPaid.IsTerminal())
	assert.False(t, OrderStatus("DRAFT").Valid())
}

func TestInvoiceStatusTransitions(t *testing.T) {
	all := []InvoiceStatus{InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled}
	allowed := map[[2]InvoiceStatus]bool{
		{InvoicePending, InvoicePaid}:      true,
		{InvoicePending, InvoiceOverdue}:   true,
		{InvoicePending, InvoiceCancelled}: true,
		{InvoiceOverdue, InvoiceCancelled}: true,
		{InvoicePaid, InvoiceCancelled}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]InvoiceStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestMovementKind(t *testing.T) {
	assert.True(t, MovementExit.Decreases())
	assert.True(t, MovementSale.Decreases())
	assert.False(t, MovementEntry.Decreases())
	assert.False(t, MovementAdjustment.Decreases())
	assert.False(t, MovementKind("LOSS").Valid())
}

func TestProductIsLowStock(t *testing.T) {
	p := Product{StockQuantity: 5, MinStock: 5}
	assert.True(t, p.IsLowStock())
	p.StockQuantity = 6
	assert.False(t, p.IsLowStock())
}
