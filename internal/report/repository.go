package report

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/report/dto"
)

// Repository only reads. Reports own no state.
type Repository interface {
	CountCustomers(ctx context.Context) (int, error)
	CountProducts(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	CountInvoices(ctx context.Context) (int, error)
	// CountLowStock counts active products whose stock is at or below threshold.
	CountLowStock(ctx context.Context, threshold int) (int, error)
	CountInvoicesByStatus(ctx context.Context, status model.InvoiceStatus) (int, error)
	InvoiceAmounts(ctx context.Context, filters *dto.AmountFilters) ([]dto.InvoiceAmount, error)
}
