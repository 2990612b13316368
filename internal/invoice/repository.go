package invoice

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id int64) (*model.Invoice, error)
	FindByOrderID(ctx context.Context, orderID int64) (*model.Invoice, error)
	FindAll(ctx context.Context, filters *dto.InvoiceFilters) ([]model.Invoice, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.InvoiceStatus, now time.Time) (ok bool, err error)

	// NextNumber increments and returns the durable counter of scope.
	NextNumber(ctx context.Context, scope string) (int64, error)
}
