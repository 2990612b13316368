package invoice

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	// Issue turns a PAID order into an invoice, deducting the stock of every
	// line in the same unit of work. Nothing is written if any step fails.
	Issue(ctx context.Context, input *dto.IssueInput) (*model.Invoice, error)
	ChangeState(ctx context.Context, invoiceID int64, status model.InvoiceStatus) (*model.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID int64) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filters *dto.InvoiceFilters) ([]model.Invoice, int, error)
}
