package report

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	Statistics(ctx context.Context) (*model.Statistics, error)
	// PeriodReport groups the invoices issued between start and end, both
	// inclusive, by issue date. The newest date comes first.
	PeriodReport(ctx context.Context, start, end time.Time) ([]model.DailySales, error)
}
