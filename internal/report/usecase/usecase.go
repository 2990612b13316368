package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/report"
	"github.com/fekuna/omnipos-sales-service/internal/report/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultLowStockThreshold = 10

type Deps struct {
	Repo   report.Repository
	Logger logger.ZapLogger
	// LowStockThreshold is the stock level at or below which an active
	// product counts as low in Statistics.
	LowStockThreshold int
	Clock             func() time.Time
}

type reportUseCase struct {
	repo      report.Repository
	logger    logger.ZapLogger
	threshold int
	clock     func() time.Time
}

func NewReportUseCase(deps Deps) report.UseCase {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	threshold := deps.LowStockThreshold
	if threshold < 0 {
		threshold = defaultLowStockThreshold
	}
	return &reportUseCase{
		repo:      deps.Repo,
		logger:    deps.Logger,
		threshold: threshold,
		clock:     func() time.Time { return clock().UTC() },
	}
}

func (uc *reportUseCase) Statistics(ctx context.Context) (*model.Statistics, error) {
	now := uc.clock()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	var (
		stats   model.Statistics
		month   []dto.InvoiceAmount
		pending []dto.InvoiceAmount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Customers, err = uc.repo.CountCustomers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Products, err = uc.repo.CountProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Orders, err = uc.repo.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Invoices, err = uc.repo.CountInvoices(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.LowStockProducts, err = uc.repo.CountLowStock(gctx, uc.threshold)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingInvoices, err = uc.repo.CountInvoicesByStatus(gctx, model.InvoicePending)
		return err
	})
	g.Go(func() (err error) {
		month, err = uc.repo.InvoiceAmounts(gctx, &dto.AmountFilters{From: &monthStart, To: &monthEnd})
		return err
	})
	g.Go(func() (err error) {
		pending, err = uc.repo.InvoiceAmounts(gctx, &dto.AmountFilters{Status: model.InvoicePending})
		return err
	})
	if err := g.Wait(); err != nil {
		uc.logger.Error("failed to compute statistics", zap.Error(err))
		return nil, err
	}

	stats.MonthSales = sum(month)
	stats.OutstandingBalance = sum(pending)
	return &stats, nil
}

func (uc *reportUseCase) PeriodReport(ctx context.Context, start, end time.Time) ([]model.DailySales, error) {
	start, end = dateOf(start), dateOf(end)
	if start.After(end) {
		return nil, apperr.InvalidOperation("period start %s is after end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	amounts, err := uc.repo.InvoiceAmounts(ctx, &dto.AmountFilters{From: &start, To: &end})
	if err != nil {
		return nil, err
	}

	// amounts arrive newest date first, so each day is one contiguous run
	days := []model.DailySales{}
	for _, a := range amounts {
		date := dateOf(a.IssueDate)
		if len(days) == 0 || !days[len(days)-1].Date.Equal(date) {
			days = append(days, model.DailySales{
				Date:         date,
				Total:        decimal.Zero,
				PaidTotal:    decimal.Zero,
				PendingTotal: decimal.Zero,
			})
		}
		day := &days[len(days)-1]
		day.InvoiceCount++
		day.Total = day.Total.Add(a.TotalFinal)
		switch a.Status {
		case model.InvoicePaid:
			day.PaidTotal = day.PaidTotal.Add(a.TotalFinal)
		case model.InvoicePending:
			day.PendingTotal = day.PendingTotal.Add(a.TotalFinal)
		}
	}
	return days, nil
}

func sum(amounts []dto.InvoiceAmount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.TotalFinal)
	}
	return total
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
