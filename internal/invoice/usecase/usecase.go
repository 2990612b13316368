package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	invDto "github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/invoice"
	"github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	"github.com/fekuna/omnipos-sales-service/internal/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	defaultPrefix  = "FAC"
	defaultDueDays = 30
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-sales-service/internal/invoice")

type Deps struct {
	Repo      invoice.Repository
	Orders    order.Repository
	Users     user.Repository
	Inventory inventory.UseCase
	Tx        database.Transactor
	Locker    lock.Locker
	Publisher events.Publisher
	Logger    logger.ZapLogger
	Prefix    string
	DueDays   int
	Clock     func() time.Time
}

type invoiceUseCase struct {
	repo      invoice.Repository
	orders    order.Repository
	users     user.Repository
	inventory inventory.UseCase
	tx        database.Transactor
	locker    lock.Locker
	publisher events.Publisher
	logger    logger.ZapLogger
	prefix    string
	dueDays   int
	clock     func() time.Time
}

func NewInvoiceUseCase(deps Deps) invoice.UseCase {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	prefix := deps.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	dueDays := deps.DueDays
	if dueDays == 0 {
		dueDays = defaultDueDays
	}
	return &invoiceUseCase{
		repo:      deps.Repo,
		orders:    deps.Orders,
		users:     deps.Users,
		inventory: deps.Inventory,
		tx:        deps.Tx,
		locker:    deps.Locker,
		publisher: publisher,
		logger:    deps.Logger,
		prefix:    prefix,
		dueDays:   dueDays,
		clock:     func() time.Time { return clock().UTC() },
	}
}

func (uc *invoiceUseCase) Issue(ctx context.Context, input *dto.IssueInput) (*model.Invoice, error) {
	ctx, span := tracer.Start(ctx, "invoice.Issue")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order_id", input.OrderID),
		attribute.Int64("actor_id", input.ActorID),
	)

	inv, err := uc.issue(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.logger.Warn("invoice issuance rejected",
			zap.Int64("order_id", input.OrderID),
			zap.Int64("actor_id", input.ActorID),
			zap.Error(err),
		)
		return nil, err
	}
	span.SetAttributes(attribute.String("invoice_number", inv.Number))

	uc.logger.Info("invoice issued",
		zap.Int64("invoice_id", inv.ID),
		zap.String("number", inv.Number),
		zap.Int64("order_id", inv.OrderID),
		zap.String("total", inv.TotalFinal.StringFixed(2)),
	)
	uc.publish(ctx, events.TypeInvoiceIssued, inv.ID, inv, inv.CreatedAt)
	return inv, nil
}

func (uc *invoiceUseCase) issue(ctx context.Context, input *dto.IssueInput) (*model.Invoice, error) {
	o, err := uc.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order", "id", input.OrderID)
	}
	if err := requirePaid(o); err != nil {
		return nil, err
	}
	actor, err := uc.users.FindByID(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, apperr.NotFound("user", "id", input.ActorID)
	}
	existing, err := uc.repo.FindByOrderID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.DuplicateKey("invoice", "order_id", o.ID)
	}

	// Lines of a PAID order are frozen, so the key set read here stays valid.
	lines, err := uc.orders.FindLines(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.InvalidOperation("order %d has no lines to invoice", o.ID)
	}
	keys := make([]string, 0, len(lines)+1)
	keys = append(keys, lock.OrderKey(o.ID))
	for _, l := range lines {
		keys = append(keys, lock.ProductKey(l.ProductID))
	}
	unlock, err := uc.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var inv *model.Invoice
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Re-check under the locks: the order may have been cancelled or
		// invoiced while we were waiting.
		o, err := uc.orders.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if err := requirePaid(o); err != nil {
			return err
		}
		existing, err := uc.repo.FindByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.DuplicateKey("invoice", "order_id", o.ID)
		}

		reason := fmt.Sprintf("sale - order #%d", o.ID)
		for _, l := range lines {
			_, err := uc.inventory.ApplyMovement(ctx, &invDto.MovementInput{
				ProductID: l.ProductID,
				Kind:      model.MovementSale,
				Quantity:  l.Quantity,
				Reason:    reason,
				ActorID:   &actor.ID,
				OrderID:   &o.ID,
			})
			if err != nil {
				return err
			}
		}

		now := uc.clock()
		issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		seq, err := uc.repo.NextNumber(ctx, strconv.Itoa(issueDate.Year()))
		if err != nil {
			return err
		}

		inv = &model.Invoice{
			BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
			Number:     fmt.Sprintf("%s-%d-%06d", uc.prefix, issueDate.Year(), seq),
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			IssuedBy:   actor.ID,
			IssueDate:  issueDate,
			DueDate:    issueDate.AddDate(0, 0, uc.dueDays),
			Status:     model.InvoicePending,
			TotalBase:  o.TotalBase,
			TotalTax:   o.TotalTax,
			TotalFinal: o.TotalFinal,
			Notes:      optional(input.Notes),
		}
		if err := uc.repo.Create(ctx, inv); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.DuplicateKey("invoice", "order_id", o.ID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func requirePaid(o *model.Order) error {
	if o == nil {
		return apperr.InvalidOperation("order no longer exists")
	}
	if o.Status != model.OrderPaid {
		return apperr.InvalidOperation("only PAID orders may be invoiced, order %d is %s", o.ID, o.Status)
	}
	return nil
}

func (uc *invoiceUseCase) ChangeState(ctx context.Context, invoiceID int64, status model.InvoiceStatus) (*model.Invoice, error) {
	if !status.Valid() {
		return nil, apperr.InvalidOperation("unknown invoice status %q", status)
	}
	inv, err := uc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	from := inv.Status
	if !from.CanTransitionTo(status) {
		return nil, &apperr.TransitionError{Entity: "invoice", From: string(from), To: string(status)}
	}

	now := uc.clock()
	ok, err := uc.repo.UpdateStatus(ctx, inv.ID, from, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := uc.GetInvoice(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		return nil, &apperr.TransitionError{Entity: "invoice", From: string(current.Status), To: string(status)}
	}
	inv.Status = status
	inv.UpdatedAt = now

	uc.logger.Info("invoice state changed",
		zap.Int64("invoice_id", inv.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	uc.publish(ctx, events.TypeInvoiceStateChanged, inv.ID, map[string]any{
		"invoice_id": inv.ID,
		"number":     inv.Number,
		"from":       from,
		"to":         status,
	}, now)
	return inv, nil
}

func (uc *invoiceUseCase) GetInvoice(ctx context.Context, invoiceID int64) (*model.Invoice, error) {
	inv, err := uc.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("invoice", "id", invoiceID)
	}
	return inv, nil
}

func (uc *invoiceUseCase) ListInvoices(ctx context.Context, filters *dto.InvoiceFilters) ([]model.Invoice, int, error) {
	if filters == nil {
		filters = &dto.InvoiceFilters{}
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, apperr.InvalidOperation("unknown invoice status %q", filters.Status)
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, 0, apperr.InvalidOperation("from date is after to date")
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *invoiceUseCase) publish(ctx context.Context, eventType string, invoiceID int64, payload any, now time.Time) {
	e, err := events.New(eventType, fmt.Sprintf("invoice-%d", invoiceID), payload, now)
	if err == nil {
		err = uc.publisher.Publish(ctx, e)
	}
	if err != nil {
		uc.logger.Warn("failed to publish invoice event", zap.Int64("invoice_id", invoiceID), zap.String("event_type", eventType), zap.Error(err))
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
