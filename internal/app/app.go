// Package app wires repositories and use cases into one set of services.
package app

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/config"
	"github.com/fekuna/omnipos-sales-service/internal/customer"
	customerRepo "github.com/fekuna/omnipos-sales-service/internal/customer/repository"
	customerUC "github.com/fekuna/omnipos-sales-service/internal/customer/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	inventoryRepo "github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	inventoryUC "github.com/fekuna/omnipos-sales-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/invoice"
	invoiceRepo "github.com/fekuna/omnipos-sales-service/internal/invoice/repository"
	invoiceUC "github.com/fekuna/omnipos-sales-service/internal/invoice/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	orderRepo "github.com/fekuna/omnipos-sales-service/internal/order/repository"
	orderUC "github.com/fekuna/omnipos-sales-service/internal/order/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	productRepo "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	productUC "github.com/fekuna/omnipos-sales-service/internal/product/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/report"
	reportRepo "github.com/fekuna/omnipos-sales-service/internal/report/repository"
	reportUC "github.com/fekuna/omnipos-sales-service/internal/report/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/user"
	userRepo "github.com/fekuna/omnipos-sales-service/internal/user/repository"
	userUC "github.com/fekuna/omnipos-sales-service/internal/user/usecase"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	Customers customer.UseCase
	Users     user.UseCase
	Products  product.UseCase
	Inventory inventory.UseCase
	Orders    order.UseCase
	Invoices  invoice.UseCase
	Reports   report.UseCase
}

type Options struct {
	DB        *sqlx.DB
	Locker    lock.Locker
	Publisher events.Publisher
	Logger    logger.ZapLogger
	Billing   config.BillingConfig
	Clock     func() time.Time
}

func NewServices(opts Options) *Services {
	db := opts.DB
	tx := database.NewTxManager(db)

	users := userRepo.NewPGRepository(db)
	customers := customerRepo.NewPGRepository(db)
	products := productRepo.NewPGRepository(db)
	orders := orderRepo.NewPGRepository(db)

	inv := inventoryUC.NewInventoryUseCase(inventoryUC.Deps{
		Repo:        inventoryRepo.NewPGRepository(db),
		Users:       users,
		Tx:          tx,
		Locker:      opts.Locker,
		Publisher:   opts.Publisher,
		Logger:      opts.Logger,
		RecentLimit: opts.Billing.RecentMovementsLimit,
		Clock:       opts.Clock,
	})

	return &Services{
		Customers: customerUC.NewCustomerUseCase(customers, opts.Logger),
		Users:     userUC.NewUserUseCase(users, opts.Logger),
		Products:  productUC.NewProductUseCase(products, inv, tx, opts.Logger),
		Inventory: inv,
		Orders: orderUC.NewOrderUseCase(orderUC.Deps{
			Repo:      orders,
			Products:  products,
			Customers: customers,
			Users:     users,
			Tx:        tx,
			Locker:    opts.Locker,
			Publisher: opts.Publisher,
			Logger:    opts.Logger,
			Clock:     opts.Clock,
		}),
		Invoices: invoiceUC.NewInvoiceUseCase(invoiceUC.Deps{
			Repo:      invoiceRepo.NewPGRepository(db),
			Orders:    orders,
			Users:     users,
			Inventory: inv,
			Tx:        tx,
			Locker:    opts.Locker,
			Publisher: opts.Publisher,
			Logger:    opts.Logger,
			Prefix:    opts.Billing.InvoicePrefix,
			DueDays:   opts.Billing.InvoiceDueDays,
			Clock:     opts.Clock,
		}),
		Reports: reportUC.NewReportUseCase(reportUC.Deps{
			Repo:              reportRepo.NewPGRepository(db),
			Logger:            opts.Logger,
			LowStockThreshold: opts.Billing.LowStockThreshold,
			Clock:             opts.Clock,
		}),
	}
}
