package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-sales-service/config"
	"github.com/fekuna/omnipos-sales-service/internal/app"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	invoiceDto "github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/invoice/listener"
	"github.com/fekuna/omnipos-sales-service/internal/lock"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/server"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists

	cliApp := &cli.App{
		Name:  "omnipos-sales",
		Usage: "orders, stock ledger and invoicing",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the gRPC server and the invoice request listener",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back database migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Action: migrateUp},
					{Name: "down", Action: migrateDown},
				},
			},
			{
				Name:   "stats",
				Usage:  "print the business statistics as JSON",
				Action: stats,
			},
			{
				Name:  "issue-invoice",
				Usage: "issue the invoice of a PAID order",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "order", Required: true},
					&cli.Int64Flag{Name: "actor", Required: true},
					&cli.StringFlag{Name: "notes"},
				},
				Action: issueInvoice,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type appRuntime struct {
	cfg    *config.Config
	logger logger.ZapLogger
	db     *sqlx.DB
}

func setup() (*appRuntime, error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	appLogger.Info("connected to database", zap.String("driver", cfg.Database.Driver))
	return &appRuntime{cfg: cfg, logger: appLogger, db: db}, nil
}

func (r *appRuntime) close() {
	_ = r.db.Close()
	_ = r.logger.Sync()
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return database.NewSQLite(database.SQLiteFileDSN(cfg.Database.SQLitePath))
	}
	return database.NewPostgres(&database.PostgresConfig{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

// services builds the use cases. The returned cleanup closes the lock and
// event backends.
func (r *appRuntime) services(ctx context.Context) (*app.Services, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if r.cfg.Lock.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     r.cfg.Redis.Addr,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		locker = lock.NewRedisLocker(client, lock.RedisConfig{
			TTL:        r.cfg.Lock.TTL,
			Retries:    r.cfg.Lock.Retries,
			RetryDelay: r.cfg.Lock.RetryDelay,
		}, r.logger)
		r.logger.Info("using redis locks", zap.String("addr", r.cfg.Redis.Addr))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if r.cfg.Kafka.Enabled {
		writer := events.NewKafkaWriter(r.cfg.Kafka.Brokers, r.cfg.Kafka.EventsTopic)
		cleanups = append(cleanups, func() { _ = writer.Close() })
		publisher = events.NewKafkaPublisher(writer)
		r.logger.Info("publishing events to kafka",
			zap.Strings("brokers", r.cfg.Kafka.Brokers),
			zap.String("topic", r.cfg.Kafka.EventsTopic),
		)
	}

	svc := app.NewServices(app.Options{
		DB:        r.db,
		Locker:    locker,
		Publisher: publisher,
		Logger:    r.logger,
		Billing:   r.cfg.Billing,
	})
	return svc, cleanup, nil
}

func serve(c *cli.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.cfg.Database.Migrate {
		if err := database.Migrate(rt.db); err != nil {
			return err
		}
		rt.logger.Info("database migrated")
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := rt.services(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if rt.cfg.Kafka.Enabled {
		reader := listener.NewKafkaReader(rt.cfg.Kafka.Brokers, rt.cfg.Kafka.RequestTopic, rt.cfg.Kafka.GroupID)
		defer reader.Close()
		go listener.NewInvoiceListener(reader, svc.Invoices, rt.logger).Start(ctx)
	}

	port := rt.cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", port, err)
	}

	srv := server.New(rt.logger)
	go srv.Watch(ctx, rt.db, 10*time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		rt.logger.Info("shutting down server...")
		srv.Stop()
		return nil
	case err := <-errCh:
		return fmt.Errorf("grpc server: %w", err)
	}
}

func migrateUp(*cli.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()
	if err := database.Migrate(rt.db); err != nil {
		return err
	}
	rt.logger.Info("database migrated")
	return nil
}

func migrateDown(*cli.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()
	if err := database.MigrateDown(rt.db); err != nil {
		return err
	}
	rt.logger.Info("database rolled back")
	return nil
}

func stats(c *cli.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	svc, cleanup, err := rt.services(c.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := svc.Reports.Statistics(c.Context)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func issueInvoice(c *cli.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	svc, cleanup, err := rt.services(c.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	inv, err := svc.Invoices.Issue(c.Context, &invoiceDto.IssueInput{
		OrderID: c.Int64("order"),
		ActorID: c.Int64("actor"),
		Notes:   c.String("notes"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s issued for order %d, total %s, due %s\n",
		inv.Number, inv.OrderID, inv.TotalFinal.StringFixed(2), inv.DueDate.Format(time.DateOnly))
	return nil
}
