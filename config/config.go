package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Lock     LockConfig
	Billing  BillingConfig
}

type ServerConfig struct {
	AppEnv   string `split_words:"true" default:"dev"`
	GRPCPort string `split_words:"true" default:":8083"`
}

type LoggerConfig struct {
	Level             string `split_words:"true" default:"debug"`
	Encoding          string `split_words:"true" default:"console"`
	DisableCaller     bool   `split_words:"true" default:"false"`
	DisableStacktrace bool   `split_words:"true" default:"true"`
}

// DatabaseConfig selects the SQL backend. "sqlite" is meant for local runs.
type DatabaseConfig struct {
	Driver     string `split_words:"true" default:"postgres"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"omnipos_sales.db"`
	Migrate    bool   `split_words:"true" default:"true"`
}

type PostgresConfig struct {
	Host            string `split_words:"true" default:"localhost"`
	Port            string `split_words:"true" default:"5433"`
	User            string `split_words:"true" default:"omnipos"`
	Password        string `split_words:"true" default:"omnipos"`
	DBName          string `split_words:"true" default:"omnipos_sales"`
	SSLMode         string `split_words:"true" default:"disable"`
	MaxOpenConns    int    `split_words:"true" default:"10"`
	MaxIdleConns    int    `split_words:"true" default:"5"`
	ConnMaxLifetime int    `split_words:"true" default:"300"`
	ConnMaxIdleTime int    `split_words:"true" default:"60"`
}

type RedisConfig struct {
	Addr     string `split_words:"true" default:"localhost:6379"`
	Password string `split_words:"true" default:""`
	DB       int    `split_words:"true" default:"0"`
}

type KafkaConfig struct {
	Enabled      bool     `split_words:"true" default:"false"`
	Brokers      []string `split_words:"true" default:"localhost:9092"`
	EventsTopic  string   `split_words:"true" default:"sales.events"`
	RequestTopic string   `split_words:"true" default:"invoice.requests"`
	GroupID      string   `split_words:"true" default:"invoicing"`
}

// LockConfig chooses between in-process locks and Redis locks shared by all instances.
type LockConfig struct {
	Backend    string        `split_words:"true" default:"local"`
	TTL        time.Duration `split_words:"true" default:"5s"`
	Retries    int           `split_words:"true" default:"30"`
	RetryDelay time.Duration `split_words:"true" default:"100ms"`
}

type BillingConfig struct {
	InvoicePrefix        string `split_words:"true" default:"FAC"`
	InvoiceDueDays       int    `split_words:"true" default:"30"`
	LowStockThreshold    int    `split_words:"true" default:"10"`
	RecentMovementsLimit int    `split_words:"true" default:"20"`
}

// LoadEnv reads the configuration from the environment. Nested sections are
// prefixed with their field name, e.g. POSTGRES_HOST or BILLING_INVOICE_DUE_DAYS.
// split_words keeps generic names such as USER or PORT from being read unprefixed.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch c.Lock.Backend {
	case "local", "redis":
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Billing.LowStockThreshold < 0 {
		return fmt.Errorf("BILLING_LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.Billing.InvoiceDueDays < 0 {
		return fmt.Errorf("BILLING_INVOICE_DUE_DAYS must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}
