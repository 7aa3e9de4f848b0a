package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress             string
	DatabaseURI            string
	CatalogAddress         string
	AuthSecret             string
	TaxRate                decimal.Decimal
	CriticalStockThreshold int
	StoreTimeout           time.Duration
	KafkaBrokers           []string
	EventsTopic            string
	RelayInterval          time.Duration
	RelayBatch             int
	WorkerPoolSize         int
	ShutdownTimeout        time.Duration
	LogLevel               slog.Level
}

const (
	defaultRunAddress             = ":8080"
	defaultAuthSecret             = "change-me-in-production"
	defaultTaxRate                = "0.02"
	defaultCriticalStockThreshold = 3
	defaultStoreTimeout           = 5 * time.Second
	defaultEventsTopic            = "order-lifecycle"
	defaultRelayInterval          = 2 * time.Second
	defaultRelayBatch             = 32
	defaultWorkerPoolSize         = 4
	defaultShutdownTimeout        = 10 * time.Second
	defaultLogLevel               = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:             getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:            getString(lookup, "DATABASE_URI", ""),
		CatalogAddress:         getString(lookup, "CATALOG_ADDRESS", ""),
		AuthSecret:             getString(lookup, "AUTH_SECRET", defaultAuthSecret),
		CriticalStockThreshold: getInt(lookup, "CRITICAL_STOCK_THRESHOLD", defaultCriticalStockThreshold),
		StoreTimeout:           getDuration(lookup, "STORE_TIMEOUT", defaultStoreTimeout),
		EventsTopic:            getString(lookup, "EVENTS_TOPIC", defaultEventsTopic),
		RelayInterval:          getDuration(lookup, "RELAY_INTERVAL", defaultRelayInterval),
		RelayBatch:             getInt(lookup, "RELAY_BATCH_SIZE", defaultRelayBatch),
		WorkerPoolSize:         getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:        getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("posorder", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		taxRateStr         = getString(lookup, "TAX_RATE", defaultTaxRate)
		brokersStr         = getString(lookup, "KAFKA_BROKERS", "")
		logLevelStr        = getString(lookup, "LOG_LEVEL", defaultLogLevel)
		storeTimeoutStr    = cfg.StoreTimeout.String()
		relayIntervalStr   = cfg.RelayInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CatalogAddress, "c", cfg.CatalogAddress, "Catalog service base URL")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for verifying staff tokens")
	fs.StringVar(&taxRateStr, "tax-rate", taxRateStr, "Tax rate applied to the discounted base")
	fs.IntVar(&cfg.CriticalStockThreshold, "critical-stock", cfg.CriticalStockThreshold, "Remaining stock reported as critical")
	fs.StringVar(&storeTimeoutStr, "store-timeout", storeTimeoutStr, "Timeout of a single record store call")
	fs.StringVar(&brokersStr, "kafka-brokers", brokersStr, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.EventsTopic, "events-topic", cfg.EventsTopic, "Topic for order lifecycle events")
	fs.StringVar(&relayIntervalStr, "relay-interval", relayIntervalStr, "Interval between outbox polls")
	fs.IntVar(&cfg.RelayBatch, "relay-batch", cfg.RelayBatch, "Maximum events per outbox poll")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent relay workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&logLevelStr, "log-level", logLevelStr, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TaxRate, err = decimal.NewFromString(taxRateStr); err != nil {
		return nil, fmt.Errorf("invalid tax rate: %w", err)
	}

	if cfg.StoreTimeout, err = time.ParseDuration(storeTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid store timeout: %w", err)
	}

	if cfg.RelayInterval, err = time.ParseDuration(relayIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid relay interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if err = cfg.LogLevel.UnmarshalText([]byte(logLevelStr)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg.KafkaBrokers = splitList(brokersStr)

	if secretFile, ok := lookup("AUTH_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.RelayBatch <= 0 {
		cfg.RelayBatch = defaultRelayBatch
	}

	if cfg.RelayInterval <= 0 {
		cfg.RelayInterval = defaultRelayInterval
	}

	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.CriticalStockThreshold < 0 {
		cfg.CriticalStockThreshold = defaultCriticalStockThreshold
	}

	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be in [0, 1), got %s", cfg.TaxRate)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(csv string) []string {
	var out []string
	for _, item := range strings.Split(csv, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
