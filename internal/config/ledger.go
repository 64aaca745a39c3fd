package config

import (
	"os"
	"strconv"
	"time"
)

type LedgerConfig struct {
	StoreTimeout     time.Duration
	ShortIDPrefix    string
	ShortIDAttempts  int
	BalanceCacheTTL  time.Duration
	AliasCacheTTL    time.Duration
	DefaultPageSize  int
	MaxPageSize      int
	SweepEnabled     bool
	SweepSchedule    string
	SweepBatchSize   int
	SweepTimeout     time.Duration
	EventQueue       string
	ReceiptImageSize int
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		StoreTimeout:     getEnvAsDuration("LEDGER_STORE_TIMEOUT", 5*time.Second),
		ShortIDPrefix:    getEnv("LEDGER_SHORT_ID_PREFIX", "GYM"),
		ShortIDAttempts:  getEnvAsInt("LEDGER_SHORT_ID_ATTEMPTS", 5),
		BalanceCacheTTL:  getEnvAsDuration("LEDGER_BALANCE_CACHE_TTL", 30*time.Second),
		AliasCacheTTL:    getEnvAsDuration("LEDGER_ALIAS_CACHE_TTL", 24*time.Hour),
		DefaultPageSize:  getEnvAsInt("LEDGER_DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:      getEnvAsInt("LEDGER_MAX_PAGE_SIZE", 100),
		SweepEnabled:     getEnvAsBool("LEDGER_SWEEP_ENABLED", false),
		SweepSchedule:    getEnv("LEDGER_SWEEP_SCHEDULE", "0 30 3 * * *"),
		SweepBatchSize:   getEnvAsInt("LEDGER_SWEEP_BATCH_SIZE", 200),
		SweepTimeout:     getEnvAsDuration("LEDGER_SWEEP_TIMEOUT", 30*time.Minute),
		EventQueue:       getEnv("LEDGER_EVENT_QUEUE", "ledger_events"),
		ReceiptImageSize: getEnvAsInt("LEDGER_RECEIPT_SIZE", 256),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
