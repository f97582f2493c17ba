package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration shared by the API and the worker.
type Config struct {
	OrdersTable      string
	TablesTable      string
	IdempotencyTable string
	PrintQueueURL    string
	PrintHelperURL   string
	ReceiptBucket    string
	AMQPURL          string
	RunLocal         bool
	Port             string
	IdempotencyTTL   time.Duration
	CORSOrigins      []string
	MetricsNamespace string
}

// Load reads .env when present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("[config] .env not loaded:", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() Config {
	return Config{
		OrdersTable:      getEnvOrDefault("ORDERS_TABLE", "orders"),
		TablesTable:      getEnvOrDefault("TABLES_TABLE", "tables"),
		IdempotencyTable: getEnvOrDefault("IDEMPOTENCY_TABLE", "idempotency"),
		PrintQueueURL:    getEnvOrDefault("PRINT_QUEUE_URL", ""),
		PrintHelperURL:   getEnvOrDefault("PRINT_HELPER_URL", "http://localhost:8090"),
		ReceiptBucket:    getEnvOrDefault("RECEIPT_BUCKET", ""),
		AMQPURL:          getEnvOrDefault("AMQP_URL", ""),
		RunLocal:         getEnvOrDefault("RUN_LOCAL", "") == "true",
		Port:             getEnvOrDefault("PORT", "8080"),
		IdempotencyTTL:   getDurationEnv("IDEMPOTENCY_TTL_HOURS", 48, time.Hour),
		CORSOrigins:      getListEnv("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		MetricsNamespace: getEnvOrDefault("METRICS_NAMESPACE", "POS/Printing"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

// getListEnv splits a comma separated value, dropping blanks.
func getListEnv(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
