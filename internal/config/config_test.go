package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ORDERS_TABLE", "IDEMPOTENCY_TTL_HOURS", "CORS_ORIGINS", "RUN_LOCAL", "PORT", "AMQP_URL"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.OrdersTable != "orders" || cfg.Port != "8080" || cfg.RunLocal || cfg.AMQPURL != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("expected 48h ttl, got %s", cfg.IdempotencyTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected default origins, got %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ORDERS_TABLE", " pos-orders ")
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "6")
	t.Setenv("CORS_ORIGINS", "https://pos.example.com, ,https://kds.example.com")
	t.Setenv("RUN_LOCAL", "true")

	cfg := FromEnv()
	if cfg.OrdersTable != "pos-orders" {
		t.Fatalf("expected trimmed table name, got %q", cfg.OrdersTable)
	}
	if cfg.IdempotencyTTL != 6*time.Hour {
		t.Fatalf("expected 6h, got %s", cfg.IdempotencyTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://kds.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if !cfg.RunLocal {
		t.Fatalf("expected RunLocal")
	}

	t.Setenv("IDEMPOTENCY_TTL_HOURS", "-3")
	if got := FromEnv().IdempotencyTTL; got != 48*time.Hour {
		t.Fatalf("invalid ttl should fall back to default, got %s", got)
	}
}
