package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"Backstage_Jobs/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Addr:    ":8080",
		Env:     "production",
		MySQL:   config.MySQLConfig{DSN: "u:p@tcp(db:3306)/jobs"},
		JWT:     config.JWTConfig{AccessSecret: "strong-access", RefreshSecret: "strong-refresh", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		Tracker: config.TrackerConfig{Workers: 2, QueueSize: 16},
	}
}

func TestValidate_InsecureJWT_FailsOutsideDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "backstage-dev-secret"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for default jwt secret in production")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "development"
	cfg.JWT.AccessSecret = "backstage-dev-secret"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development, got: %v", err)
	}
}

func TestValidate_RejectsMissingDSNAndWorkers(t *testing.T) {
	cfg := validConfig()
	cfg.MySQL.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail without mysql.dsn")
	}

	cfg = validConfig()
	cfg.Tracker.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail with zero tracker workers")
	}
}

func TestValidate_FillsOutboxAndCacheDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}
	if cfg.Outbox.BatchSize != 200 || cfg.Outbox.Interval != time.Second || cfg.Outbox.MaxRetry != 5 {
		t.Fatalf("outbox defaults not populated: %+v", cfg.Outbox)
	}
	if cfg.Cache.CategoryTTL != 10*time.Minute {
		t.Fatalf("category ttl default = %v", cfg.Cache.CategoryTTL)
	}
}

func TestLoadConfig_EnvThenFile(t *testing.T) {
	t.Setenv("BACKSTAGE_ADDR", ":9090")
	t.Setenv("BACKSTAGE_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("BACKSTAGE_TRACKER_WORKERS", "4")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Tracker.Workers != 4 {
		t.Fatalf("workers = %d", cfg.Tracker.Workers)
	}

	path := filepath.Join(t.TempDir(), "backstage.yaml")
	body := []byte("addr: \":7070\"\nenv: production\ntracker:\n  workers: 8\n  queue_size: 32\njwt:\n  access_ttl: 5m\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err = config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig(file): %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Env != "production" {
		t.Fatalf("file values not applied: addr=%q env=%q", cfg.Addr, cfg.Env)
	}
	if cfg.Tracker.Workers != 8 || cfg.Tracker.QueueSize != 32 {
		t.Fatalf("tracker = %+v", cfg.Tracker)
	}
	if cfg.JWT.AccessTTL != 5*time.Minute {
		t.Fatalf("access ttl = %v", cfg.JWT.AccessTTL)
	}
	// keys absent from the file keep their env/default values
	if cfg.JWT.RefreshTTL != 24*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.JWT.RefreshTTL)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
