package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("expected 1s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.ToleranceMeters != 500 {
		t.Fatalf("expected 500 m tolerance, got %v", cfg.ToleranceMeters)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.DBDriver)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_USER", "faculty")
	t.Setenv("ATTENDANCE_TZ", "Asia/Kolkata")

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.PollInterval)
	}
	if !strings.Contains(cfg.PostgresDSN(), "user=faculty") {
		t.Fatalf("unexpected dsn %q", cfg.PostgresDSN())
	}
	if cfg.Location().String() != "Asia/Kolkata" {
		t.Fatalf("expected Asia/Kolkata, got %v", cfg.Location())
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")

	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{DBDriver: "mysql", PollInterval: time.Second, ToleranceMeters: 500, Timezone: "UTC"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected driver error")
	}
}

func TestOSSEnabled(t *testing.T) {
	cfg := Config{OSSEndpoint: "oss-ap-southeast-5.aliyuncs.com", OSSAccessKey: "a", OSSSecretKey: "b"}
	if cfg.OSSEnabled() {
		t.Fatal("expected disabled without bucket")
	}
	cfg.OSSBucket = "captures"
	if !cfg.OSSEnabled() {
		t.Fatal("expected enabled")
	}
}

func TestDSNFollowsDriver(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", SQLitePath: "/tmp/a.db", DBHost: "db", DBPort: "5432", DBName: "attendance"}
	if cfg.DSN() != "/tmp/a.db" {
		t.Fatalf("expected sqlite path, got %q", cfg.DSN())
	}
	cfg.DBDriver = "postgres"
	if !strings.HasPrefix(cfg.DSN(), "host=db port=5432") {
		t.Fatalf("expected postgres dsn, got %q", cfg.DSN())
	}
}
