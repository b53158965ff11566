package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatalf("expected error for explicit missing config file, got %+v", cfg)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  "server": {"address": ":9000", "auth_enabled": true, "jwt_secret": "s3cret"},
  "analysis": {"max_workers": 8},
  "storage": {"postgres": {"host": "db", "dbname": "forensight"}}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Analysis.MaxWorkers != 8 {
		t.Fatalf("unexpected workers: %d", cfg.Analysis.MaxWorkers)
	}
	if cfg.JWTSecret() != "s3cret" {
		t.Fatalf("unexpected secret resolution: %q", cfg.JWTSecret())
	}
	// Defaults still apply for anything the file omits.
	if cfg.Analysis.FrameStrideSeconds != 2.0 {
		t.Fatalf("unexpected stride default: %v", cfg.Analysis.FrameStrideSeconds)
	}
	if cfg.Analysis.EvidenceCharLimit != 25000 {
		t.Fatalf("unexpected evidence cap default: %v", cfg.Analysis.EvidenceCharLimit)
	}
	if cfg.Providers.Ledger.ChainID != "STUB_TESTNET" {
		t.Fatalf("unexpected chain default: %v", cfg.Providers.Ledger.ChainID)
	}
	if cfg.Providers.LLM.Timeout != 120*time.Second {
		t.Fatalf("unexpected llm timeout default: %v", cfg.Providers.LLM.Timeout)
	}

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	if dsn != "postgres://:@db:5432/forensight?sslmode=disable" {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestValidateRejectsAuthWithoutSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server": {"auth_enabled": true}, "analysis": {"max_workers": 2}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for auth without secret")
	}
}
