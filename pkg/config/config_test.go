package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Kafka.Topics.CorpusIngest != "corpus-ingest" {
		t.Errorf("expected corpus-ingest topic, got %q", cfg.Kafka.Topics.CorpusIngest)
	}
	if cfg.Query.MaxWords != 1_000_000 {
		t.Errorf("expected max words 1000000, got %d", cfg.Query.MaxWords)
	}
	if cfg.Redis.Enabled || cfg.Kafka.Enabled || cfg.Postgres.Enabled {
		t.Error("expected external backends disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wd.yaml")
	content := `
server:
  port: 9999
redis:
  enabled: true
  cacheTTL: 30s
storage:
  dataDir: /var/lib/wd
query:
  maxWords: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected 9999, got %d", cfg.Server.Port)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("expected redis enabled with 30s ttl, got %+v", cfg.Redis)
	}
	if cfg.Storage.DataDir != "/var/lib/wd" {
		t.Errorf("expected data dir override, got %q", cfg.Storage.DataDir)
	}
	if cfg.Query.MaxWords != 50 {
		t.Errorf("expected 50, got %d", cfg.Query.MaxWords)
	}
	// untouched sections keep defaults
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected default shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WD_SERVER_PORT", "7070")
	t.Setenv("WD_KAFKA_ENABLED", "true")
	t.Setenv("WD_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WD_STORAGE_DATA_DIR", "/tmp/wd")
	t.Setenv("WD_LOGGING_LEVEL", "debug")
	t.Setenv("WD_SERVER_RATE_LIMIT", "120")
	t.Setenv("WD_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("WD_QUERY_SNAPSHOT_INTERVAL", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected 7070, got %d", cfg.Server.Port)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected kafka config %+v", cfg.Kafka)
	}
	if cfg.Storage.DataDir != "/tmp/wd" {
		t.Errorf("expected /tmp/wd, got %q", cfg.Storage.DataDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug, got %q", cfg.Logging.Level)
	}
	if cfg.Server.RateLimit != 120 || len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Query.SnapshotInterval != 30*time.Second {
		t.Errorf("expected 30s snapshot interval, got %v", cfg.Query.SnapshotInterval)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Query.MaxWords = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max words")
	}
	cfg = Default()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for kafka without brokers")
	}
	cfg = Default()
	cfg.Server.RateLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative rate limit")
	}
}
