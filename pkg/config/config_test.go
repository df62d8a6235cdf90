package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 || cfg.Build.Shards != 4 || cfg.Search.DefaultMethod != "bm25" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  readTimeout: 10s
index:
  dir: /var/lib/vinf/index
build:
  minDocTokens: 5
  shards: 8
search:
  defaultMethod: tfidf
redis:
  cacheTTL: 2m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("readTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Index.Dir != "/var/lib/vinf/index" {
		t.Errorf("index dir = %q", cfg.Index.Dir)
	}
	if cfg.Build.MinDocTokens != 5 || cfg.Build.Shards != 8 {
		t.Errorf("build = %+v", cfg.Build)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Build.MinTokenLen != 2 {
		t.Errorf("minTokenLen = %d, want default 2", cfg.Build.MinTokenLen)
	}
	if cfg.Search.DefaultMethod != "tfidf" {
		t.Errorf("defaultMethod = %q", cfg.Search.DefaultMethod)
	}
	if cfg.Redis.CacheTTL != 2*time.Minute {
		t.Errorf("cacheTTL = %v", cfg.Redis.CacheTTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VINF_SERVER_PORT", "7777")
	t.Setenv("VINF_INDEX_DIR", "/tmp/idx")
	t.Setenv("VINF_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Index.Dir != "/tmp/idx" {
		t.Errorf("index dir = %q", cfg.Index.Dir)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("kafka = %+v, want enabled with 2 brokers", cfg.Kafka)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"negative minDocTokens", func(c *Config) { c.Build.MinDocTokens = -1 }},
		{"zero minTokenLen", func(c *Config) { c.Build.MinTokenLen = 0 }},
		{"zero shards", func(c *Config) { c.Build.Shards = 0 }},
		{"zero defaultLimit", func(c *Config) { c.Search.DefaultLimit = 0 }},
		{"maxResults below defaultLimit", func(c *Config) { c.Search.MaxResults = 3; c.Search.DefaultLimit = 5 }},
		{"unknown defaultMethod", func(c *Config) { c.Search.DefaultMethod = "pagerank" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, apperrors.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		Database: "corpus", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=corpus sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
