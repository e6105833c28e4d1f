package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
server:
  port: "9090"
  mode: release
ai:
  model: mistral-small-latest
  temperature: 0.7
cache:
  driver: memory
  metrics_ttl_seconds: 300
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	dir := writeConfig(t, testYAML)

	_, err := LoadConfig(dir)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("AI_MODEL", "mistral-medium")
	dir := writeConfig(t, testYAML)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AI.APIKey != "test-key" {
		t.Fatalf("api key=%q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "mistral-medium" {
		t.Fatalf("model=%q", cfg.AI.Model)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port=%q", cfg.Server.Port)
	}
	if cfg.AI.MaxTokens != 1000 || cfg.AI.ImageModel != "mistral-large-latest" {
		t.Fatalf("defaults not applied: %+v", cfg.AI)
	}
	if cfg.Cache.MetricsTTL().Minutes() != 5 {
		t.Fatalf("ttl=%v", cfg.Cache.MetricsTTL())
	}
	if cfg.File == "" {
		t.Fatalf("config file path not recorded")
	}
}

func TestLoadConfigPrefixedNestedEnv(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "env-key")
	t.Setenv("CREATIVE_CACHE_MAX_ENTRIES", "42")
	t.Setenv("CREATIVE_RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("CREATIVE_AI_MAX_TOKENS", "321")
	dir := writeConfig(t, testYAML)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cache.MaxEntries != 42 {
		t.Fatalf("expected cache.max_entries from env, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.RateLimit.MaxRequests != 5 {
		t.Fatalf("expected rate_limit.max_requests from env, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.AI.MaxTokens != 321 {
		t.Fatalf("expected ai.max_tokens from env, got %d", cfg.AI.MaxTokens)
	}
}

func TestLoadConfigImageTokenRequiredWhenEnabled(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("HUGGINGFACE_TOKEN", "")
	dir := writeConfig(t, testYAML+"image:\n  enabled: true\n")

	_, err := LoadConfig(dir)
	if !errors.Is(err, ErrMissingImageToken) {
		t.Fatalf("expected ErrMissingImageToken, got %v", err)
	}
}

func TestValidateRejectsUnknownCacheDriver(t *testing.T) {
	cfg := Config{
		AI:    AIConfig{APIKey: "k", BaseURL: "http://x", Temperature: 0.7, ImageTemperature: 0.8, MaxTokens: 10},
		Cache: CacheConfig{Driver: "memcached", MetricsTTLSeconds: 300},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown cache driver")
	}

	cfg.Cache.Driver = CacheDriverRedis
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis driver should validate: %v", err)
	}
}
