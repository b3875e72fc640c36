package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeFile(t, "config.yaml", `
providers:
  anthropic:
    api_key: sk-ant-test
run:
  max_concurrency: 5
  retry_limit: 1
  backoff: 250ms
  overall_deadline: 2m
scoring:
  quality: 0.6
  latency: 0.25
  cost: 0.15
stats:
  endpoint: http://localhost:9090/stats
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-ant-test" {
		t.Errorf("api key = %q", cfg.Providers.Anthropic.APIKey)
	}
	if cfg.Run.MaxConcurrency != 5 || cfg.Run.RetryLimit != 1 {
		t.Errorf("run config = %+v", cfg.Run)
	}
	if cfg.Run.Backoff != 250*time.Millisecond {
		t.Errorf("backoff = %v", cfg.Run.Backoff)
	}
	if cfg.Run.OverallDeadline != 2*time.Minute {
		t.Errorf("overall deadline = %v", cfg.Run.OverallDeadline)
	}
	if cfg.Scoring.Quality != 0.6 {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}
	if cfg.Stats.Endpoint != "http://localhost:9090/stats" {
		t.Errorf("stats endpoint = %q", cfg.Stats.Endpoint)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "providers:\n  openai:\n    api_key: sk-test\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Run.MaxConcurrency != 3 {
		t.Errorf("default max_concurrency = %d", cfg.Run.MaxConcurrency)
	}
	if cfg.Run.NodeDeadline != 60*time.Second {
		t.Errorf("default node_deadline = %v", cfg.Run.NodeDeadline)
	}
	if cfg.Scoring.Quality != 0.5 || cfg.Scoring.Latency != 0.3 || cfg.Scoring.Cost != 0.2 {
		t.Errorf("default scoring = %+v", cfg.Scoring)
	}
}

func TestLoadFromPathExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_ARBITER_KEY", "sk-from-env")
	path := writeFile(t, "config.yaml", "providers:\n  anthropic:\n    api_key: ${TEST_ARBITER_KEY}\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-from-env" {
		t.Errorf("api key = %q, want expansion", cfg.Providers.Anthropic.APIKey)
	}
}

func TestScoringWeights(t *testing.T) {
	zero := ScoringConfig{}
	if w := zero.Weights(); w != (ScoringConfig{Quality: 0.5, Latency: 0.3, Cost: 0.2}).Weights() {
		t.Errorf("zero scoring should fall back to defaults, got %+v", w)
	}

	custom := ScoringConfig{Quality: 0.8, Latency: 0.1, Cost: 0.1}
	w := custom.Weights()
	if w.Quality != 0.8 || w.Latency != 0.1 || w.Cost != 0.1 {
		t.Errorf("weights = %+v", w)
	}
}

func TestGetAnthropicKeyPrecedence(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	cfg := &Config{}
	cfg.Providers.Anthropic.APIKey = "sk-ant-file"

	key, err := GetAnthropicKey(cfg)
	if err != nil {
		t.Fatalf("GetAnthropicKey failed: %v", err)
	}
	if key != "sk-ant-env" {
		t.Errorf("key = %q, want environment to win", key)
	}
	if src := AnthropicKeySource(cfg); src != KeySourceEnv {
		t.Errorf("source = %s", src)
	}
}

func TestGetKeyMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := GetOpenAIKey(&Config{}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"sk-ant-1234567890abcdef", "sk-ant...cdef"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
