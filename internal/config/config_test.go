package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Ledger.Backend != BackendCSV || cfg.Discovery != DiscoverySections || cfg.Layout.Folders != "long" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Fetch.MinDelay != time.Second || cfg.Fetch.MaxDelay != 3*time.Second {
		t.Fatalf("unexpected politeness delay: %s..%s", cfg.Fetch.MinDelay, cfg.Fetch.MaxDelay)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(outputEnv, "")
	t.Setenv(ledgerPathEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(userAgentEnv, "")

	path := writeConfig(t, `
output: /srv/papers
ledger:
  backend: sqlite
  path: /srv/papers/ledger.db
layout:
  folders: short
fetch:
  maxRetries: 5
  minDelay: 500ms
  maxDelay: 2s
discovery: page
logging:
  format: json
boards:
  - key: wjec_alevel
    board: wjec
    level: alevel
    url: https://example.test/wjec/
    sections:
      - name: Unit 3
        paper: 3
        anchor: unit-3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Output != "/srv/papers" || cfg.Ledger.Backend != BackendSQLite || cfg.Ledger.Path != "/srv/papers/ledger.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Layout.Folders != "short" || cfg.Discovery != DiscoveryPage || cfg.Logging.Format != "json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Fetch.MaxRetries != 5 || cfg.Fetch.MinDelay != 500*time.Millisecond || cfg.Fetch.MaxDelay != 2*time.Second {
		t.Fatalf("fetch values not applied: %+v", cfg.Fetch)
	}
	if cfg.Fetch.UserAgent != defaultUserAgent || cfg.Logging.Level != "info" {
		t.Fatalf("unset values should keep defaults: %+v", cfg)
	}
	if len(cfg.Boards) != 1 || cfg.Boards[0].Sections[0].Anchor != "unit-3" {
		t.Fatalf("boards not loaded: %+v", cfg.Boards)
	}
}

func TestLoadSingleDelayBoundKeepsRangeOrdered(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cases := map[string]struct {
		body     string
		min, max time.Duration
	}{
		"min above default max": {"fetch:\n  minDelay: 5s\n", 5 * time.Second, 5 * time.Second},
		"min below default max": {"fetch:\n  minDelay: 2s\n", 2 * time.Second, 3 * time.Second},
		"max below default min": {"fetch:\n  maxDelay: 500ms\n", 500 * time.Millisecond, 500 * time.Millisecond},
	}
	for name, tc := range cases {
		cfg, err := Load(writeConfig(t, tc.body))
		if err != nil {
			t.Fatalf("%s: Load error: %v", name, err)
		}
		if cfg.Fetch.MinDelay != tc.min || cfg.Fetch.MaxDelay != tc.max {
			t.Fatalf("%s: got %s..%s, want %s..%s", name, cfg.Fetch.MinDelay, cfg.Fetch.MaxDelay, tc.min, tc.max)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: config should validate: %v", name, err)
		}
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output: /from/file\n")
	t.Setenv(configPathEnv, path)
	t.Setenv(outputEnv, "/from/env")
	t.Setenv(ledgerPathEnv, "/env/ledger.csv")
	t.Setenv(logLevelEnv, "warn")
	t.Setenv(userAgentEnv, "test-agent")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Output != "/from/env" || cfg.Ledger.Path != "/env/ledger.csv" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Logging.Level != "warn" || cfg.Fetch.UserAgent != "test-agent" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(outputEnv, "")
	t.Setenv(ledgerPathEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(userAgentEnv, "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "output: [unterminated\n")); err == nil {
		t.Fatalf("expected YAML parse error")
	}
	if _, err := Load(writeConfig(t, "ledger:\n  backend: postgres\n")); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"backend":   func(c *Config) { c.Ledger.Backend = "json" },
		"discovery": func(c *Config) { c.Discovery = "crawl" },
		"folders":   func(c *Config) { c.Layout.Folders = "tiny" },
		"negative":  func(c *Config) { c.Fetch.MinDelay = -time.Second },
		"inverted":  func(c *Config) { c.Fetch.MinDelay, c.Fetch.MaxDelay = 5*time.Second, time.Second },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
