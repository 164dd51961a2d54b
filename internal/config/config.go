package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "EXAMPAPERS_CONFIG"
	outputEnv     = "EXAMPAPERS_OUTPUT"
	ledgerPathEnv = "EXAMPAPERS_LEDGER"
	logLevelEnv   = "EXAMPAPERS_LOG_LEVEL"
	userAgentEnv  = "EXAMPAPERS_USER_AGENT"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultReferer   = "https://www.physicsandmathstutor.com/"
)

// Ledger backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Discovery modes.
const (
	DiscoverySections = "sections"
	DiscoveryPage     = "page"
)

// Config holds high-level settings required across the application.
type Config struct {
	Output         string         `yaml:"output"`
	Ledger         LedgerConfig   `yaml:"ledger"`
	Layout         LayoutConfig   `yaml:"layout"`
	Fetch          FetchConfig    `yaml:"fetch"`
	SkipValidation bool           `yaml:"skipValidation"`
	Discovery      string         `yaml:"discovery"`
	Logging        LoggingConfig  `yaml:"logging"`
	Schedule       ScheduleConfig `yaml:"schedule"`
	Boards         []BoardConfig  `yaml:"boards"`
}

// LedgerConfig locates the download ledger and picks its storage backend.
type LedgerConfig struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"`
}

// LayoutConfig selects the content-type folder naming convention
// ("long": question_papers/mark_schemes, "short": qp/ms).
type LayoutConfig struct {
	Folders string `yaml:"folders"`
}

// FetchConfig tunes page fetches and file transfers.
type FetchConfig struct {
	UserAgent      string        `yaml:"userAgent"`
	Referer        string        `yaml:"referer"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"maxRetries"`
	InitialBackoff time.Duration `yaml:"initialBackoff"`
	MaxBackoff     time.Duration `yaml:"maxBackoff"`
	MinDelay       time.Duration `yaml:"minDelay"`
	MaxDelay       time.Duration `yaml:"maxDelay"`
}

// setDelays overrides the politeness delay bounds. A zero bound keeps its
// current value, and when only one bound is given the other one moves with it
// so the range stays ordered.
func (f *FetchConfig) setDelays(minDelay, maxDelay time.Duration) {
	if minDelay > 0 {
		f.MinDelay = minDelay
	}
	if maxDelay > 0 {
		f.MaxDelay = maxDelay
	}
	switch {
	case minDelay > 0 && maxDelay <= 0:
		f.MaxDelay = max(f.MaxDelay, f.MinDelay)
	case maxDelay > 0 && minDelay <= 0:
		f.MinDelay = min(f.MinDelay, f.MaxDelay)
	}
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScheduleConfig defines when the scheduled sync should run.
type ScheduleConfig struct {
	CronExpression string `yaml:"cronExpression"`
	Boards         string `yaml:"boards"`
}

// BoardConfig declares an extra board profile in YAML.
type BoardConfig struct {
	Key       string               `yaml:"key"`
	Name      string               `yaml:"name"`
	Board     string               `yaml:"board"`
	Level     string               `yaml:"level"`
	URL       string               `yaml:"url"`
	HrefToken string               `yaml:"hrefToken"`
	Sections  []SectionConfig      `yaml:"sections"`
	Identity  []IdentityRuleConfig `yaml:"identity"`
}

// SectionConfig declares one paper section of a YAML board.
type SectionConfig struct {
	Name         string   `yaml:"name"`
	Paper        int      `yaml:"paper"`
	Anchor       string   `yaml:"anchor"`
	HeadingTitle string   `yaml:"headingTitle"`
	ContentTypes []string `yaml:"contentTypes"`
	Subtypes     []string `yaml:"subtypes"`
}

// IdentityRuleConfig is the YAML form of a paper identity rule.
type IdentityRuleConfig struct {
	Kind      string   `yaml:"kind"`
	Pattern   string   `yaml:"pattern"`
	Lowercase bool     `yaml:"lowercase"`
	Paper     int      `yaml:"paper"`
	Contains  []string `yaml:"contains"`
	Excludes  []string `yaml:"excludes"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over EXAMPAPERS_CONFIG. Values from .env files are
// loaded into the environment first.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend)
	}
	switch c.Discovery {
	case DiscoverySections, DiscoveryPage:
	default:
		return fmt.Errorf("config: unknown discovery mode %q", c.Discovery)
	}
	switch c.Layout.Folders {
	case "long", "short":
	default:
		return fmt.Errorf("config: unknown folder convention %q", c.Layout.Folders)
	}
	if c.Fetch.MinDelay < 0 || c.Fetch.MaxDelay < c.Fetch.MinDelay {
		return fmt.Errorf("config: invalid politeness delay range %s..%s", c.Fetch.MinDelay, c.Fetch.MaxDelay)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(outputEnv); v != "" {
		c.Output = v
	}

	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(userAgentEnv); v != "" {
		c.Fetch.UserAgent = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Output != "" {
		base.Output = override.Output
	}

	if override.Ledger.Path != "" {
		base.Ledger.Path = override.Ledger.Path
	}
	if override.Ledger.Backend != "" {
		base.Ledger.Backend = override.Ledger.Backend
	}

	if override.Layout.Folders != "" {
		base.Layout.Folders = override.Layout.Folders
	}

	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.Referer != "" {
		base.Fetch.Referer = override.Fetch.Referer
	}
	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.MaxRetries > 0 {
		base.Fetch.MaxRetries = override.Fetch.MaxRetries
	}
	if override.Fetch.InitialBackoff > 0 {
		base.Fetch.InitialBackoff = override.Fetch.InitialBackoff
	}
	if override.Fetch.MaxBackoff > 0 {
		base.Fetch.MaxBackoff = override.Fetch.MaxBackoff
	}
	base.Fetch.setDelays(override.Fetch.MinDelay, override.Fetch.MaxDelay)

	if override.SkipValidation {
		base.SkipValidation = true
	}

	if override.Discovery != "" {
		base.Discovery = override.Discovery
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Schedule.CronExpression != "" {
		base.Schedule.CronExpression = override.Schedule.CronExpression
	}
	if override.Schedule.Boards != "" {
		base.Schedule.Boards = override.Schedule.Boards
	}

	if len(override.Boards) > 0 {
		base.Boards = override.Boards
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Output: "./exam_papers",
		Ledger: LedgerConfig{Path: "./downloaded_papers.csv", Backend: BackendCSV},
		Layout: LayoutConfig{Folders: "long"},
		Fetch: FetchConfig{
			UserAgent:      defaultUserAgent,
			Referer:        defaultReferer,
			Timeout:        60 * time.Second,
			MaxRetries:     3,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
			MinDelay:       time.Second,
			MaxDelay:       3 * time.Second,
		},
		Discovery: DiscoverySections,
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Schedule:  ScheduleConfig{CronExpression: "0 6 * * 1", Boards: "all"},
	}
}

// Default returns the built-in configuration without reading files or env.
func Default() Config {
	return defaultConfig()
}
