package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchmesh API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Enhancer  EnhancerConfig  `yaml:"enhancer"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Databases []Database      `yaml:"databases"`
	Callers   []Caller        `yaml:"callers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds response cache (Redis/Valkey) settings.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// EnhancerConfig holds semantic query enhancement settings.
type EnhancerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds fan-out and aggregation settings.
type SearchConfig struct {
	MaxConcurrentTargets int `yaml:"max_concurrent_targets"`
	TargetTimeoutMs      int `yaml:"target_timeout_ms"`
	SuggestionCount      int `yaml:"suggestion_count"`
}

// RateLimitConfig holds custom tier definitions overriding the built-ins.
type RateLimitConfig struct {
	Tiers map[string]TierConfig `yaml:"tiers"`
}

// TierConfig defines one rate-limit tier.
type TierConfig struct {
	RequestsPerWindow int `yaml:"requests_per_window"`
	Burst             int `yaml:"burst"`
	BlockDurationSec  int `yaml:"block_duration_sec"`
}

// Database describes one federated search target.
type Database struct {
	ID     string  `yaml:"id"`
	DSN    string  `yaml:"dsn"`
	Tables []Table `yaml:"tables"`
}

// Table describes one searchable table with its full-text-indexed columns.
type Table struct {
	Name        string   `yaml:"name"`
	Columns     []string `yaml:"columns"`
	TitleColumn string   `yaml:"title_column"`
}

// Caller maps an API key to a caller identity, tier and owned databases.
type Caller struct {
	APIKey    string   `yaml:"api_key"`
	ID        string   `yaml:"id"`
	Tier      string   `yaml:"tier"`
	Databases []string `yaml:"databases"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "searchmesh:"
	}
	if c.Enhancer.TimeoutSec <= 0 {
		c.Enhancer.TimeoutSec = 3
	}
	if c.Enhancer.Model == "" {
		c.Enhancer.Model = "gpt-4o-mini"
	}
	if c.Search.MaxConcurrentTargets <= 0 {
		c.Search.MaxConcurrentTargets = 10
	}
	if c.Search.TargetTimeoutMs <= 0 {
		c.Search.TargetTimeoutMs = 1500
	}
	if c.Search.SuggestionCount <= 0 {
		c.Search.SuggestionCount = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required")
	}
	if len(c.Databases) == 0 {
		return fmt.Errorf("at least one database is required")
	}

	dbIDs := make(map[string]struct{}, len(c.Databases))
	for i, db := range c.Databases {
		if db.ID == "" {
			return fmt.Errorf("databases[%d].id is required", i)
		}
		if db.DSN == "" {
			return fmt.Errorf("databases.%s.dsn is required", db.ID)
		}
		if _, dup := dbIDs[db.ID]; dup {
			return fmt.Errorf("duplicate database id %q", db.ID)
		}
		dbIDs[db.ID] = struct{}{}
		if len(db.Tables) == 0 {
			return fmt.Errorf("databases.%s needs at least one searchable table", db.ID)
		}
		for _, t := range db.Tables {
			if t.Name == "" {
				return fmt.Errorf("databases.%s has a table without a name", db.ID)
			}
			if len(t.Columns) == 0 {
				return fmt.Errorf("databases.%s.%s needs at least one indexed column", db.ID, t.Name)
			}
		}
	}

	for i, caller := range c.Callers {
		if caller.APIKey == "" {
			return fmt.Errorf("callers[%d].api_key is required", i)
		}
		if caller.ID == "" {
			return fmt.Errorf("callers[%d].id is required", i)
		}
		for _, id := range caller.Databases {
			if _, ok := dbIDs[id]; !ok {
				return fmt.Errorf("callers.%s references unknown database %q", caller.ID, id)
			}
		}
	}

	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
