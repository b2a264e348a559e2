// ABOUTME: Centralized configuration for the log tiler client
// ABOUTME: Loads from YAML, .env files and environment variables with validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// Database names selected by environment
const (
	LocalDatabase      = "OtherBigDataDB"
	ProductionDatabase = "TilerBigDataDB"
)

const (
	DefaultCollection        = "UserLogs"
	DefaultStoreMaxItemBytes = 2_000_000
	DefaultChunkBudgetBytes  = 1_500_000
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all configuration for the tiler
type Config struct {
	// Environment selects the database; "local" uses LocalDatabase
	Environment string `yaml:"environment"`
	Database    string `yaml:"database"`
	Backend     string `yaml:"backend"`
	Collection  string `yaml:"collection"`

	// SQLite settings
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`

	// Charm settings
	CharmHost   string `yaml:"charm_host"`
	CharmDBName string `yaml:"charm_db"`
	AutoSync    bool   `yaml:"auto_sync"`

	// Size limits in bytes of compressed payload
	StoreMaxItemBytes int `yaml:"store_max_item_bytes"`
	ChunkBudgetBytes  int `yaml:"chunk_budget_bytes"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Backend:           BackendSQLite,
		Collection:        DefaultCollection,
		DataDir:           DefaultDataDir(),
		CharmHost:         "cloud.charm.sh",
		AutoSync:          true,
		StoreMaxItemBytes: DefaultStoreMaxItemBytes,
		ChunkBudgetBytes:  DefaultChunkBudgetBytes,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads configuration from environment variables. A .env file in the
// working directory fills in variables the environment does not set.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(dotenv(".env")); err != nil {
		return nil, err
	}
	cfg.Resolve()
	return cfg, cfg.Validate()
}

// LoadFile reads a YAML configuration file, then applies environment
// overrides the same way Load does
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := cfg.applyEnv(dotenv(envFile)); err != nil {
		return nil, err
	}
	cfg.Resolve()
	return cfg, cfg.Validate()
}

// applyEnv overlays environment variables onto c. Values from fallback
// are used only when the real environment leaves a variable unset.
func (c *Config) applyEnv(fallback map[string]string) error {
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback[key]
	}

	c.Environment = getEnv(lookup, "TILER_ENV", c.Environment)
	c.Database = getEnv(lookup, "TILER_DATABASE", c.Database)
	c.Backend = getEnv(lookup, "TILER_BACKEND", c.Backend)
	c.Collection = getEnv(lookup, "TILER_COLLECTION", c.Collection)
	c.DataDir = getEnv(lookup, "TILER_DATA_DIR", c.DataDir)
	c.SQLitePath = getEnv(lookup, "TILER_SQLITE_PATH", c.SQLitePath)
	c.CharmHost = getEnv(lookup, "CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv(lookup, "CHARM_DB", c.CharmDBName)
	c.AutoSync = getEnvBool(lookup, "CHARM_AUTO_SYNC", c.AutoSync)
	c.LogLevel = getEnv(lookup, "TILER_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv(lookup, "TILER_LOG_FORMAT", c.LogFormat)

	var err error
	if c.StoreMaxItemBytes, err = getEnvInt(lookup, "TILER_STORE_MAX_ITEM_BYTES", c.StoreMaxItemBytes); err != nil {
		return err
	}
	if c.ChunkBudgetBytes, err = getEnvInt(lookup, "TILER_CHUNK_BUDGET_BYTES", c.ChunkBudgetBytes); err != nil {
		return err
	}
	return nil
}

// Resolve fills in values derived from other fields that are still empty
func (c *Config) Resolve() {
	if c.Database == "" {
		c.Database = DatabaseFor(c.Environment)
	}
	if c.CharmDBName == "" {
		c.CharmDBName = c.Database
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, c.Database+".db")
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("TILER_BACKEND must be %s or %s, got %q", BackendSQLite, BackendCharm, c.Backend)
	}
	if !identifierPattern.MatchString(c.Collection) {
		return fmt.Errorf("TILER_COLLECTION must be a plain identifier, got %q", c.Collection)
	}
	if c.StoreMaxItemBytes <= 0 {
		return fmt.Errorf("TILER_STORE_MAX_ITEM_BYTES must be positive, got %d", c.StoreMaxItemBytes)
	}
	if c.ChunkBudgetBytes <= 0 {
		return fmt.Errorf("TILER_CHUNK_BUDGET_BYTES must be positive, got %d", c.ChunkBudgetBytes)
	}
	if c.ChunkBudgetBytes > c.StoreMaxItemBytes {
		return fmt.Errorf("TILER_CHUNK_BUDGET_BYTES (%d) must not exceed TILER_STORE_MAX_ITEM_BYTES (%d)",
			c.ChunkBudgetBytes, c.StoreMaxItemBytes)
	}
	if c.Backend == BackendCharm && c.CharmHost == "" {
		return errors.New("CHARM_HOST is required for the charm backend")
	}
	return nil
}

// DatabaseFor returns the database name used in the given environment
func DatabaseFor(environment string) string {
	if environment == "local" {
		return LocalDatabase
	}
	return ProductionDatabase
}

// DefaultDataDir returns the default data directory under XDG_DATA_HOME
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/bigdatatiler"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "bigdatatiler")
}

// dotenv reads a .env file, returning nothing when it is absent or unreadable
func dotenv(path string) map[string]string {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil
	}
	return values
}

// Helper functions
func getEnv(lookup func(string) string, key, defaultVal string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(lookup func(string) string, key string, defaultVal bool) bool {
	v := lookup(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(lookup func(string) string, key string, defaultVal int) (int, error) {
	v := lookup(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return i, nil
}
