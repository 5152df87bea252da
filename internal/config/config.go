package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentx-labs/extplan/internal/branding"
	"github.com/agentx-labs/extplan/internal/tracing"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Repository kinds.
const (
	RepositoryREST = "rest"
	RepositoryFile = "file"
)

// Config is the typed view of the configuration file.
type Config struct {
	Repositories []RepositoryConfig `mapstructure:"repositories"`
	Core         CoreConfig         `mapstructure:"core"`
	Installed    InstalledConfig    `mapstructure:"installed"`
	Handlers     []string           `mapstructure:"handlers"`
	Resolver     ResolverConfig     `mapstructure:"resolver"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Log          LogConfig          `mapstructure:"log"`
	Tracing      tracing.Config     `mapstructure:"tracing"`
}

// RepositoryConfig declares one remote repository. Repositories are
// queried in the order they are listed.
type RepositoryConfig struct {
	ID      string        `mapstructure:"id"`
	Type    string        `mapstructure:"type"`
	URL     string        `mapstructure:"url"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CoreConfig points at the catalog of core extensions.
type CoreConfig struct {
	File string `mapstructure:"file"`
}

// InstalledConfig locates the installed-state database.
type InstalledConfig struct {
	Database string `mapstructure:"database"`
}

// ResolverConfig tunes remote lookups.
type ResolverConfig struct {
	Parallelism int           `mapstructure:"parallelism"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// CacheConfig tunes the remote response cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Dir returns the path to the config directory (~/.extplan/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.extplan/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults() {
	tc := tracing.DefaultConfig()

	viper.SetDefault("repositories", []map[string]any{})
	viper.SetDefault("core.file", "")
	viper.SetDefault("installed.database", filepath.Join(Dir(), "installed.db"))
	viper.SetDefault("handlers", []string{"jar", "xar", "webjar"})
	viper.SetDefault("resolver.parallelism", 1)
	viper.SetDefault("resolver.call_timeout", "30s")
	viper.SetDefault("cache.ttl", "10m")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("tracing.enabled", tc.Enabled)
	viper.SetDefault("tracing.exporter", tc.Exporter)
	viper.SetDefault("tracing.file_path", filepath.Join(Dir(), "traces", "traces.jsonl"))
	viper.SetDefault("tracing.otlp_endpoint", tc.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", tc.SampleRate)
	viper.SetDefault("tracing.service_name", tc.ServiceName)
}

// Load initializes Viper from the config file and environment and returns
// the typed configuration. An empty path means FilePath(). A missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FilePath()
	}

	setDefaults()
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks repository declarations and numeric settings.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, r := range c.Repositories {
		if r.ID == "" {
			return fmt.Errorf("repositories[%d]: id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("repositories[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true

		switch r.Type {
		case RepositoryREST:
			if r.URL == "" {
				return fmt.Errorf("repository %s: url is required for type %s", r.ID, r.Type)
			}
		case RepositoryFile:
			if r.Path == "" {
				return fmt.Errorf("repository %s: path is required for type %s", r.ID, r.Type)
			}
		default:
			return fmt.Errorf("repository %s: unknown type %q (want %s or %s)", r.ID, r.Type, RepositoryREST, RepositoryFile)
		}
	}
	if c.Resolver.Parallelism < 1 {
		return fmt.Errorf("resolver.parallelism must be at least 1, got %d", c.Resolver.Parallelism)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = FilePath()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	viper.Set(key, value)

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
