package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/coderegistry/internal/domain/network"
)

// Storage drivers
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Chain     ChainConfig
	Storage   StorageConfig
	Loader    LoaderConfig
	Registry  RegistryConfig
	Genesis   GenesisConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ChainConfig selects the network the registry runs on.
type ChainConfig struct {
	Name string `envconfig:"CHAIN" default:"devnet"`
}

// StorageConfig selects the registry store.
type StorageConfig struct {
	Driver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	Path   string `envconfig:"STORAGE_PATH" default:"registry.db"`
}

// LoaderConfig holds the remote loader connection. When disabled, an
// in-process loader is used.
type LoaderConfig struct {
	Address string        `envconfig:"LOADER_ADDR" default:"localhost:50051"`
	Enabled bool          `envconfig:"LOADER_ENABLED" default:"false"`
	Timeout time.Duration `envconfig:"LOADER_TIMEOUT" default:"5s"`
}

// RegistryConfig holds upgrade rule switches.
type RegistryConfig struct {
	RequireModuleRetention bool `envconfig:"REGISTRY_REQUIRE_MODULE_RETENTION" default:"false"`
}

// GenesisConfig locates release bundles seeded at startup. An empty Dir
// disables seeding.
type GenesisConfig struct {
	Dir     string `envconfig:"GENESIS_DIR" default:""`
	Pattern string `envconfig:"GENESIS_PATTERN" default:"**/bundle.yaml"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Chain: ChainConfig{
			Name: string(network.Devnet),
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
			Path:   "registry.db",
		},
		Loader: LoaderConfig{
			Address: "localhost:50051",
			Enabled: false,
			Timeout: 5 * time.Second,
		},
		Genesis: GenesisConfig{
			Pattern: "**/bundle.yaml",
		},
	}
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if _, err := network.Parse(c.Chain.Name); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q (expected memory or sqlite)", c.Storage.Driver)
	}
	if c.Loader.Timeout <= 0 {
		return fmt.Errorf("loader timeout must be positive, got %s", c.Loader.Timeout)
	}
	return nil
}

// Network returns the parsed chain. Call after Validate.
func (c *Config) Network() network.Chain {
	chain, err := network.Parse(c.Chain.Name)
	if err != nil {
		return network.Devnet
	}
	return chain
}
