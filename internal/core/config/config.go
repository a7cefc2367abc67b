package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Query    QueryConfig    `koanf:"query"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

// DatabaseConfig holds the connection settings for the frames replica.
type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// QueryConfig holds the per-caller-class time budgets. Durations are parsed
// and validated on startup.
type QueryConfig struct {
	AnonymousBudget     string `koanf:"anonymous_budget"`
	AuthenticatedBudget string `koanf:"authenticated_budget"`
	SmallBudget         string `koanf:"small_budget"`
}

// SnapshotConfig holds the whole-catalog snapshot refresher settings.
type SnapshotConfig struct {
	Enabled         bool   `koanf:"enabled"`
	RefreshInterval string `koanf:"refresh_interval"`
}

// CatalogConfig holds catalog vocabulary settings.
type CatalogConfig struct {
	// ScienceTypesPath overrides the built-in science configuration-type list
	// when set.
	ScienceTypesPath string `koanf:"science_types_path"`
}

// AuthConfig holds the observation-portal integration settings. An empty
// profile URL runs the service in anonymous-only mode.
type AuthConfig struct {
	ProfileURL string `koanf:"profile_url"`
	CacheTTL   string `koanf:"cache_ttl"`
}

func (c QueryConfig) AnonymousBudgetDuration() time.Duration {
	return mustDuration(c.AnonymousBudget)
}

func (c QueryConfig) AuthenticatedBudgetDuration() time.Duration {
	return mustDuration(c.AuthenticatedBudget)
}

func (c QueryConfig) SmallBudgetDuration() time.Duration {
	return mustDuration(c.SmallBudget)
}

func (c SnapshotConfig) RefreshIntervalDuration() time.Duration {
	return mustDuration(c.RefreshInterval)
}

func (c AuthConfig) CacheTTLDuration() time.Duration {
	return mustDuration(c.CacheTTL)
}

// mustDuration is only reached after Validate has parsed the same value.
func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		panic(fmt.Sprintf("unvalidated duration %q: %v", raw, err))
	}
	return d
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}

	budgets := map[string]string{
		"query.anonymous_budget":     c.Query.AnonymousBudget,
		"query.authenticated_budget": c.Query.AuthenticatedBudget,
		"query.small_budget":         c.Query.SmallBudget,
	}
	for key, raw := range budgets {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", key)
		}
	}

	if c.Snapshot.Enabled {
		interval, err := time.ParseDuration(c.Snapshot.RefreshInterval)
		if err != nil {
			return fmt.Errorf("invalid snapshot.refresh_interval %q: %w", c.Snapshot.RefreshInterval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("snapshot.refresh_interval must be > 0")
		}
	}

	if c.Auth.ProfileURL != "" {
		ttl, err := time.ParseDuration(c.Auth.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid auth.cache_ttl %q: %w", c.Auth.CacheTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("auth.cache_ttl must be > 0")
		}
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                8080,
		"server.host":                "0.0.0.0",
		"server.mode":                "release",
		"database.dsn":               "",
		"database.max_open_conns":    25,
		"database.max_idle_conns":    25,
		"database.auto_migrate":      false,
		"query.anonymous_budget":     "1s",
		"query.authenticated_budget": "1500ms",
		"query.small_budget":         "5s",
		"snapshot.enabled":           true,
		"snapshot.refresh_interval":  "1h",
		"catalog.science_types_path": "",
		"auth.profile_url":           "",
		"auth.cache_ttl":             "5m",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("FRAMECAT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "FRAMECAT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
