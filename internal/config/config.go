// Package config loads service configuration from an optional YAML
// file, overlaid by environment variables and finally CLI flags.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL     string `yaml:"database_url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ServerHost      string `yaml:"server_host"`
	ServerPort      int    `yaml:"server_port"`
	UsePostgres     bool   `yaml:"use_postgres"`
	JSON            bool   `yaml:"json"`
	LockTimeoutSec  int    `yaml:"lock_timeout_sec"`
	MigrationsTable string `yaml:"migrations_table"`
}

func Default() *Config {
	return &Config{
		MaxOpenConns:    10,
		ServerHost:      "0.0.0.0",
		ServerPort:      3000,
		LockTimeoutSec:  30,
		MigrationsTable: "_schema_migrations",
	}
}

func LoadYAML(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func MergeEnv(cfg *Config) *Config {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxOpenConns = i
		}
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.ServerHost = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = i
		}
	}
	if v := os.Getenv("USE_POSTGRES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UsePostgres = b
		}
	}
	if v := os.Getenv("LOCK_TIMEOUT_SEC"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.LockTimeoutSec = i
		}
	}
	if v := os.Getenv("MIGRATIONS_TABLE"); v != "" {
		cfg.MigrationsTable = v
	}
	return cfg
}

func (c *Config) LockTimeout() time.Duration {
	if c.LockTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LockTimeoutSec) * time.Second
}
