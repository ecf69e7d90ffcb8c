// Package config loads habitthemes settings from the YAML config file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitthemes/internal/constants"
	"github.com/julianstephens/habitthemes/internal/keyring"
)

// KeyringDatabase as the database value reads the connection string from
// the OS keyring.
const KeyringDatabase = "keyring"

// Config represents the application configuration
type Config struct {
	// Database is a SQLite path, a .json path, a PostgreSQL URI/DSN or
	// "keyring".
	Database string       `yaml:"database"`
	Timezone string       `yaml:"timezone"`
	Debug    bool         `yaml:"debug"`
	LogDir   string       `yaml:"log_dir"`
	Backups  BackupConfig `yaml:"backups"`

	// Dir is the directory holding the config file.
	Dir string `yaml:"-"`
}

type BackupConfig struct {
	Enabled bool   `yaml:"enabled"`
	Keep    int    `yaml:"keep"`
	Dir     string `yaml:"dir"`
}

// DefaultPath returns the path to the config file
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, constants.AppName, constants.ConfigFileName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", constants.AppName, constants.ConfigFileName), nil
}

// Default returns the configuration used when no file exists.
func Default(dir string) *Config {
	c := &Config{Dir: dir, Backups: BackupConfig{Enabled: true}}
	c.applyDefaults()
	return c
}

// Load reads the config file at path, or the default path when path is
// empty. A missing file yields the defaults. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config path: %w", err)
		}
		path = p
	}

	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Path is the config file inside c.Dir.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, constants.ConfigFileName)
}

// Save writes the config file into c.Dir.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path(), data, 0o600)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(constants.EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(constants.EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(constants.EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", constants.EnvDebug, v, err)
		}
		c.Debug = debug
	}
	return nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = filepath.Join(c.Dir, constants.DefaultDBName)
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.Dir, "logs")
	}
	if c.Backups.Keep <= 0 {
		c.Backups.Keep = constants.MaxBackups
	}
	if c.Backups.Dir == "" {
		c.Backups.Dir = filepath.Join(c.Dir, constants.BackupDirName)
	}
}

// ResolveDatabase returns the database location, reading it from the OS
// keyring when the config says so.
func (c *Config) ResolveDatabase() (string, error) {
	if c.Database != KeyringDatabase {
		return c.Database, nil
	}
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		return "", fmt.Errorf("database is set to %q: %w", KeyringDatabase, err)
	}
	return connStr, nil
}
