package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitthemes/internal/constants"
	"github.com/julianstephens/habitthemes/internal/keyring"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(constants.EnvDatabase, "")
	t.Setenv(constants.EnvDebug, "")
	t.Setenv(constants.EnvTimezone, "")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database != filepath.Join(dir, constants.DefaultDBName) {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.LogDir != filepath.Join(dir, "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if !cfg.Backups.Enabled || cfg.Backups.Keep != constants.MaxBackups {
		t.Errorf("Backups = %+v", cfg.Backups)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `database: /data/habits.json
timezone: Europe/Berlin
debug: true
backups:
  enabled: false
  keep: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database != "/data/habits.json" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Backups.Enabled || cfg.Backups.Keep != 3 {
		t.Errorf("Backups = %+v", cfg.Backups)
	}
	if cfg.Backups.Dir != filepath.Join(dir, constants.BackupDirName) {
		t.Errorf("Backups.Dir = %q", cfg.Backups.Dir)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: from-file.db\ntimezone: UTC\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(constants.EnvDatabase, "from-env.db")
	t.Setenv(constants.EnvTimezone, "Asia/Tokyo")
	t.Setenv(constants.EnvDebug, "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database != "from-env.db" || cfg.Timezone != "Asia/Tokyo" || !cfg.Debug {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestInvalidDebugEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(constants.EnvDebug, "sometimes")
	if _, err := Load(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Error("Load() should reject a non-boolean debug value")
	}
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if want := filepath.Join("/tmp/xdg", constants.AppName, constants.ConfigFileName); path != want {
		t.Errorf("DefaultPath() = %q, want %q", path, want)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg := Default(dir)
	cfg.Timezone = "UTC"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(filepath.Join(dir, constants.ConfigFileName))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Timezone != "UTC" || loaded.Database != cfg.Database {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
}

func TestResolveDatabase(t *testing.T) {
	gokeyring.MockInit()

	cfg := Default(t.TempDir())
	got, err := cfg.ResolveDatabase()
	if err != nil || got != cfg.Database {
		t.Errorf("ResolveDatabase() = %q, %v; want %q", got, err, cfg.Database)
	}

	cfg.Database = KeyringDatabase
	if _, err := cfg.ResolveDatabase(); !errors.Is(err, keyring.ErrNotFound) {
		t.Errorf("ResolveDatabase() with empty keyring error = %v, want ErrNotFound", err)
	}

	if err := keyring.SetConnectionString("postgres://habits@localhost/habitthemes"); err != nil {
		t.Fatal(err)
	}
	got, err = cfg.ResolveDatabase()
	if err != nil || got != "postgres://habits@localhost/habitthemes" {
		t.Errorf("ResolveDatabase() = %q, %v", got, err)
	}
}
