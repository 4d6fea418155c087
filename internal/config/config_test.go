package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".daybook", "config.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if cfg.DBPath != DefaultDBName || cfg.WebPort != DefaultPort || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "db_path") || !strings.Contains(string(data), DefaultDBName) {
		t.Errorf("expected db_path in written config, got:\n%s", data)
	}

	if got := cfg.Resolve(cfg.DBPath); got != filepath.Join(dir, ".daybook", DefaultDBName) {
		t.Errorf("unexpected resolved db path %s", got)
	}
}

func TestLoadOrCreateReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
db_path = "/var/lib/daybook/tasks.db"
web_port = 9090
log_level = "debug"

[user]
name = "Ada Lovelace"
email = "ada@example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if cfg.WebPort != 9090 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected values %+v", cfg)
	}
	if cfg.Resolve(cfg.DBPath) != "/var/lib/daybook/tasks.db" {
		t.Error("absolute paths should be kept")
	}
	if cfg.User.Name != "Ada Lovelace" || cfg.User.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", cfg.User)
	}
	if cfg.SnapshotPath != DefaultSnapshotName || cfg.User.Username != "me" {
		t.Error("missing fields should fall back to defaults")
	}
}

func TestLoadOrCreateInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("web_port = [oops"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadOrCreate(path); err == nil {
		t.Error("expected parse error")
	}
}
