// Package config loads the TOML configuration, writing defaults on first use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/ldi/daybook/pkg/models"
)

const (
	DefaultDir            = ".daybook"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "daybook.db"
	DefaultSnapshotName   = "tasks.jsonl"
	DefaultAvatarDir      = "avatars"
	DefaultPort           = 8000
)

type Config struct {
	DBPath       string      `toml:"db_path"`
	SnapshotPath string      `toml:"snapshot_path"`
	AvatarDir    string      `toml:"avatar_dir"`
	LogLevel     string      `toml:"log_level"`
	LogFormat    string      `toml:"log_format"`
	WebPort      int         `toml:"web_port"`
	User         models.User `toml:"user"`

	// dir is where relative paths are resolved; it is the config file's
	// directory.
	dir string
}

// DefaultPath is the config file under the working directory.
func DefaultPath() string {
	return filepath.Join(DefaultDir, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path. A missing file is created with
// defaults. Empty fields in an existing file fall back to defaults.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	cfg.dir = filepath.Dir(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = d.SnapshotPath
	}
	if c.AvatarDir == "" {
		c.AvatarDir = d.AvatarDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.WebPort == 0 {
		c.WebPort = d.WebPort
	}
	if c.User.Name == "" {
		c.User.Name = d.User.Name
	}
	if c.User.Username == "" {
		c.User.Username = d.User.Username
	}
	if c.User.ID == "" {
		c.User.ID = d.User.ID
	}
	if c.User.JoinedDate == "" {
		c.User.JoinedDate = d.User.JoinedDate
	}
}

// Resolve makes a configured path absolute relative to the config directory.
func (c Config) Resolve(p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

func Default() Config {
	return Config{
		DBPath:       DefaultDBName,
		SnapshotPath: DefaultSnapshotName,
		AvatarDir:    DefaultAvatarDir,
		LogLevel:     "info",
		LogFormat:    "text",
		WebPort:      DefaultPort,
		User: models.User{
			ID:         "1",
			Username:   "me",
			Name:       "Daybook User",
			JoinedDate: time.Now().Format("2006-01-02"),
		},
		dir: DefaultDir,
	}
}
