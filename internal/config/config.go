// Package config loads settings from defaults, an optional YAML file and
// MTM_-prefixed environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const EnvPrefix = "MTM"

type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Buffer   BufferConfig   `mapstructure:"buffer" yaml:"buffer"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. Empty means the per-user default.
	Path string `mapstructure:"path" yaml:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // trace, debug, info, warn, error
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

type BufferConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("buffer.flush_interval", 2*time.Second)
	v.SetDefault("export.dir", "~")
}

// DefaultPath returns ~/.config/mytimemanager/config.yaml (or the platform's
// user config directory).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mytimemanager", "config.yaml"), nil
}

// Load reads the configuration. An explicit path must exist; without one the
// default file is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		def, err := DefaultPath()
		if err == nil {
			path = def
		}
	}
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if cfg.Buffer.FlushInterval <= 0 {
		return nil, fmt.Errorf("buffer.flush_interval must be positive, got %s", cfg.Buffer.FlushInterval)
	}
	return cfg, nil
}

func (c *Config) expand() error {
	var err error
	if c.Database.Path, err = homedir.Expand(c.Database.Path); err != nil {
		return fmt.Errorf("expand database.path: %w", err)
	}
	if c.Export.Dir, err = homedir.Expand(c.Export.Dir); err != nil {
		return fmt.Errorf("expand export.dir: %w", err)
	}
	return nil
}

// ConfigFileUsed reports the file Load would read for path.
func ConfigFileUsed(path string) string {
	if path != "" {
		if p, err := homedir.Expand(path); err == nil {
			return p
		}
		return path
	}
	p, _ := DefaultPath()
	return p
}
