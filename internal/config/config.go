package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Web    WebConfig    `mapstructure:"web" json:"web"`
	Store  StoreConfig  `mapstructure:"store" json:"store"`
	Logger LoggerConfig `mapstructure:"logger" json:"logger"`
}

type WebConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	Port    int  `mapstructure:"port" json:"port"`
}

// StoreConfig picks the task backend. Both drivers keep tasks in memory.
type StoreConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Format   string `mapstructure:"format" json:"format"`
	Output   string `mapstructure:"output" json:"output"`
	Filename string `mapstructure:"filename" json:"filename"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

func Default() Config {
	return Config{
		Web:    WebConfig{Port: 8080},
		Store:  StoreConfig{Driver: DriverMemory},
		Logger: LoggerConfig{Level: "info", Format: "console", Output: "stderr"},
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// New returns a viper instance with defaults and LAZYTODO_* env bindings.
func New() *viper.Viper {
	v := viper.New()
	def := Default()
	v.SetDefault("web.enabled", def.Web.Enabled)
	v.SetDefault("web.port", def.Web.Port)
	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("logger.level", def.Logger.Level)
	v.SetDefault("logger.format", def.Logger.Format)
	v.SetDefault("logger.output", def.Logger.Output)
	v.SetDefault("logger.filename", def.Logger.Filename)

	v.SetEnvPrefix("lazytodo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path into v. A missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg.normalize(), nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	v := viper.New()
	v.Set("web", map[string]any{"enabled": cfg.Web.Enabled, "port": cfg.Web.Port})
	v.Set("store", map[string]any{"driver": cfg.Store.Driver})
	v.Set("logger", map[string]any{
		"level":    cfg.Logger.Level,
		"format":   cfg.Logger.Format,
		"output":   cfg.Logger.Output,
		"filename": cfg.Logger.Filename,
	})
	v.SetConfigType("json")
	return v.WriteConfigAs(path)
}

func (c Config) normalize() Config {
	def := Default()
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Logger.Level == "" {
		c.Logger.Level = def.Logger.Level
	}
	return c
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port %d", c.Web.Port)
	}
	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}
