package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Providers ProvidersConfig
	Selection SelectionConfig
	UI        UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ProvidersConfig points at the provider catalogue.
type ProvidersConfig struct {
	Path string
}

// SelectionConfig controls where the selected provider is remembered and
// what is selected on a first run.
type SelectionConfig struct {
	Default string
	Path    string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string `mapstructure:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Timezone       string
}

func baseDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "jaskbills")
}

// Load reads configuration from file and env. Env var overrides use prefix JASKBILLS_.
func Load() (Config, error) {
	return LoadFile(os.Getenv("JASKBILLS_CONFIG"))
}

// LoadFile is Load with an explicit config path. An empty path searches the default directory.
func LoadFile(cfgPath string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "jaskbills", "jaskbills.db"))
	v.SetDefault("providers.path", filepath.Join(baseDir(), "providers.toml"))
	v.SetDefault("selection.default", "")
	v.SetDefault("selection.path", filepath.Join(baseDir(), "selection.json"))
	v.SetDefault("ui.date_format", "02/01")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "Australia/Melbourne")

	v.SetConfigType("toml")

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(baseDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("JASKBILLS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("JASKBILLS_CONFIG")
	if path == "" {
		path = filepath.Join(baseDir(), "config.toml")
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("providers.path", cfg.Providers.Path)
	v.Set("selection.default", cfg.Selection.Default)
	v.Set("selection.path", cfg.Selection.Path)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
