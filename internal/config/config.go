package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/jcdickinson/docview/internal/theme"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DocsConfig struct {
	// Source selects where class dumps come from: "dir", "url" or "catalog".
	Source string `mapstructure:"source"`
	Dir    string `mapstructure:"dir"`
	URL    string `mapstructure:"url"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms"`
}

type Config struct {
	Docs    DocsConfig    `mapstructure:"docs"`
	History HistoryConfig `mapstructure:"history"`
	Search  SearchConfig  `mapstructure:"search"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Theme   theme.Theme   `mapstructure:"theme"`
}

// cacheBase returns the base cache directory for docview.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/docview as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "docview")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "docview")
	}
	return filepath.Join(os.TempDir(), "docview")
}

// DBPath returns the path to the SQLite class catalog.
func DBPath() string {
	return filepath.Join(cacheBase(), "catalog.db")
}

// CASDir returns the path to the content-addressable class dump store.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// BundleCacheDir returns the directory holding downloaded dump bundles.
func BundleCacheDir() string {
	return filepath.Join(cacheBase(), "bundles")
}

// LogPath returns the log file used while the terminal UI owns the screen.
func LogPath() string {
	return filepath.Join(cacheBase(), "docview.log")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "docview"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "docview"))
	}

	viper.SetDefault("docs.source", "dir")
	viper.SetDefault("docs.dir", "docs")
	viper.SetDefault("history.limit", 100)
	viper.SetDefault("search.limit", 20)
	viper.SetDefault("watch.enabled", true)
	viper.SetDefault("watch.debounce_ms", 300)

	viper.SetEnvPrefix("DOCVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToThemeHookFunc lets `theme = "light"` name a preset instead of a table.
func stringToThemeHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(theme.Theme{}) {
			return data, nil
		}
		if f.Kind() != reflect.String {
			return data, nil
		}
		th, ok := theme.Preset(data.(string))
		if !ok {
			return nil, fmt.Errorf("unknown theme %q (available: %s)", data, strings.Join(theme.PresetNames(), ", "))
		}
		return th, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}

func decode(settings map[string]interface{}) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToThemeHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	base := theme.Default()
	if preset, ok := theme.Preset(config.Theme.Name); ok {
		base = preset
	}
	config.Theme = config.Theme.Merge(base)

	if config.History.Limit <= 0 {
		config.History.Limit = 100
	}
	if config.Search.Limit <= 0 {
		config.Search.Limit = 20
	}
	config.Docs.Dir = expandHome(config.Docs.Dir)

	return &config, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
