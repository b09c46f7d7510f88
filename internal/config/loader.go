// Package config loads runtime configuration for the CLI and server.
// Precedence, lowest to highest: built-in defaults, config file,
// HARVESTER_* environment variables, runtime overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Store    StoreConfig    `mapstructure:"store"`
	Renderer RendererConfig `mapstructure:"renderer"`
	AI       AIConfig       `mapstructure:"ai"`
	// ProgressPath is where the crawl resume checkpoint lives.
	ProgressPath string `mapstructure:"progress_path"`
	// Workers bounds parallel extraction within one employer.
	Workers int `mapstructure:"workers"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

type RendererConfig struct {
	NoSandbox    bool          `mapstructure:"no_sandbox"`
	SelectorWait time.Duration `mapstructure:"selector_wait"`
	ScrollPasses int           `mapstructure:"scroll_passes"`
}

type AIConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Location  string `mapstructure:"location"`
	Model     string `mapstructure:"model"`
}

// Load resolves configuration. Overrides, when given, are merged last
// and win over everything else.
func Load(_ context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("harvester")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "harvester"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	for _, override := range overrides {
		if err := v.MergeConfigMap(override); err != nil {
			return nil, fmt.Errorf("merging overrides: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("store.path", defaultDataPath("harvester.db"))
	v.SetDefault("progress_path", defaultDataPath("progress.json"))

	v.SetDefault("renderer.no_sandbox", false)
	v.SetDefault("renderer.selector_wait", "10s")
	v.SetDefault("renderer.scroll_passes", 3)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.location", "us-central1")
	v.SetDefault("ai.model", "gemini-2.0-flash")

	v.SetDefault("workers", 4)
}

func defaultDataPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "harvester", name)
}
