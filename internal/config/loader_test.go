package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "console", cfg.Logging.Format)

		assert.Equal(t, 4, cfg.Workers)
		assert.False(t, cfg.AI.Enabled)
		assert.Equal(t, "us-central1", cfg.AI.Location)
		assert.NotEmpty(t, cfg.Store.Path)
		assert.NotEmpty(t, cfg.ProgressPath)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "0.0.0.0",
			},
			"logging": map[string]any{
				"level": "debug",
			},
			"workers": 8,
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 8, cfg.Workers)

		// Untouched keys keep their defaults.
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("HARVESTER_SERVER_PORT", "7070")
		t.Setenv("HARVESTER_LOGGING_LEVEL", "warn")
		t.Setenv("HARVESTER_STORE_PATH", "/tmp/jobs.db")

		cfg, err := Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "/tmp/jobs.db", cfg.Store.Path)
	})

	t.Run("DurationStrings", func(t *testing.T) {
		cfg, err := Load(ctx, map[string]any{
			"server": map[string]any{
				"shutdown_timeout": "25s",
			},
			"renderer": map[string]any{
				"selector_wait": "1m",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, 25*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, time.Minute, cfg.Renderer.SelectorWait)
	})
}
