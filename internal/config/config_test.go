package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	assert.Empty(t, cfg.AccessPasswordHash)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("AUTOSAVE_INTERVAL", "5s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := Load()
		assert.Error(t, err)
	})
}
