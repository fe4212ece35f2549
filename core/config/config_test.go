package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefthq/weft/core/config"
)

type serverConfig struct {
	Host string `env:"TEST_SERVER_HOST" envDefault:"localhost"`
	Port int    `env:"TEST_SERVER_PORT" envDefault:"8080"`
}

type requiredConfig struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when env is unset", func(t *testing.T) {
		config.Reset()

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVER_HOST", "0.0.0.0")
		t.Setenv("TEST_SERVER_PORT", "9090")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "0.0.0.0", cfg.Host)
		assert.Equal(t, 9090, cfg.Port)
	})

	t.Run("second load returns the cached value", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVER_PORT", "1111")

		var first serverConfig
		require.NoError(t, config.Load(&first))

		// Environment changes after the first load are not observed.
		t.Setenv("TEST_SERVER_PORT", "2222")
		var second serverConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first, second)
		assert.Equal(t, 1111, second.Port)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		assert.Error(t, config.Load(&cfg))
	})

	t.Run("non-pointer target fails", func(t *testing.T) {
		config.Reset()

		assert.Error(t, config.Load(serverConfig{}))
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		config.Reset()

		assert.Panics(t, func() {
			config.MustLoad(&requiredConfig{})
		})
	})

	t.Run("returns silently on success", func(t *testing.T) {
		config.Reset()

		assert.NotPanics(t, func() {
			config.MustLoad(&serverConfig{})
		})
	})
}
