package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermedhq/pulse/pkg/config"
)

type serverConfig struct {
	Addr    string `env:"TEST_SERVER_ADDR" envDefault:":8080"`
	Debug   bool   `env:"TEST_SERVER_DEBUG" envDefault:"false"`
	Workers int    `env:"TEST_SERVER_WORKERS" envDefault:"4"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET_UNSET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.False(t, cfg.Debug)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("cached on second call", func(t *testing.T) {
		var first serverConfig
		require.NoError(t, config.Load(&first))

		// Changing the environment after the first load must not change the
		// cached value.
		t.Setenv("TEST_SERVER_WORKERS", "99")

		var second serverConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first.Workers, second.Workers)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[serverConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestMustLoadPanics(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
