package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindplus/offloader/config"
	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/ports"
	"github.com/mindplus/offloader/internal/transport/broker"
	"github.com/mindplus/offloader/internal/transport/channel"
	"github.com/mindplus/offloader/util/conf"
)

func parse(t *testing.T) (config.Config, error) {
	schema, err := config.Schema()
	require.NoError(t, err)

	return conf.Parse[config.Config](conf.ParseOptions{
		Defaults:  config.DefaultConfig(),
		EnvPrefix: "OFFLOADER_",
		Schema:    schema,
	})
}

func TestDefaultConfig_MatchesComponentDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "production", cfg.LogFormat)
	assert.Equal(t, coordinator.DefaultConfig(), cfg.Coordinator)
	assert.Equal(t, pool.DefaultConfig(), cfg.Pool)
	assert.Equal(t, channel.DefaultConfig(), cfg.Channel)
	assert.Equal(t, broker.DefaultConfig(), cfg.Broker)
	assert.Equal(t, ports.DefaultSettleDelay, cfg.Ports.SettleDelay)
	assert.Equal(t, 8080, cfg.Http.Port)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OFFLOADER_POOL__MAX_WORKERS", "8")
	t.Setenv("OFFLOADER_COORDINATOR__RUNTIME__RENDERER__TYPE", "opengl")
	t.Setenv("OFFLOADER_COORDINATOR__RUNTIME__SCHEDULER__TICK", "32ms")
	t.Setenv("OFFLOADER_COORDINATOR__RUNTIME__PRELOAD__LOOK_AHEAD", "12")
	t.Setenv("OFFLOADER_COORDINATOR__RUNTIME__PRELOAD__SCHEDULER__WINDOW", "1m")
	t.Setenv("OFFLOADER_LOG_LEVEL", "debug")

	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pool.MaxWorkers)
	assert.Equal(t, "opengl", cfg.Coordinator.Runtime.Renderer.Type)
	assert.Equal(t, 32*time.Millisecond, cfg.Coordinator.Runtime.Scheduler.Tick)
	assert.Equal(t, 12, cfg.Coordinator.Runtime.Preload.LookAhead)
	assert.Equal(t, time.Minute, cfg.Coordinator.Runtime.Preload.Scheduler.Window)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfig_SchemaRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"OFFLOADER_LOG_FORMAT":                            "xml",
		"OFFLOADER_COORDINATOR__RUNTIME__RENDERER__TYPE":  "software",
		"OFFLOADER_POOL__POLL_TIMEOUT":                    "soon",
		"OFFLOADER_HTTP__PORT":                            "eighty",
		"OFFLOADER_COORDINATOR__RUNTIME__PRELOAD__RADIUS": "wide",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := parse(t)
			assert.ErrorIs(t, err, conf.ErrInvalidConfig)
		})
	}
}
