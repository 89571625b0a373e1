package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 100, cfg.Solver.MaxIterations)
	assert.Equal(t, "dantzig", cfg.Solver.PivotRule)
	assert.Equal(t, 1.0, cfg.Solver.StabilityThreshold)
	assert.Equal(t, 10*time.Second, cfg.Solver.Timeout)
	assert.True(t, cfg.Solver.CrossCheck)
	assert.Equal(t, 2*time.Second, cfg.Solver.ReferenceTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 20.0, cfg.RateLimit.RPS)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SOLVER_MAX_ITERATIONS", "25")
	t.Setenv("SOLVER_PIVOT_RULE", "Bland")
	t.Setenv("SOLVER_STABILITY_THRESHOLD", "0.25")
	t.Setenv("SOLVER_CROSSCHECK", "false")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 25, cfg.Solver.MaxIterations)
	assert.Equal(t, "bland", cfg.Solver.PivotRule)
	assert.Equal(t, 0.25, cfg.Solver.StabilityThreshold)
	assert.False(t, cfg.Solver.CrossCheck)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6380", cfg.Cache.RedisAddr)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 0.0, cfg.RateLimit.RPS)
}

func TestLoadLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		level string
		want  string
	}{
		{name: "development", env: "development", want: "debug"},
		{name: "production", env: "production", want: "info"},
		{name: "explicit", env: "development", level: "warn", want: "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", tt.env)
			t.Setenv("LOG_LEVEL", tt.level)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Logging.Level)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "backend", key: "CACHE_BACKEND", value: "memcached"},
		{name: "rule", key: "SOLVER_PIVOT_RULE", value: "steepest"},
		{name: "iterations", key: "SOLVER_MAX_ITERATIONS", value: "0"},
		{name: "threshold", key: "SOLVER_STABILITY_THRESHOLD", value: "-1"},
		{name: "not a number", key: "SOLVER_MAX_ITERATIONS", value: "many"},
		{name: "burst", key: "RATE_LIMIT_BURST", value: "0"},
		{name: "reference timeout", key: "SOLVER_REFERENCE_TIMEOUT", value: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
