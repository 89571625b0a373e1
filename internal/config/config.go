package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		// Level defaults to debug in development and info elsewhere.
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		MaxIterations      int           `env:"SOLVER_MAX_ITERATIONS" envDefault:"100"`
		PivotRule          string        `env:"SOLVER_PIVOT_RULE" envDefault:"dantzig"`
		StabilityThreshold float64       `env:"SOLVER_STABILITY_THRESHOLD" envDefault:"1"`
		Timeout            time.Duration `env:"SOLVER_TIMEOUT" envDefault:"10s"`
		CrossCheck         bool          `env:"SOLVER_CROSSCHECK" envDefault:"true"`
		ReferenceTimeout   time.Duration `env:"SOLVER_REFERENCE_TIMEOUT" envDefault:"2s"`
	}
	Cache struct {
		Backend       string        `env:"CACHE_BACKEND" envDefault:"memory"`
		RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		RedisPassword string        `env:"REDIS_PASSWORD"`
		RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
		TTL           time.Duration `env:"CACHE_TTL" envDefault:"1h"`
		Prefix        string        `env:"CACHE_PREFIX" envDefault:"lplab:report:"`
	}
	RateLimit struct {
		// RPS of zero disables rate limiting.
		RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
		Burst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	cfg.Cache.Backend = strings.ToLower(cfg.Cache.Backend)
	cfg.Solver.PivotRule = strings.ToLower(cfg.Solver.PivotRule)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values env.Parse cannot.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.Cache.Backend)
	}
	switch c.Solver.PivotRule {
	case "dantzig", "bland":
	default:
		return fmt.Errorf("SOLVER_PIVOT_RULE must be dantzig or bland, got %q", c.Solver.PivotRule)
	}
	if c.Solver.MaxIterations < 1 {
		return fmt.Errorf("SOLVER_MAX_ITERATIONS must be positive, got %d", c.Solver.MaxIterations)
	}
	if c.Solver.StabilityThreshold < 0 {
		return fmt.Errorf("SOLVER_STABILITY_THRESHOLD must not be negative, got %g", c.Solver.StabilityThreshold)
	}
	if c.Solver.ReferenceTimeout <= 0 {
		return fmt.Errorf("SOLVER_REFERENCE_TIMEOUT must be positive, got %s", c.Solver.ReferenceTimeout)
	}
	if c.RateLimit.RPS < 0 || (c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative and RATE_LIMIT_BURST must be positive when limiting")
	}
	return nil
}
