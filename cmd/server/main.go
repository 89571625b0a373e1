package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"

	"github.com/copyleftdev/lplab/internal/cache"
	"github.com/copyleftdev/lplab/internal/config"
	apperrors "github.com/copyleftdev/lplab/internal/errors"
	"github.com/copyleftdev/lplab/internal/logging"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
	"github.com/copyleftdev/lplab/internal/metrics"
	"github.com/copyleftdev/lplab/internal/server"
	"github.com/copyleftdev/lplab/internal/solve"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	serviceLogger := logger.WithFields(map[string]interface{}{
		"service": "lplab-server",
		"env":     cfg.Environment,
	})

	rule, err := simplex.ParseRule(cfg.Solver.PivotRule)
	if err != nil {
		serviceLogger.Fatal("invalid pivot rule", map[string]interface{}{"error": err.Error()})
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	service := solve.NewService(solve.Options{
		MaxIterations:      cfg.Solver.MaxIterations,
		Rule:               rule,
		StabilityThreshold: cfg.Solver.StabilityThreshold,
		Timeout:            cfg.Solver.Timeout,
		CrossCheck:         cfg.Solver.CrossCheck,
		ReferenceTimeout:   cfg.Solver.ReferenceTimeout,
	}, logging.NewZapLogger(serviceLogger), m)

	store, err := newStore(cfg)
	if err != nil {
		serviceLogger.Fatal("failed to open report store", map[string]interface{}{
			"backend": cfg.Cache.Backend,
			"error":   err.Error(),
		})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(serviceLogger))
	r.Use(apperrors.RecoveryMiddleware(serviceLogger))
	r.Use(middleware.Timeout(cfg.Solver.Timeout + 5*time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := server.NewServer(cfg, serviceLogger, service, store, m)
	srv.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		serviceLogger.Info("starting server", map[string]interface{}{
			"address":     httpServer.Addr,
			"store":       cfg.Cache.Backend,
			"pivot_rule":  string(rule),
			"rate_limit":  cfg.RateLimit.RPS,
			"cross_check": cfg.Solver.CrossCheck,
			"reference":   cfg.Solver.ReferenceTimeout.String(),
		})

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.Fatal("failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLogger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error("server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	if err := srv.Close(); err != nil {
		serviceLogger.Error("error closing report store", map[string]interface{}{"error": err.Error()})
	}

	serviceLogger.Info("server stopped")
}

// newStore opens the configured report store. A Redis store must answer a
// ping before the server starts.
func newStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryStore(cfg.Cache.TTL), nil
	}

	store := cache.NewRedisStore(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	}, cfg.Cache.Prefix, cfg.Cache.TTL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
