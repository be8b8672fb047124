package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicore/opdflow/internal/api"
	"github.com/clinicore/opdflow/internal/clinic"
	"github.com/clinicore/opdflow/internal/config"
	"github.com/clinicore/opdflow/internal/db"
	redisclient "github.com/clinicore/opdflow/internal/redis"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config load error")
	}

	logger := newLogger(cfg.Env)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("registry_backend", cfg.RegistryBackend).
		Int("queue_capacity", cfg.QueueCapacity).
		Msg("clinic-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		patients clinic.PatientRegistry
		doctors  clinic.DoctorRegistry
		pgPool   *pgxpool.Pool
		rdb      *redis.Client
	)

	switch cfg.RegistryBackend {
	case config.BackendPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()
		reg := clinic.NewPgRegistry(pgPool)
		patients, doctors = reg, reg
		logger.Info().Msg("connected to Postgres")

	case config.BackendRedis:
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		reg := clinic.NewRedisRegistry(rdb)
		patients, doctors = reg, reg
		logger.Info().Msg("connected to Redis")

	default:
		reg := clinic.NewMemoryRegistry()
		patients, doctors = reg, reg
	}

	cl := clinic.New(patients, doctors, cfg.QueueCapacity, logger.With().Str("component", "clinic").Logger())

	handler := api.NewRouter(api.RouterConfig{
		Clinic:  cl,
		PgPool:  pgPool,
		Redis:   rdb,
		Logger:  logger.With().Str("component", "http").Logger(),
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("http server error")
	case <-rootCtx.Done():
	}

	logger.Info().Msg("shutting down clinic-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
