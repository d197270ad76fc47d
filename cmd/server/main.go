package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"reserva/internal/api"
	"reserva/internal/config"
	"reserva/internal/events"
	"reserva/internal/fetch"
	"reserva/internal/metrics"
	"reserva/internal/session"
	"reserva/internal/store"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("RESERVA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.API.BaseURL == "" {
		logger.Fatal().Msg("set api.base_url in config")
	}

	sessions := session.NewMemoryStore()
	if cfg.API.Token != "" {
		if err := sessions.SetToken(cfg.API.Token); err != nil {
			logger.Fatal().Err(err).Msg("invalid api token")
		}
	} else {
		logger.Warn().Msg("no api token configured; upstream requests are unauthenticated")
	}

	snapshotDB, err := store.NewDB(cfg.Snapshot.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot db error")
	}
	defer snapshotDB.Close()

	client := fetch.NewClient(cfg.API.BaseURL, session.TokenSource(sessions), cfg.APITimeout())
	if cfg.API.RatePerSecond > 0 {
		client.SetRateLimit(cfg.API.RatePerSecond, cfg.API.RateBurst)
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewBus()
	bus.Subscribe(events.TypeFetchFailed, func(e events.Event) {
		logger.Warn().Str("reason", e.Message).Msg("reservation refresh failed; serving stale snapshot")
	})

	syncer := fetch.NewSyncer(client, snapshotDB, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	syncer.Bootstrap(ctx)
	if err := syncer.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial fetch failed; starting with persisted snapshot")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Calendar.RefreshCron, func() {
		refreshCtx, cancel := context.WithTimeout(ctx, cfg.APITimeout()+5*time.Second)
		defer cancel()
		_ = syncer.Refresh(refreshCtx)
	}); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.Calendar.RefreshCron).Msg("invalid refresh cron spec")
	}
	if cfg.Backup.Enabled {
		backups := store.NewBackupService(cfg.Snapshot.Path, cfg.Backup.StoragePath, cfg.Backup.RetentionDays, logger)
		if _, err := scheduler.AddFunc(cfg.Backup.Cron, backups.Run); err != nil {
			logger.Fatal().Err(err).Str("spec", cfg.Backup.Cron).Msg("invalid backup cron spec")
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, snapshotDB, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	apiServer := api.NewServer(syncer, sessions, cfg.Calendar.FirstHour, cfg.Calendar.SlotCount, logger)
	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: apiServer.Handler()}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("calendar server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func startHealthServer(ctx context.Context, port int, database *store.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
