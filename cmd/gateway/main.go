package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crpt-gateway/crpt"
	"crpt-gateway/crpt/application"
	"crpt-gateway/crpt/infra"
	"crpt-gateway/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	limiter, err := infra.NewWindowLimiter(cfg.Limiter.Window, cfg.Limiter.Limit)
	if err != nil {
		logger.Error("limiter error", "error", err)
		os.Exit(1)
	}
	defer limiter.Stop()

	transport := infra.NewHTTPTransport(
		cfg.Upstream.URL,
		infra.WithTimeout(cfg.Upstream.Timeout),
		infra.WithBearerToken(cfg.Upstream.Token),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	infra.RegisterLimiterGauges(reg, limiter)

	stats := infra.MultiStats{
		infra.NewMemoryStatsStore(infra.WithTrackDocTypes(true)),
		infra.NewPrometheusStats(reg),
	}
	if cfg.Stats.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Error("redis stats ping error", "addr", cfg.Stats.RedisAddr, "error", err)
			os.Exit(1)
		}
		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
		))
	}

	gateway, err := application.NewGateway(limiter, transport,
		application.WithStats(stats),
		application.WithLogger(logger),
		application.WithAcquireTimeout(cfg.Limiter.AcquireTimeout),
	)
	if err != nil {
		logger.Error("gateway error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var ingress func(http.Handler) http.Handler
	if cfg.Ingress.Enabled {
		store := infra.NewClientStore(cfg.Ingress.RPS, cfg.Ingress.Burst)
		store.StartJanitor(ctx)
		ingress = crpt.Ingress(crpt.IngressOptions{
			Store:              store,
			KeyHeader:          cfg.Ingress.KeyHeader,
			TrustXForwardedFor: cfg.Ingress.TrustXFF,
			Logger:             logger,
		})
	}

	router := crpt.NewRouter(crpt.RouterOptions{
		Handler: crpt.NewHandler(gateway, limiter, cfg.Limiter.Window, logger),
		Ingress: ingress,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// WriteTimeout fica em zero: uma submissão pode esperar a janela inteira.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// libera quem está esperando vaga antes de drenar as conexões
		limiter.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		"addr", cfg.ListenAddr,
		"upstream", transport.URL(),
	)
	logger.Info("limiter",
		"window", cfg.Limiter.Window,
		"limit", cfg.Limiter.Limit,
		"acquire_timeout", cfg.Limiter.AcquireTimeout,
	)
	logger.Info("ingress",
		"enabled", cfg.Ingress.Enabled,
		"rps", cfg.Ingress.RPS,
		"burst", cfg.Ingress.Burst,
		"key_header", cfg.Ingress.KeyHeader,
		"trust_xff", cfg.Ingress.TrustXFF,
	)
	logger.Info("stats", "redis_enabled", cfg.Stats.Enabled, "redis_addr", cfg.Stats.RedisAddr, "prefix", cfg.Stats.Prefix)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
