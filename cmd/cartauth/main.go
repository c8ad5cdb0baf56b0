// Command cartauth serves the session API.
//
// Usage:
//
//	cartauth [--config path/to/config.yaml]
//
// The public API listens on PORT (default 5000). A second listener on OPS_PORT
// serves /livez, /healthz and /metrics. With OTEL_ENABLED the same counters are
// pushed over OTLP/HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/config"
	"github.com/MrEthical07/cartauth/internal/transport/rest"
	mongostore "github.com/MrEthical07/cartauth/internal/userstore/mongo"
	promexport "github.com/MrEthical07/cartauth/metrics/export/prometheus"
	"github.com/MrEthical07/cartauth/password"
	"github.com/redis/go-redis/v9"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Log)
	slog.SetDefault(log)
	log.Info("starting application", slog.String("env", cfg.Env))

	if err := run(cfg, log); err != nil {
		log.Error("service_failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	hasher, err := newHasher(cfg.Password)
	if err != nil {
		return err
	}

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	users, err := mongostore.New(dbCtx, cfg.Mongo.URI, hasher)
	dbCancel()
	if err != nil {
		return err
	}
	log.Info("mongo_connected")
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = users.Close(closeCtx)
	}()

	engine, err := cartauth.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithUserProvider(users).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	// a dead Redis is not fatal at boot; /healthz reports it
	pingCtx, pingCancel := context.WithTimeout(rootCtx, 5*time.Second)
	if latency, err := engine.Ping(pingCtx); err != nil {
		log.Warn("redis_unreachable", slog.Any("error", err))
	} else {
		log.Info("redis_connected", slog.Duration("latency", latency))
	}
	pingCancel()

	stopOTel, err := startOTel(rootCtx, cfg.OTel, engine)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stopOTel(flushCtx); err != nil {
			log.Warn("otel_shutdown_failed", slog.Any("error", err))
		}
	}()
	if cfg.OTel.Enabled {
		log.Info("otel_metrics_enabled", slog.Duration("interval", cfg.OTel.Interval))
	}

	proxies, err := cfg.HTTP.Proxies()
	if err != nil {
		return err
	}

	var ready int32
	opsSrv, err := newOpsServer(cfg.Ops.Addr(), engine, users, &ready)
	if err != nil {
		return err
	}

	apiSrv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: rest.NewRouter(engine, rest.Options{
			Logger:         log,
			Timeout:        cfg.Timeouts.Request,
			TrustedProxies: proxies,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 2)
	for _, srv := range []*http.Server{opsSrv, apiSrv} {
		go func(srv *http.Server) {
			log.Info("http_listen_start", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErrCh <- err
			}
		}(srv)
	}
	atomic.StoreInt32(&ready, 1)

	var serveErr error
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		log.Error("http_serve_failed", slog.Any("error", serveErr))
	}
	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.Any("error", err))
	}
	_ = opsSrv.Shutdown(shutdownCtx)

	return serveErr
}

func newHasher(cfg config.PasswordConfig) (*password.Multi, error) {
	primary, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}
	legacy, err := password.NewBcrypt(cfg.SaltWorkFactor)
	if err != nil {
		return nil, err
	}
	return password.NewMulti(primary, legacy)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newOpsServer(addr string, engine *cartauth.Engine, users pinger, ready *int32) (*http.Server, error) {
	metricsHandler, err := promexport.Handler(engine)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := engine.Ping(ctx); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := users.Ping(ctx); err != nil {
			http.Error(w, "mongo unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metricsHandler)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
