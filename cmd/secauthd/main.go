// Command secauthd serves the authentication API over HTTP.
//
// Configuration is read from SECAUTH_* environment variables, with a
// .env file loaded first when present. SECAUTH_ADDR sets the listen
// address (default :8080); SECAUTH_REDIS_ADDR enables Redis-backed
// login throttling shared across instances.
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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/httpapi"
	"github.com/velvetcart/secauth/middleware"
	"github.com/velvetcart/secauth/privacy"
	"github.com/velvetcart/secauth/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("secauthd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := secauth.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	codec, err := privacy.NewCodec(privacy.Config{
		MasterSecret: cfg.Privacy.MasterSecret,
		Iterations:   cfg.Privacy.Iterations,
	})
	if err != nil {
		return err
	}

	builder := secauth.New().
		WithConfig(cfg).
		WithStore(store.NewMemory(codec)).
		WithAuditSink(secauth.NewJSONWriterSink(os.Stdout))

	if addr := os.Getenv("SECAUTH_REDIS_ADDR"); addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return err
		}
		builder = builder.WithRedis(client)
		logger.Info("throttle state shared via redis", "addr", addr)
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpapi.NewEngineCollector(engine),
	)

	api := httpapi.New(engine, httpapi.Config{
		SecureCookies:  cfg.Security.RequireSecureCookies,
		CSRFProtection: cfg.Security.CSRFProtection,
		Logger:         logger,
		Registry:       registry,
	})

	limiter := middleware.NewRateLimiter(rate.Limit(20), 40)

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.Handle("/", limiter.Handler(api.Routes()))

	addr := os.Getenv("SECAUTH_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
