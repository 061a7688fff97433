package main

import (
	"codegen-relay/pkg/config"
	"codegen-relay/pkg/db"
	"codegen-relay/pkg/handler"
	"codegen-relay/pkg/logx"
	"codegen-relay/pkg/metrics"
	"codegen-relay/pkg/relay"
	"codegen-relay/pkg/server"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env before anything reads the environment
	if err := config.LoadDotEnv(); err != nil {
		logx.Log.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("invalid configuration")
	}
	logx.Configure(cfg.LogLevel)

	if _, ok := (relay.EnvCredentials{}).Lookup(cfg.Variant.CredentialEnv); !ok {
		logx.Log.Warn().Str("env", cfg.Variant.CredentialEnv).Msg("upstream credential is not set; /generate will answer 500 until it is")
	}

	// Optional generation log
	var repo db.Repository = db.NopRepository{}
	if cfg.DatabaseURL != "" {
		pg, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("failed to init DB")
		}
		repo = pg
	}
	defer repo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		logx.Log.Fatal().Err(err).Msg("failed to register metrics")
	}

	rl := relay.New(cfg.Variant, relay.EnvCredentials{},
		relay.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}))
	gs := handler.NewGenerateServer(rl, repo, m, cfg.ErrorMode == config.ErrorModeLegacy)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(gs, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logx.Log.Info().
		Str("variant", cfg.Variant.Name).
		Str("model", cfg.Variant.Model).
		Str("port", cfg.Port).
		Str("error_mode", cfg.ErrorMode).
		Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Log.Error().Err(err).Msg("server failed to start")
		os.Exit(1)
	}

	// Handlers have drained once Shutdown returns; then flush pending log writes.
	<-shutdownDone
	gs.Wait()
}
