package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/diamond-plays/internal/app"
	"github.com/riskibarqy/diamond-plays/internal/config"
	"github.com/riskibarqy/diamond-plays/internal/observability"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/riskibarqy/diamond-plays/internal/usecase"
)

// seedWindow is how many days either side of today get a demo slate.
const seedWindow = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).Named("fakeapi")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}

	today := time.Now().In(cfg.Location)
	dates := make([]string, 0, 2*seedWindow+1)
	for offset := -seedWindow; offset <= seedWindow; offset++ {
		dates = append(dates, usecase.FormatLocalDate(today.AddDate(0, 0, offset), cfg.Location))
	}

	srv, err := app.NewFakeAPIServer(app.FakeAPIConfig{
		Addr:               cfg.FakeAPIAddr,
		Latency:            cfg.FakeAPILatency,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SeedDates:          dates,
	}, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.FakeAPIAddr, "seed_from", dates[0], "seed_to", dates[len(dates)-1])
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}

	logger.Info("http server stopped")
}
