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

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/config"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/feed"
	httpapi "github.com/JohandeGraaf/busyness-tracker-pi/internal/http"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/http/handlers"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/kismet"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/kismetdb"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/logging"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/metrics"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/oui"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/scheduler"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/uploader"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// sensor is what both Kismet adapters provide.
type sensor interface {
	scheduler.Source
	handlers.Sensor
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	source, closeSource, err := openSensor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open sensing backend", "err", err)
		os.Exit(1)
	}
	defer closeSource()

	vendors, err := oui.LoadFile(cfg.OUIDBPath)
	if err != nil {
		logger.Warn("oui db unavailable; vendors will show as unknown", "err", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := feed.NewHub()
	sender := uploader.New(uploader.Config{
		Endpoint: cfg.CollectorURL,
		Token:    cfg.CollectorToken,
		Timeout:  cfg.UploadTimeout,
	})
	sched := scheduler.New(cfg, source, sender, hub, m, logger)

	logger.Info("busyness tracker starting",
		"source", cfg.SourceName,
		"collector", cfg.CollectorURL,
		"poll_interval", cfg.PollInterval.String(),
		"oui_vendors", vendors.Len(),
	)

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	if cfg.HTTPAddr == "" {
		logger.Info("status api disabled")
		<-schedDone
		logger.Info("busyness tracker stopped")
		return
	}

	api := handlers.New(sched, hub, source, vendors, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api, reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("status api starting", "addr", httpServer.Addr)
	if err := httpapi.RunServer(ctx, httpServer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		stop()
		<-schedDone
		os.Exit(1)
	}
	<-schedDone
	logger.Info("busyness tracker stopped")
}

// openSensor prefers the Kismet log file when one is configured and falls back
// to the REST API otherwise.
func openSensor(ctx context.Context, cfg config.Config, logger *slog.Logger) (sensor, func(), error) {
	if cfg.KismetDBPath != "" {
		reader, err := kismetdb.Open(ctx, cfg.KismetDBPath, cfg.QueryTimeout, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("reading devices from kismet log", "path", cfg.KismetDBPath)
		return reader, func() { _ = reader.Close() }, nil
	}

	client := kismet.NewClient(kismet.Config{
		BaseURL:  cfg.KismetURL,
		Username: cfg.KismetUsername,
		Password: cfg.KismetPassword,
		APIKey:   cfg.KismetAPIKey,
		Timeout:  cfg.QueryTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("kismet not reachable yet; cycles will retry", "url", cfg.KismetURL, "err", err)
	}
	return client, func() {}, nil
}
