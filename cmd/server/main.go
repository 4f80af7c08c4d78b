package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"

	"github.com/paraclete/paraclete/internal/config"
	"github.com/paraclete/paraclete/internal/logging"
	"github.com/paraclete/paraclete/internal/metrics"
	"github.com/paraclete/paraclete/internal/server"
	"github.com/paraclete/paraclete/internal/signaling"
	"github.com/paraclete/paraclete/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paraclete-server:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		opts        config.ServerOptions
		debug       bool
		showVersion bool
	)
	flag.StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML config file")
	flag.IntVarP(&opts.Port, "port", "p", 0, "listen port (default 3000)")
	flag.StringSliceVar(&opts.AllowedOrigins, "allowed-origins", nil, "browser origins allowed to connect, \"*\" for any")
	flag.StringVar(&opts.StaticDir, "static-dir", "", "directory holding the web client")
	flag.BoolVar(&debug, "debug-endpoints", false, "expose GET /rooms")
	flag.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error")
	flag.BoolVarP(&showVersion, "version", "v", false, "print the version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Version)
		return nil
	}
	if flag.CommandLine.Changed("debug-endpoints") {
		opts.DebugEndpoints = &debug
	}

	cfg, err := config.LoadServer(opts)
	if err != nil {
		return err
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := signaling.NewHub(logger, metrics.New(reg))
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	httpServer := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.NewRouter(hub, server.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			StaticDir:      cfg.StaticDir,
			DebugEndpoints: cfg.DebugEndpoints,
			Gatherer:       reg,
		}, logger),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown handler
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("starting signaling server",
		"addr", cfg.Addr(),
		"version", version.Version,
		"allowed_origins", cfg.AllowedOrigins,
		"static_dir", cfg.StaticDir,
		"debug_endpoints", cfg.DebugEndpoints,
	)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-hubDone
		return err
	}

	<-hubDone
	logger.Info("server stopped")
	return nil
}
