// Package main provides the entry point for mistkv-server.
//
// mistkv-server is a single-node in-memory key-value store speaking a
// Redis-compatible RESP protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mistkv/mistkv-go/internal/infra/buildinfo"
	"github.com/mistkv/mistkv-go/internal/infra/confloader"
	"github.com/mistkv/mistkv-go/internal/infra/shutdown"
	"github.com/mistkv/mistkv-go/internal/server/config"
	"github.com/mistkv/mistkv-go/internal/server/respserver"
	"github.com/mistkv/mistkv-go/internal/store"
	"github.com/mistkv/mistkv-go/internal/telemetry/logger"
	"github.com/mistkv/mistkv-go/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "mistkv-server",
		Usage:   "in-memory RESP key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"MISTKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address (overrides config)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")

	cfg := config.Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(configFile))
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.RESP.Addr = addr
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("verify config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := log.Slog()

	log.Info("starting mistkv-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", configFile)

	metrics := metric.New()

	st := store.New(store.WithShards(cfg.Store.Shards))
	if err := metrics.Register(metric.NewStoreCollector(st.Len)); err != nil {
		return fmt.Errorf("register store collector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := store.NewSweeper(st, cfg.Store.SweepInterval, slogger, metrics)
	go sweeper.Run(ctx)

	respSrv := respserver.New(&respserver.Config{
		Addr:         cfg.Server.RESP.Addr,
		ReadTimeout:  cfg.Server.RESP.ReadTimeout,
		WriteTimeout: cfg.Server.RESP.WriteTimeout,
		IdleTimeout:  cfg.Server.RESP.IdleTimeout,
		RateLimit:    cfg.Server.RESP.RateLimit,
	}, st, slogger, metrics)
	if err := respSrv.Start(ctx); err != nil {
		return fmt.Errorf("start resp server: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.Server.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Server.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics server listening", "addr", cfg.Server.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	var watcher *confloader.Watcher
	if configFile != "" {
		watcher, err = watchConfig(configFile, slogger, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
			watcher = nil
		}
	}

	// Register shutdown hooks in startup order; they run reversed.
	shutdownHandler := shutdown.NewHandler(30 * time.Second)
	if watcher != nil {
		shutdownHandler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}
	shutdownHandler.OnShutdown(func(context.Context) error {
		log.Info("stopping sweeper")
		cancel()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down resp server")
		return respSrv.Shutdown(ctx)
	})
	if metricsSrv != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsSrv.Shutdown(ctx)
		})
	}

	log.Info("mistkv-server started", "addr", cfg.Server.RESP.Addr)
	return shutdownHandler.Wait()
}

// watchConfig reloads the log level when the config file changes.
// Other settings require a restart.
func watchConfig(configFile string, slogger *slog.Logger, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogger))
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		if filepath.Base(changed) != filepath.Base(configFile) {
			return
		}

		cfg := config.Default()
		loader := confloader.NewLoader(confloader.WithConfigFile(configFile))
		if err := loader.Load(cfg); err != nil {
			log.Error("config reload failed", "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Error("config reload rejected", "error", err)
			return
		}

		if cfg.Log.Level != logger.GetLevel() {
			log.Info("log level changed", "level", cfg.Log.Level)
			logger.SetLevel(cfg.Log.Level)
		}
	})

	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.StartAsync()

	return watcher, nil
}
