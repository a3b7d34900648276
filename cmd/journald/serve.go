package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/fyrsmithlabs/journald/internal/config"
	httpserver "github.com/fyrsmithlabs/journald/internal/http"
	"github.com/fyrsmithlabs/journald/internal/logging"
	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/fyrsmithlabs/journald/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the journal web server",
		Long: `Run the journal web server until SIGINT or SIGTERM.

Examples:
  journald serve
  journald serve --port 8080 --data-dir ./backend`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.http_port)")
	return cmd
}

// run starts the server and blocks until ctx is cancelled.
//
// Startup order:
//  1. Telemetry, so the store and HTTP instruments bind to live providers
//  2. Logger, bridged to OTEL when telemetry is on
//  3. Store and a watcher on its backing document
//  4. HTTP server, shut down gracefully on cancellation
func run(ctx context.Context, cfg *config.Config) error {
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return err
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	logCfg, err := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	logCfg.Output.OTEL = tel.LoggerProvider() != nil
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("problems", h.Problems))
	}

	store, path, err := openStore(cfg, logger.Named("reflection").Underlying())
	if err != nil {
		return err
	}

	srv, err := httpserver.NewServer(store, logger, &httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		ServiceName:     cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}

	if path != "" {
		w, err := reflection.NewWatcher(path, logger.Named("watcher").Underlying())
		if err != nil {
			// The server works without it; only the gauge goes stale.
			logger.Warn(ctx, "backing document watcher unavailable", zap.Error(err))
		} else {
			defer w.Close()
			go func() {
				_ = w.Run(ctx, func(fsnotify.Op) { srv.RefreshGauge(ctx) })
			}()
		}
	}

	logger.Info(ctx, "journald starting",
		zap.String("version", version),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", path))

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info(context.Background(), "journald stopped")
	return nil
}
