package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/config"
	"github.com/grovetools/teamboard/internal/broadcast"
	"github.com/grovetools/teamboard/internal/metrics"
	"github.com/grovetools/teamboard/internal/pidfile"
	"github.com/grovetools/teamboard/internal/server"
	"github.com/grovetools/teamboard/internal/watcher"
	"github.com/grovetools/teamboard/logging"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/grovetools/teamboard/pkg/profiling"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var profiler profiling.Profiler
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long:  "Start the dashboard server in the foreground. Stops on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logging.Configure(cfg.Logging)
			logger := cli.GetLogger(cmd, "serve")
			if cfgPath != "" {
				logger.WithField("path", cfgPath).Info("Loaded configuration")
			}

			pidPath := paths.PidFilePath()
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.WithError(err).Error("Failed to release pidfile")
				}
			}()

			if err := profiler.Start(); err != nil {
				return err
			}
			defer func() {
				if err := profiler.Stop(); err != nil {
					logger.WithError(err).Error("Failed to write profile")
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pretty := logging.NewPrettyLoggerTo(cmd.ErrOrStderr())
			err = runServer(ctx, cfg, logger, func(addr net.Addr) {
				pretty.Success("teamboard is running")
				pretty.Field("Listening", "http://"+addr.String())
				pretty.Path("Teams", paths.NewResolver(cfg.TeamsPath).Root())
				pretty.Field("PID", os.Getpid())
			})
			if err != nil {
				pretty.Failure("teamboard stopped", err)
			}
			return err
		},
	}
	config.RegisterFlags(cmd.Flags())
	profiler.AddFlags(cmd.Flags())
	return cmd
}

// runServer wires the components for cfg and serves until ctx ends or a
// component fails. onListen is called once the port is bound.
func runServer(ctx context.Context, cfg *config.Config, logger *logrus.Entry, onListen func(net.Addr)) error {
	loader := newLoader(cfg)
	m := metrics.New()

	registry := broadcast.NewRegistry(broadcast.Options{
		MaxClients:        cfg.Stream.MaxClients,
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
		ReapInterval:      cfg.Stream.ReapInterval,
		Observer:          m,
		Logger:            logging.NewLogger("broadcast"),
	})

	w, err := watcher.New(cfg.Watch, loader, registry, logging.NewLogger("watcher"))
	if err != nil {
		return err
	}
	w.SetObserver(m)

	srv := server.New(loader, registry, logging.NewLogger("server"))
	srv.SetMetrics(m)
	if cfg.StaticDir != "" {
		srv.SetStaticDir(cfg.StaticDir)
	}

	teams, err := loader.LoadAll(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to preload teams")
	} else {
		logger.WithField("count", len(teams)).Info("Loaded teams")
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}
	srv.SetRunningConfig(&server.RunningConfig{
		TeamsPath:         loader.Resolver().Root(),
		Addr:              listener.Addr().String(),
		MaxClients:        registry.MaxClients(),
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
		ReapInterval:      cfg.Stream.ReapInterval,
		StartedAt:         time.Now(),
	})

	registry.Start(ctx)

	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Start(ctx) }()
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(listener) }()

	logger.WithField("pid", os.Getpid()).Info("Starting teamboard")
	if onListen != nil {
		onListen(listener.Addr())
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal")
	case err := <-watchErr:
		runErr = err
	case err := <-serveErr:
		runErr = err
	}

	// Order matters: no new events, then no open streams, then no listener.
	if err := w.Close(); err != nil {
		logger.WithError(err).Debug("Watcher close error")
	}
	registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	if runErr != nil {
		return fmt.Errorf("server error: %w", runErr)
	}
	return nil
}
