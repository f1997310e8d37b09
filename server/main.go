package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burntcarrot/linepad/config"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:          "linepad-server",
		Short:        "Relay server for linepad sessions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindServerFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cfg.Server)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "Server's network address")
	flags.String("metrics-path", "/metrics", "Path serving Prometheus metrics")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")

	return cmd
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(config.ErrInvalidConfig, "log level %q", level)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(lvl)
	return logger, nil
}

// newMux routes WebSocket connections to the hub and serves the metrics.
func newMux(h *hub, reg *prometheus.Registry, metricsPath string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleConn)
	mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func run(cfg config.ServerConfig) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := newHub(logger, newMetrics(reg))
	go h.run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(h, reg, cfg.MetricsPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	// Start the server.
	color.Cyan("Starting server on %s (metrics on %s)\n", cfg.Addr, cfg.MetricsPath)
	logger.WithField("addr", cfg.Addr).Info("server started")

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("error starting server, exiting")
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down server")
		}
	}
	return nil
}
