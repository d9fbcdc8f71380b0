package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/strata-dev/strata"
	"github.com/strata-dev/strata/internal/config"
	"github.com/strata-dev/strata/internal/demo"
	"github.com/strata-dev/strata/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		cfgPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo application",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Addr()
			}

			logger := newLogger(cfg.LogLevel)
			app, err := strata.New(demo.Routes(), strata.WithLogger(logger))
			if err != nil {
				return err
			}

			r := chi.NewRouter()
			r.Use(chimw.RequestID)
			r.Use(chimw.RealIP)
			r.Use(chimw.Recoverer)
			if cfg.Observability.Tracing {
				r.Use(middleware.OpenTelemetry(middleware.WithTracerName(cfg.Name)))
			}
			if cfg.Observability.Metrics {
				r.Use(middleware.Prometheus(middleware.WithNamespace(cfg.Name)))
				r.Handle("/metrics", promhttp.Handler())
			}
			r.Handle("/*", app)

			srv := &http.Server{Addr: addr, Handler: r}

			errc := make(chan error, 1)
			go func() {
				logger.Info("strata: listening", "addr", addr)
				errc <- srv.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errc:
				return err
			case sig := <-stop:
				logger.Info("strata: shutting down", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to strata.json")
	return cmd
}

// loadConfig reads strata.json from the explicit path or the working
// directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// newLogger builds a text slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
