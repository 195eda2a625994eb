package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/server"
)

const (
	cacheCleanupInterval = 10 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP fragment endpoint",
		Long: `Start the HTTP fragment endpoint.

Fragments are served at /fragments as N-Quads with the total count in the
X-Total-Count and X-Exact-Count trailers. Prometheus metrics are served at
/metrics.

Example:
  trigo-conceptnet serve --addr :8080 --store ./counts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := rootOpts.logger(cmd.ErrOrStderr())

			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go a.datasource.CountCache().RunCleanup(ctx, cacheCleanupInterval)

			srv := server.NewServer(a.datasource, cfg.Server.Addr, logger, a.registry)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")
	return cmd
}
