package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the inbound router and forwards scraped CVs",
		Long: `Starts the router RT-CV calls back into, together with the sidecar
routes POST /scraped-cv and POST /login-attempt. With stats.enabled the
Prometheus stats server runs next to it. Stops on SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.ListenAndServe(gCtx)
	})
	if a.cfg.Stats.Enabled {
		g.Go(func() error {
			return a.sidecar.stats.Serve(gCtx, a.cfg.Stats.Port, a.logger.Named("stats"))
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	a.logger.Info("shutdown complete", zap.Int("cached_cvs", a.sidecar.cache.Len()))
	return nil
}
