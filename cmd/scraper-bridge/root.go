package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/config"
	"github.com/JakeFAU/rtcv-scraper-bridge/internal/logging"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/scraper"
)

// appKeyType is the key for storing the app in the command context.
type appKeyType string

const appKey appKeyType = "app"

// oneShotAnnotation marks commands that make a few calls and exit. They skip
// the background health check and slug registration.
const oneShotAnnotation = "oneshot"

// app holds what every subcommand needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	server  *scraper.Server
	sidecar *sidecar
}

func (a *app) Close() {
	a.server.Close()
	_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
}

// host is swapped in tests.
var host scraper.Host = scraper.OSHost{}

func newApp(cfg config.Config, logger *zap.Logger, oneShot bool) (*app, error) {
	sc := newSidecar(cfg.Scraper.Slug, logger.Named("sidecar"))
	server, err := scraper.New(cfg.Scraper.Slug, sc.handlers(), scraper.Options{
		APIServer:          cfg.Backend.URL,
		AlternativeServer:  cfg.Backend.AlternativeURL,
		DisableAlternative: cfg.Backend.DisableAlternative,
		Port:               cfg.Server.Port,
		NoHealthChecks:     cfg.Checks.NoHealthChecks || oneShot,
		SkipSlugCheck:      cfg.Checks.SkipSlugCheck || oneShot,
		SkipAliveCheck:     cfg.Checks.SkipAliveCheck,
		CustomHandlers:     sc.customHandlers(),
		Host:               host,
		Logger:             logger,
		Timeout:            cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("create scraper server: %w", err)
	}
	return &app{cfg: cfg, logger: logger, server: server, sidecar: sc}, nil
}

func appFrom(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "scraper-bridge",
		Short:         "Connects a scraper to RT-CV",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `scraper-bridge forwards scraped CVs to RT-CV and answers the requests
RT-CV sends back to scrapers. Configure it with a config file, SCRAPER_*
environment variables or the classic RTCV_SERVER, RTCV_ALTERNATIVE_SERVER,
SERVER_PORT and SKIP_ALIVE_CHECK variables.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Scraper.Slug)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			a, err := newApp(cfg, logger, cmd.Annotations[oneShotAnnotation] == "true")
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, err := appFrom(cmd.Context()); err == nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file")
	cmd.AddCommand(newServeCmd(), newUsersCmd(), newStatusCmd())
	return cmd
}
