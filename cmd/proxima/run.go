package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FreeSideNomad/proxima/pkg/cli"
	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/codes"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
	"github.com/FreeSideNomad/proxima/pkg/oidc/tokens"
	"github.com/FreeSideNomad/proxima/pkg/proxy"
	"github.com/FreeSideNomad/proxima/pkg/routing"
	"github.com/FreeSideNomad/proxima/pkg/scheduler"
	"github.com/FreeSideNomad/proxima/pkg/server"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/health"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/logging"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/metrics"
)

const (
	codeSweepSchedule    = "@every 5m"
	tokenRefreshSchedule = "@every 5m"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Proxima proxy server",
	Long: `Start the Proxima proxy server with the specified configuration.

The server forwards requests to the configured downstreams, serves the
OAuth2 and discovery endpoints, and exposes the admin APIs under /proxima.

Examples:
  # Start with default config
  proxima run

  # Start with custom config
  proxima run --config /etc/proxima/proxima.yaml

  # Override listen address
  proxima run --listen 0.0.0.0:9090

  # Validate config without starting the server
  proxima run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	store, err := config.NewStore(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	cfg := store.Snapshot()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.Setup(&cfg.Telemetry.Logging, verbose)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Proxima v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	keys, err := keystore.New()
	if err != nil {
		return fmt.Errorf("failed to initialize key store: %w", err)
	}
	fmt.Println("✓ Signing keys generated")

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	ledger := codes.NewLedger()
	cache := tokens.NewCache(keys, store)
	cache.SetMetrics(collector.OIDC())

	resolver := routing.NewResolver(store)
	forwarder := proxy.NewForwarder(resolver, store, collector.Proxy())

	checker := health.New(0)
	checker.RegisterCheck("config", func(ctx context.Context) error {
		return config.Validate(store.Snapshot())
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := store.Watch(ctx); err != nil {
		logger.Warn("config watching disabled", "error", err)
	}

	cache.GenerateAllOnStartup()
	if presets := store.OIDCEnabledPresets(); len(presets) > 0 {
		fmt.Printf("✓ Token sets minted (%d presets)\n", len(presets))
	}

	sched := scheduler.New()
	if err := sched.Add(scheduler.Job{
		Name:     "code-sweep",
		Schedule: codeSweepSchedule,
		Run:      func() { ledger.CleanupExpired() },
	}); err != nil {
		return fmt.Errorf("failed to schedule code sweep: %w", err)
	}
	if err := sched.Add(scheduler.Job{
		Name:     "token-refresh",
		Schedule: tokenRefreshSchedule,
		Run:      func() { cache.RefreshExpiringSoon() },
	}); err != nil {
		return fmt.Errorf("failed to schedule token refresh: %w", err)
	}
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.NewServer(&cfg.Server, server.Components{
		Store:     store,
		Keys:      keys,
		Ledger:    ledger,
		Cache:     cache,
		Forwarder: forwarder,
		Checker:   checker,
		Metrics:   collector,
	})

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Downstream: %s\n", cfg.Downstream.URL)
	fmt.Printf("✓ Discovery: http://%s/.well-known/openid-configuration\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics: http://%s/proxima/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
