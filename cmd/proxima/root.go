package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "proxima",
	Short: "Proxima - developer reverse proxy with a simulated identity provider",
	Long: `Proxima is a local reverse proxy for application development.

It forwards requests to configured downstream services, injecting and
renaming headers according to the active preset, and acts as a simulated
OpenID Connect provider:
  - Header presets with static injection and rename rules
  - Pattern-based request routing to multiple downstreams
  - OAuth2 authorization code flow without a login UI
  - JWT issuance with HS256 and RS256 signing keys
  - Discovery document and JWKS endpoints for client libraries

For more information, visit: https://github.com/FreeSideNomad/proxima`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "proxima.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
