package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FreeSideNomad/proxima/pkg/cli"
	"github.com/FreeSideNomad/proxima/pkg/config"
)

var validateFlags struct {
	env    bool
	format string
}

// validationReport is the validate command's result in a form both
// formatters can render.
type validationReport struct {
	File     string         `json:"file"`
	Valid    bool           `json:"valid"`
	Problems []problemEntry `json:"problems,omitempty"`
	Routes   int            `json:"routes"`
	Presets  int            `json:"presets"`
}

type problemEntry struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a Proxima configuration file.

The validate command parses the file, applies defaults, and checks every
field: server timeouts, route patterns, preset uniqueness, persona
requirements, and reserved path prefixes. All problems are reported at
once rather than stopping at the first.

Examples:
  # Validate the default config file
  proxima validate

  # Validate a specific file
  proxima validate --config /etc/proxima/proxima.yaml

  # Machine-readable report
  proxima validate --format json

  # Include environment variable overrides in the check
  proxima validate --env`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.env, "env", false, "apply PROXIMA_* environment overrides before validating")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	load := config.LoadConfig
	if validateFlags.env {
		load = config.LoadConfigWithEnvOverrides
	}

	report := validationReport{File: cfgFile}

	cfg, err := load(cfgFile)
	switch {
	case err == nil:
		report.Valid = true
		report.Routes = len(cfg.Routes)
		report.Presets = len(cfg.Presets)
	default:
		var verr config.ValidationError
		if !errors.As(err, &verr) {
			return cli.NewConfigError(cfgFile, err.Error())
		}
		for _, fe := range verr.Errors {
			report.Problems = append(report.Problems, problemEntry{
				Field:   fe.Field,
				Message: fe.Message,
			})
		}
	}

	if cli.OutputFormat(validateFlags.format) == cli.FormatJSON {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printReport(report, cfg)
	}

	if !report.Valid {
		return cli.NewCommandError("validate", fmt.Errorf("%d problems found", len(report.Problems)))
	}
	return nil
}

func printReport(report validationReport, cfg *config.Config) {
	if !report.Valid {
		fmt.Printf("✗ %s is invalid (%d problems):\n\n", report.File, len(report.Problems))
		for _, p := range report.Problems {
			fmt.Printf("  %s: %s\n", p.Field, p.Message)
		}
		return
	}

	fmt.Printf("✓ %s is valid\n", report.File)
	fmt.Println()
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Downstream:     %s\n", cfg.Downstream.URL)
	fmt.Printf("  Routes:         %d\n", report.Routes)
	fmt.Printf("  Presets:        %d\n", report.Presets)
	if cfg.ActivePreset != "" {
		fmt.Printf("  Active preset:  %s\n", cfg.ActivePreset)
	}
}
