// Package main provides the CLI entry point for the blogfeed aggregator.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogfeed/aggregator/internal/cli"
	"github.com/blogfeed/aggregator/internal/config"
	"github.com/blogfeed/aggregator/internal/filter"
	"github.com/blogfeed/aggregator/internal/logger"
	"github.com/blogfeed/aggregator/internal/pipeline"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	logFormat string

	// Run command flags
	whereExpr string
	pretty    bool

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blogfeed",
	Short: "Blogfeed - Blog post and comment aggregator",
	Long: `Blogfeed fetches posts and comments from remote sources, joins
comments into their posts, applies the configured filter rules, and writes
the sorted result as JSON to stdout.

Examples:
  # Validate a configuration file
  blogfeed validate feed.json

  # Aggregate a feed
  blogfeed run feed.yaml

  # Aggregate with an ad-hoc expression filter
  blogfeed run feed.json --where 'userId == 1'`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		} else if quiet {
			level = slog.LevelError
		}
		logger.SetLevelAndFormat(level, logger.ParseFormat(logFormat))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a feed configuration file",
	Long: `Validate a feed configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  blogfeed validate feed.json
  blogfeed validate --verbose feed.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var runCmd = &cobra.Command{
	Use:   "run <config-file>",
	Short: "Aggregate a feed from a configuration file",
	Long: `Aggregate the feed defined in the configuration file.

The configuration is first validated against the schema; aggregation only
starts from a valid configuration. The resulting dataset is written to
stdout as a JSON array, status messages go to stderr.

Flags:
  --where    Additional expression filter applied after the configured rules
  --pretty   Indent the JSON output

Exit codes:
  0 - Feed aggregated successfully
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors

Examples:
  blogfeed run feed.json
  blogfeed run --where 'userId == 1' feed.json
  blogfeed run --pretty feed.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runFeed,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or human (default: auto-detect)")

	runCmd.Flags().StringVar(&whereExpr, "where", "", "Additional expression filter, e.g. 'userId == 1'")
	runCmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func outputOptions() cli.OutputOptions {
	return cli.OutputOptions{Verbose: verbose, Quiet: quiet, Pretty: pretty}
}

// loadConfig parses and validates the configuration file, exiting with the
// appropriate code when it is unusable.
func loadConfig(configPath string) *config.Result {
	result := config.ParseConfig(configPath)

	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(result.ParseErrors, outputOptions())
		os.Exit(ExitParseError)
	}
	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(result.ValidationErrors, outputOptions())
		os.Exit(ExitValidationError)
	}

	return result
}

func runValidate(_ *cobra.Command, args []string) {
	configPath := args[0]

	if !quiet {
		fmt.Fprintf(os.Stderr, "Validating configuration: %s\n", configPath)
	}

	result := loadConfig(configPath)

	if !quiet {
		fmt.Fprintf(os.Stderr, "✓ Configuration is valid (format: %s)\n", result.Format)
		if verbose {
			cli.PrintConfigSummary(result.Data)
		}
	}

	os.Exit(ExitSuccess)
}

func runFeed(cmd *cobra.Command, args []string) {
	configPath := args[0]

	result := loadConfig(configPath)

	cfg, err := config.ConvertToConfig(result.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to convert configuration: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if verbose {
		cli.PrintConfigSummary(result.Data)
	}

	posts, comments, err := config.BuildSources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to build sources: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	preds, err := config.BuildPredicates(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to build filters: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if whereExpr != "" {
		wherePred, whereErr := filter.NewExpr(whereExpr)
		if whereErr != nil {
			fmt.Fprintf(os.Stderr, "✗ Invalid --where expression: %v\n", whereErr)
			os.Exit(ExitRuntimeError)
		}
		preds = append(preds, wherePred)
	}

	runResult, err := pipeline.New(posts, comments).Run(cmd.Context(), preds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Feed aggregation failed: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if err := cli.PrintRunResult(runResult, outputOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to write output: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	os.Exit(ExitSuccess)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
}
