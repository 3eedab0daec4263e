package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasamorimca/cosmwasm-guard/internal/engine"
	"github.com/lucasamorimca/cosmwasm-guard/internal/report"
)

var (
	formatFlag    string
	severityFlag  string
	detectorsFlag []string
	excludeFlag   []string
	configFlag    string
	auditFlag     bool
	noColorFlag   bool
	noCacheFlag   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a CosmWasm contract crate and report findings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&formatFlag, "format", "", "output format: text, json, sarif (default: config, then text)")
	analyzeCmd.Flags().StringVar(&severityFlag, "severity", "", "minimum severity to report: high, medium, low, informational")
	analyzeCmd.Flags().StringSliceVar(&detectorsFlag, "detectors", nil, "run only these detectors (comma-separated)")
	analyzeCmd.Flags().StringSliceVar(&excludeFlag, "exclude", nil, "run every detector except these (comma-separated)")
	analyzeCmd.Flags().StringVar(&configFlag, "config", "", "path to a .cosmwasm-guard.toml config file (default: <path>/.cosmwasm-guard.toml)")
	analyzeCmd.Flags().BoolVar(&auditFlag, "audit", false, "audit mode: report every finding regardless of severity threshold")
	analyzeCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "disable ANSI colors in text output")
	analyzeCmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "disable the on-disk analysis cache")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	if !quietFlag {
		fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s...\n", path)
	}

	result, err := engine.Run(cmd.Context(), path, engine.Options{
		Detectors:  detectorsFlag,
		Exclude:    excludeFlag,
		ConfigPath: configFlag,
		Severity:   severityFlag,
		Audit:      auditFlag,
		NoCache:    noCacheFlag,
	})
	if err != nil {
		return err
	}

	findings := result.Findings
	format := formatFlag
	if format == "" {
		format = result.Config.OutputFormat()
	}

	out, err := report.Render(format, findings, result.Context, noColorFlag)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	if len(findings) > 0 {
		os.Exit(1)
	}
	return nil
}
