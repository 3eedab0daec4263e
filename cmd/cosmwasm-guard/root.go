package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasamorimca/cosmwasm-guard/internal/logging"
	"github.com/lucasamorimca/cosmwasm-guard/internal/version"
)

var (
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "cosmwasm-guard",
	Short: "Static analysis for CosmWasm smart contracts",
	Long: `cosmwasm-guard inspects a CosmWasm contract crate's Rust source and
reports likely vulnerabilities: missing address validation, missing access
control, unbounded storage iteration, unsafe unwraps, storage-key collisions,
arithmetic wrap, discarded errors, unvalidated reply handlers, nondeterministic
iteration, and permission-hierarchy violations.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("cosmwasm-guard version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.New(os.Stderr, logging.LevelFromVerbosity(verboseFlag, quietFlag)))
	}
}
