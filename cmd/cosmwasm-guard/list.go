package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detectors"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every built-in detector",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	for _, d := range detectors.All() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-8s %-8s %s\n", d.Name(), d.Severity(), d.Confidence(), d.Description())
	}
	return nil
}
