package main

import (
	"os"

	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
	"github.com/lucasamorimca/cosmwasm-guard/internal/logging"
)

func main() {
	logger := logging.New(os.Stderr, logging.LevelFromVerbosity(0, false))

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err.Error())
		os.Exit(guarderr.ExitCode(err))
	}
}
