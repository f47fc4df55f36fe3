package cmd

import (
	"os"

	"newscycle/cmd/handlers"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := handlers.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
