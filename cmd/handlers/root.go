// Package handlers contains the cobra command handlers for the newscycle CLI.
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newscycle",
		Short: "Cluster AI-news articles and decide what the newsletter may cite",
		Long: `Newscycle - AI News Decision Core

Processes one publication cycle of AI-news articles: classifies each article
into a topic domain, clusters same-story coverage by embedding similarity,
detects sequel/update/related relationships against the current pool and
prior cycles, and gates which related articles may be cited in the rendered
newsletter.

Examples:
  # Process a cycle from a JSON article file and store the results
  newscycle process articles.json

  # Process and write the newsletter markdown
  newscycle process articles.json --newsletter

  # Re-render the newsletter for the most recent stored run
  newscycle render

  # Inspect the active domain taxonomy
  newscycle taxonomy show

  # Show history store statistics
  newscycle cache stats`,
		Version: "1.2.0",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .newscycle.yaml)")

	rootCmd.AddCommand(NewProcessCmd())
	rootCmd.AddCommand(NewRenderCmd())
	rootCmd.AddCommand(NewTaxonomyCmd())
	rootCmd.AddCommand(NewCacheCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
}
