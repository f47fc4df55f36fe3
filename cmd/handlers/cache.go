package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
	"newscycle/internal/store"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the history store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show history store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			historyStore, err := store.NewStore(cfg.App.DataDir)
			if err != nil {
				return err
			}
			defer historyStore.Close()

			stats, err := historyStore.GetStats(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("History store: %s\n", stats.Path)
			fmt.Printf("  Articles:      %d\n", stats.ArticleCount)
			fmt.Printf("  Clusters:      %d\n", stats.ClusterCount)
			fmt.Printf("  Relationships: %d\n", stats.RelationshipCount)
			if !stats.LastRunAt.IsZero() {
				fmt.Printf("  Last run:      %s\n", stats.LastRunAt.Format("2006-01-02 15:04:05 UTC"))
			}

			return nil
		},
	})

	return cmd
}
