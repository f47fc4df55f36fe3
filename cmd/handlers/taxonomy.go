package handlers

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"newscycle/internal/config"
	"newscycle/internal/taxonomy"
)

// NewTaxonomyCmd creates the taxonomy command group.
func NewTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect the active domain taxonomy",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the domains, keywords and exclusion pairs in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			table, err := taxonomy.Load(cfg.Taxonomy.File)
			if err != nil {
				return err
			}

			source := "compiled-in default"
			if cfg.Taxonomy.File != "" {
				source = cfg.Taxonomy.File
			}
			fmt.Printf("Taxonomy version %d (%s)\n\n", table.Version, source)

			fmt.Println("Domains:")
			for _, spec := range table.Domains {
				fmt.Printf("  %-22s %s\n", spec.Domain, strings.Join(spec.Keywords, ", "))
			}

			fmt.Println("\nExclusion pairs:")
			for _, pair := range table.Exclusions {
				fmt.Printf("  %s <-> %s\n", pair.A, pair.B)
			}

			fmt.Println("\nIncompatible patterns:")
			for _, pair := range table.IncompatiblePatterns {
				fmt.Printf("  %q <-> %q\n", pair.First, pair.Second)
			}

			return nil
		},
	})

	return cmd
}
