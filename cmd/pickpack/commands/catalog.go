package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/billie-coop/pickpack/internal/catalog"
)

func newCatalogCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate package catalogs",
	}
	cmd.AddCommand(newCatalogValidateCommand(rt))
	cmd.AddCommand(newCatalogDefaultCommand())
	return cmd
}

func newCatalogValidateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog file (default: the configured catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.config.Get().Catalog
			if len(args) == 1 {
				path = args[0]
			}

			cat, err := catalog.LoadOrDefault(path)
			if err != nil {
				return err
			}
			if path == "" {
				path = "built-in catalog"
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s: %d categories, %d packages\n",
				path, len(cat.Categories), cat.Len())
			return nil
		},
	}
}

func newCatalogDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in catalog as YAML, a starting point for a custom one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(catalog.DefaultYAML())
			return err
		},
	}
}
