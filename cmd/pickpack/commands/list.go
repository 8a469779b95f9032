package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/billie-coop/pickpack/internal/catalog"
)

func newListCommand(rt *runtime) *cobra.Command {
	var idsOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the packages in the catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadOrDefault(rt.config.Get().Catalog)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if idsOnly {
				for _, p := range cat.All() {
					fmt.Fprintln(out, p.ID)
				}
				return nil
			}

			width := 0
			for _, p := range cat.All() {
				width = max(width, len(p.Name))
			}
			heading := color.New(color.Bold, color.FgCyan)
			faint := color.New(color.Faint)
			for i, c := range cat.Categories {
				if i > 0 {
					fmt.Fprintln(out)
				}
				heading.Fprintln(out, c.Name)
				for _, p := range c.Packages {
					fmt.Fprintf(out, "  %-*s  ", width, p.Name)
					faint.Fprintln(out, p.ID)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&idsOnly, "ids", false, "Print identifiers only, one per line")
	return cmd
}
