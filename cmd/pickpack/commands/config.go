package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/billie-coop/pickpack/internal/config"
)

func newConfigCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: fmt.Sprintf(`Read and change settings in the config file.

Values are resolved from defaults, the config file, %s* environment
variables and flags, in that order.`, config.EnvPrefix),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), rt.config.Path())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print effective settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if !slices.Contains(config.Keys(), args[0]) {
					return fmt.Errorf("unknown config key: %s", args[0])
				}
				fmt.Fprintln(out, rt.config.String(args[0]))
				return nil
			}
			for _, key := range config.Keys() {
				fmt.Fprintf(out, "%s = %s\n", key, rt.config.String(key))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting and save it to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.config.Set(args[0], args[1]); err != nil {
				return err
			}
			rt.logger.Info().Str("key", args[0]).Str("file", rt.config.Path()).Msg("setting saved")
			return nil
		},
	})

	return cmd
}

