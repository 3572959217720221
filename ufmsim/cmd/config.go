package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the board configuration and print the EFB parameters.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath == "" {
				return errors.New("no configuration given, use --config or " +
					EnvConfig)
			}

			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}

			params := cfg.Params()

			keys := make([]string, 0, len(params))
			for k := range params {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			for _, k := range keys {
				fmt.Fprintf(out, "%s = %v\n", k, params[k])
			}

			return nil
		},
	}
}
