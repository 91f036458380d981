package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	required                             bool
	isBool                               bool
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $XDG_CONFIG_HOME/skribble/config.yaml)",
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "suppress output to stdout and stderr",
		isBool:    true,
	}
	hostFlag = commandLineFlag{
		name:      "host",
		shorthand: "s",
		usage:     "server host (default is all interfaces)",
	}
	portFlag = commandLineFlag{
		name:      "port",
		shorthand: "p",
		usage:     "server port (default is $PORT or 8080)",
	}
)

// initFlags registers the common flags and the given ones on cmd.
func initFlags(cmd *cobra.Command, addFlags ...commandLineFlag) {
	flags := append([]commandLineFlag{configFlag, quietFlag}, addFlags...)
	for _, flag := range flags {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, flag.defaultValue == "true", flag.usage)
		} else {
			cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
		}
		if flag.required {
			if err := cmd.MarkFlagRequired(flag.name); err != nil {
				fmt.Printf("failed to mark flag %s as required: %v\n", flag.name, err)
			}
		}
	}
}

// bindFlags binds the non-boolean flags to keys of the same name in v so
// that command line values take precedence over the environment and the
// config file.
func bindFlags(v *viper.Viper, cmd *cobra.Command, addFlags ...commandLineFlag) error {
	flags := append([]commandLineFlag{configFlag}, addFlags...)
	for _, flag := range flags {
		if flag.isBool {
			continue
		}
		if err := v.BindPFlag(flag.name, cmd.Flags().Lookup(flag.name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.name, err)
		}
	}
	return nil
}
