package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skribblers/backend/internal/cmn/config"
)

func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Long:  `Print the current version of the Skribble executable.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.Version)
		},
	}
}
