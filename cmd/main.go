package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skribblers/backend/internal/cmd"
	"github.com/skribblers/backend/internal/cmn/config"
)

var rootCmd = &cobra.Command{
	Use:   config.AppSlug,
	Short: "Skribble is the HTTP backend for skribblers",
	Long: `Skribble is the HTTP backend for skribblers.

It serves a JSON greeting at the root path and logs every request it
handles.
`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cmd.Server())
	rootCmd.AddCommand(cmd.Version())

	config.Version = version
}

var version = "0.0.0"
