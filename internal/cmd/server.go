package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skribblers/backend/internal/cmn/logger"
	"github.com/skribblers/backend/internal/cmn/logger/tag"
)

func Server() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "server [flags]",
			Short: "Start the HTTP server",
			Long: `Launch the Skribble HTTP server.

Every request is logged as a "Received" line when it arrives and a
completion line with its status and duration when the response is done.

Flags:
  --host string    Host address to bind the server to (default: all interfaces)
  --port string    Port number to listen on (default: $PORT or 8080)

Example:
  skribble server --port=3000
`,
		}, serverFlags, runServer,
	)
}

var serverFlags = []commandLineFlag{hostFlag, portFlag}

func runServer(ctx *Context, _ []string) error {
	logger.Info(ctx, "Server initialization",
		tag.Host(ctx.Config.Server.Host),
		tag.Port(ctx.Config.Server.Port),
	)

	if err := ctx.NewServer().Serve(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
