package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skribblers/backend/internal/cmn/config"
	"github.com/skribblers/backend/internal/cmn/logger"
	"github.com/skribblers/backend/internal/cmn/logger/tag"
	"github.com/skribblers/backend/internal/service/frontend"
)

// Context holds the configuration for a command.
type Context struct {
	context.Context

	Command *cobra.Command
	Flags   []commandLineFlag
	Config  *config.Config
	Quiet   bool
	// Sink receives the plain request and startup lines.
	Sink logger.Sink

	logFile *os.File
}

// NewContext initializes the application setup by loading configuration,
// setting up logger context, and logging any warnings.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v := viper.New()
	if err := bindFlags(v, cmd, flags...); err != nil {
		return nil, err
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var loaderOpts []config.ConfigLoaderOption
	if cfgPath := v.GetString("config"); cfgPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgPath))
	}

	loader := config.NewConfigLoader(v, loaderOpts...)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var opts []logger.Option
	if cfg.Core.Debug {
		opts = append(opts, logger.WithDebug())
	}
	if quiet {
		opts = append(opts, logger.WithQuiet())
	}
	opts = append(opts, logger.WithFormat(cfg.Core.LogFormat))

	var logFile *os.File
	if cfg.Core.LogFile != "" {
		logFile, err = os.OpenFile(cfg.Core.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Core.LogFile, err)
		}
		opts = append(opts, logger.WithWriter(logFile))
	}

	lg := logger.NewLogger(opts...)
	ctx = logger.WithLogger(ctx, lg)

	logger.Debug(ctx, "Logger initialized", tag.Format(cfg.Core.LogFormat))
	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug(ctx, "Config file loaded", tag.Config(used))
	}

	return &Context{
		Context: ctx,
		Command: cmd,
		Flags:   flags,
		Config:  cfg,
		Quiet:   quiet,
		Sink:    logger.SinkOf(lg),
		logFile: logFile,
	}, nil
}

// NewServer creates the HTTP server writing its request lines to the
// context's sink.
func (c *Context) NewServer(opts ...frontend.ServerOption) *frontend.Server {
	opts = append([]frontend.ServerOption{
		frontend.WithSink(c.Sink),
		frontend.WithLogger(logger.FromContext(c)),
	}, opts...)
	return frontend.NewServer(c.Config, opts...)
}

// Close releases the log file, if one was opened.
func (c *Context) Close() error {
	if c.logFile == nil {
		return nil
	}
	return c.logFile.Close()
}

// NewCommand creates a new command instance with the given cobra command and run function.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(cmd *Context, args []string) error) *cobra.Command {
	initFlags(cmd, flags...)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd, flags)
		if err != nil {
			fmt.Printf("Initialization error: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = ctx.Close()
		}()

		if err := runFunc(ctx, args); err != nil {
			logger.Error(ctx.Context, "Command failed", tag.Error(err))
			_ = ctx.Close()
			os.Exit(1)
		}
		return nil
	}

	return cmd
}
