package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"renewals/internal/cli"
	"renewals/internal/log"
)

type rootOptions struct {
	envFile  string
	logLevel string
	appOpts  []cli.AppOption
}

// runFunc is a subcommand body with the application already opened.
type runFunc func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error

func newRootCmd(appOpts ...cli.AppOption) *cobra.Command {
	opts := &rootOptions{appOpts: appOpts}
	root := &cobra.Command{
		Use:           "renewals",
		Short:         "Keep insurance renewal records and cash bills",
		Long:          `renewals records vehicle insurance renewals by date, exports them, pushes them to Google Sheets and keeps a cash bill history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment from this file instead of .env")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		recordCommand(opts),
		billCommand(opts),
		exportCommand(opts),
		sheetsCommand(opts),
		serveCommand(opts),
		workerCommand(opts),
	)
	return root
}

// withApp loads configuration, opens the application and closes it after
// fn returns.
func (o *rootOptions) withApp(fn runFunc, extra ...cli.AppOption) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if o.envFile != "" {
			cli.LoadEnvFile(o.envFile)
		} else {
			cli.LoadEnvFile()
		}
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		if o.logLevel != "" {
			cfg.LogLevel = o.logLevel
		}
		logger := cli.SetupLogger(cfg, cmd.ErrOrStderr())

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		app, err := cli.NewApp(ctx, cfg, logger, append(append([]cli.AppOption{}, o.appOpts...), extra...)...)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				logger.Warn("Failed to close backend", log.FieldError, err)
			}
		}()
		return fn(ctx, cmd, app, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
