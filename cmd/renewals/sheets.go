package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"renewals/internal/cli"
	"renewals/internal/sheets"
	"renewals/internal/sheets/memory"
)

func sheetsCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Connect and push to a Google Sheet",
	}
	cmd.AddCommand(
		sheetsConnectCommand(o),
		sheetsDisconnectCommand(o),
		sheetsStatusCommand(o),
		sheetsPushCommand(o),
	)
	return cmd
}

func sheetsConnectCommand(o *rootOptions) *cobra.Command {
	var apiKey, sheetName string
	cmd := &cobra.Command{
		Use:   "connect SHEET_URL",
		Short: "Remember the spreadsheet to push to",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error {
			st, err := app.Sync.Connect(ctx, args[0], apiKey, sheetName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected %s (tab %s)\n", st.SpreadsheetID, st.SheetName)
			return nil
		}),
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Google API key (default GOOGLE_API_KEY or service account)")
	cmd.Flags().StringVar(&sheetName, "sheet", sheets.DefaultSheetName, "tab to overwrite")
	return cmd
}

func sheetsDisconnectCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the connected spreadsheet",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			if err := app.Sync.Disconnect(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "disconnected")
			return nil
		}),
	}
}

func sheetsStatusCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connected spreadsheet",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			st, err := app.Sync.Settings(ctx)
			if errors.Is(err, sheets.ErrNotConnected) {
				fmt.Fprintln(cmd.OutOrStdout(), "not connected")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spreadsheet: %s\ntab:         %s\napi key:     %t\n",
				st.SpreadsheetID, st.SheetName, st.APIKey != "")
			return nil
		}),
	}
}

func sheetsPushCommand(o *rootOptions) *cobra.Command {
	var (
		queue  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Replace the sheet contents with every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []cli.AppOption
			sheet := memory.New()
			if dryRun {
				extra = append(extra, cli.WithWriterFactory(func(context.Context, sheets.Settings) (sheets.RangeWriter, error) {
					return sheet, nil
				}))
			}
			run := o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
				if queue {
					queued, n, err := app.Sync.RequestPush(ctx, "manual")
					if err != nil {
						return err
					}
					if queued {
						fmt.Fprintln(cmd.OutOrStdout(), "push queued")
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "pushed %d record(s)\n", n)
					}
					return nil
				}
				n, err := app.Sync.Push(ctx)
				if err != nil {
					return err
				}
				if dryRun {
					st, _ := app.Sync.Settings(ctx)
					fmt.Fprintf(cmd.OutOrStdout(), "dry run: would write %d row(s) to %s\n", len(sheet.Rows(st.SheetName)), st.SheetName)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pushed %d record(s)\n", n)
				return nil
			}, extra...)
			return run(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "queue the push for the worker when AMQP is configured")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the rows without calling Google")
	return cmd
}
