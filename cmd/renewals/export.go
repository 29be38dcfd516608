package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"renewals/internal/cli"
	"renewals/internal/export"
	"renewals/internal/records"
	"renewals/internal/report"
)

func exportCommand(o *rootOptions) *cobra.Command {
	var (
		format string
		out    string
		c      report.Criteria
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the records to a CSV or XLSX file, one section per month",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			var write func(f *os.File) error
			groups := report.Filter(app.Renewals.Groups(), c)
			loc := app.Config.Location()
			switch format {
			case "csv":
				write = func(f *os.File) error { return export.WriteCSV(f, groups, loc) }
			case "xlsx":
				write = func(f *os.File) error { return export.WriteXLSX(f, groups, loc) }
			default:
				return fmt.Errorf("--format must be csv or xlsx, got %q", format)
			}
			if records.Count(groups) == 0 {
				return export.ErrNoData
			}

			if out == "" {
				out = export.Filename(app.Renewals.Today().Time, format)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := write(f); err != nil {
				f.Close()
				_ = os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d record(s) to %s\n", records.Count(groups), out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", "xlsx", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default renewals_<date>.<format>)")
	cmd.Flags().StringVar(&c.Search, "search", "", "export only matching records")
	cmd.Flags().StringVar(&c.Status, "status", "", "export only this status")
	cmd.Flags().StringVar(&c.VehicleType, "vehicle", "", "export only this vehicle type")
	cmd.Flags().StringVar(&c.Source, "source", "", "export only this source")
	return cmd
}
