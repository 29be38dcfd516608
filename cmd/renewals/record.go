package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"renewals/internal/cli"
	"renewals/internal/core"
	"renewals/internal/records"
	"renewals/internal/report"
	"renewals/internal/validation"
)

func recordCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Add, list and edit renewal records",
	}
	cmd.AddCommand(
		recordAddCommand(o),
		recordListCommand(o),
		recordShowCommand(o),
		recordSetCommand(o),
		recordDeleteCommand(o),
		recordClearCommand(o),
		recordStatsCommand(o),
	)
	return cmd
}

// entryFlags binds the record form to flags.
type entryFlags struct {
	date       string
	expiry     string
	quotations int
	status     string
	entry      core.Entry
}

func (f *entryFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.date, "date", "", "group date YYYY-MM-DD (default today)")
	fl.StringVar(&f.entry.PlateNumber, "plate", "", "vehicle plate number")
	fl.StringVar(&f.entry.Name, "name", "", "customer name")
	fl.StringVar(&f.entry.IC, "ic", "", "12 digit IC number")
	fl.StringVar(&f.entry.PhoneNumber, "phone", "", "phone number")
	fl.StringVar(&f.entry.VehicleType, "vehicle", "", "vehicle type")
	fl.StringVar(&f.expiry, "expiry", "", "policy expiry date YYYY-MM-DD")
	fl.StringVar(&f.entry.Source, "source", "", "insurance source")
	fl.StringVar(&f.entry.QuoteBy, "quote-by", "", "who quoted")
	fl.IntVar(&f.quotations, "quotations", 1, "number of quotations")
	fl.StringVar(&f.status, "status", string(core.StatusRenew), "Renew or Not Renew")
	fl.StringVar(&f.entry.Remarks, "remarks", "", "free text remarks")
}

func (f *entryFlags) parse() (core.Entry, core.Date, error) {
	date, err := core.ParseDate(f.date)
	if err != nil {
		return core.Entry{}, core.Date{}, fmt.Errorf("--date: %w", err)
	}
	expiry, err := core.ParseDate(f.expiry)
	if err != nil {
		return core.Entry{}, core.Date{}, fmt.Errorf("--expiry: %w", err)
	}
	e := f.entry
	e.ExpiryDate = expiry
	e.NumberOfQuotations = f.quotations
	e.Status = core.Status(f.status)
	return e, date, nil
}

// reportValidation prints every violation and returns an error so the
// command exits non-zero.
func reportValidation(w io.Writer, errs validation.Errors) error {
	for _, fe := range errs {
		fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
	}
	return fmt.Errorf("%d validation error(s)", len(errs))
}

func recordAddCommand(o *rootOptions) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a renewal record",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			entry, date, err := f.parse()
			if err != nil {
				return err
			}
			rec, verrs, err := app.Renewals.CreateRecord(ctx, entry, date)
			if err != nil {
				return err
			}
			if len(verrs) > 0 {
				return reportValidation(cmd.ErrOrStderr(), verrs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		}),
	}
	f.bind(cmd)
	return cmd
}

func recordListCommand(o *rootOptions) *cobra.Command {
	var (
		c      report.Criteria
		order  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records grouped by date, newest first",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			groups := records.SortByDate(report.Filter(app.Renewals.Groups(), c), true)
			if order != "" {
				for i := range groups {
					groups[i].Entries = report.SortRecords(groups[i].Entries, report.RecordOrder(order))
				}
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), groups)
			}
			return writeRecordTable(cmd.OutOrStdout(), groups)
		}),
	}
	cmd.Flags().StringVar(&c.Search, "search", "", "match plate, name, IC, phone, quote by or remarks")
	cmd.Flags().StringVar(&c.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&c.VehicleType, "vehicle", "", "filter by vehicle type")
	cmd.Flags().StringVar(&c.Source, "source", "", "filter by source")
	cmd.Flags().StringVar(&order, "sort", "", "sort within a date: name, created-desc, created-asc, expiry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeRecordTable(out io.Writer, groups []core.DateGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(out, "no records")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tID\tPLATE\tNAME\tVEHICLE\tEXPIRY\tSOURCE\tQUOTES\tSTATUS")
	for _, g := range groups {
		for _, r := range g.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				g.Date, shortID(r.ID), r.PlateNumber, r.Name, r.VehicleType,
				r.ExpiryDate, r.Source, r.NumberOfQuotations, r.EffectiveStatus())
		}
	}
	fmt.Fprintf(tw, "\n%d record(s) on %d date(s)\n", records.Count(groups), len(groups))
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID accepts a full record id or a unique prefix as printed by list.
func resolveID(app *cli.App, ref string) (string, error) {
	if _, _, err := app.Renewals.GetRecord(ref); err == nil {
		return ref, nil
	}
	var match string
	for _, r := range records.Flatten(app.Renewals.Groups()) {
		if len(ref) >= 4 && len(r.ID) >= len(ref) && r.ID[:len(ref)] == ref {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("record %s: %w", ref, core.ErrNotFound)
	}
	return match, nil
}

func recordShowCommand(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error {
			id, err := resolveID(app, args[0])
			if err != nil {
				return err
			}
			rec, date, err := app.Renewals.GetRecord(id)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), struct {
					Date core.Date `json:"date"`
					core.Record
				}{date, rec})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			rows := [][2]string{
				{"ID", rec.ID},
				{"Date", date.String()},
				{"Plate Number", rec.PlateNumber},
				{"Name", rec.Name},
				{"IC", rec.IC},
				{"Phone Number", rec.PhoneNumber},
				{"Vehicle Type", rec.VehicleType},
				{"Expiry Date", rec.ExpiryDate.String()},
				{"Source", rec.Source},
				{"Quote By", rec.QuoteBy},
				{"Quotations", strconv.Itoa(rec.NumberOfQuotations)},
				{"Status", string(rec.EffectiveStatus())},
				{"Remarks", rec.Remarks},
				{"Created At", rec.CreatedAt.In(app.Config.Location()).Format("2006-01-02 15:04")},
			}
			for _, row := range rows {
				fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func recordSetCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set ID FIELD VALUE",
		Short: "Change one field of a record",
		Long:  "Change one field of a record. FIELD is one of plateNumber, name, ic, phoneNumber, vehicleType, expiryDate, source, quoteBy, numberOfQuotations, status, remarks.",
		Args:  cobra.ExactArgs(3),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error {
			id, err := resolveID(app, args[0])
			if err != nil {
				return err
			}
			update, err := core.NewFieldUpdate(args[1], args[2])
			if err != nil {
				return err
			}
			_, verrs, err := app.Renewals.SetField(ctx, id, update)
			if err != nil {
				return err
			}
			if len(verrs) > 0 {
				return reportValidation(cmd.ErrOrStderr(), verrs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s of %s\n", update.Field, shortID(id))
			return nil
		}),
	}
}

func recordDeleteCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error {
			id, err := resolveID(app, args[0])
			if err != nil {
				return err
			}
			if err := app.Renewals.DeleteRecord(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", shortID(id))
			return nil
		}),
	}
}

func recordClearCommand(o *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			if !yes {
				return errors.New("refusing to clear every record without --yes")
			}
			n := records.Count(app.Renewals.Groups())
			if err := app.Renewals.ClearAll(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d record(s)\n", n)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing every record")
	return cmd
}

func recordStatsCommand(o *rootOptions) *cobra.Command {
	var (
		c      report.Criteria
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count records by status, vehicle type and source",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			s := report.Summarize(report.Filter(app.Renewals.Groups(), c))
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total entries: %d\nTotal dates:   %d\n", s.TotalEntries, s.TotalDates)
			for _, sec := range []struct {
				title  string
				counts []core.Count
			}{
				{"By status", s.ByStatus},
				{"By vehicle type", s.ByVehicle},
				{"By source", s.BySource},
			} {
				fmt.Fprintf(out, "\n%s\n", sec.title)
				for _, cnt := range sec.counts {
					fmt.Fprintf(out, "  %-28s %d\n", cnt.Name, cnt.Count)
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&c.Search, "search", "", "match plate, name, IC, phone, quote by or remarks")
	cmd.Flags().StringVar(&c.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&c.VehicleType, "vehicle", "", "filter by vehicle type")
	cmd.Flags().StringVar(&c.Source, "source", "", "filter by source")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
