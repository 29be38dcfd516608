package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"renewals/internal/cli"
	"renewals/internal/core"
	"renewals/internal/report"
)

func billCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Issue cash bills and report on the bill history",
	}
	cmd.AddCommand(
		billNewCommand(o),
		billRecordCommand(o),
		billListCommand(o),
		billDeleteCommand(o),
		billReportCommand(o),
	)
	return cmd
}

// parseItem reads DESCRIPTION:QUANTITY:UNIT_PRICE. The description may
// itself contain colons.
func parseItem(s string) (core.LineItem, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return core.LineItem{}, fmt.Errorf("item %q: want DESCRIPTION:QUANTITY:UNIT_PRICE", s)
	}
	n := len(parts)
	qty, err := strconv.Atoi(strings.TrimSpace(parts[n-2]))
	if err != nil || qty < 1 {
		return core.LineItem{}, fmt.Errorf("item %q: quantity must be a positive integer", s)
	}
	price, err := core.ParseMoney(parts[n-1])
	if err != nil {
		return core.LineItem{}, fmt.Errorf("item %q: %w", s, err)
	}
	return core.LineItem{
		Description: strings.TrimSpace(strings.Join(parts[:n-2], ":")),
		Quantity:    qty,
		UnitPrice:   price,
	}, nil
}

func billNewCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Print a draft bill with a fresh number",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			return printJSON(cmd.OutOrStdout(), app.Billing.NewCashBill())
		}),
	}
}

func billRecordCommand(o *rootOptions) *cobra.Command {
	var (
		number   string
		items    []string
		tax      string
		discount string
		notes    string
	)
	cmd := &cobra.Command{
		Use:   "record RECORD_ID",
		Short: "Finalize a cash bill for a record",
		Long:  "Finalize a cash bill for a record and add it to the bill history. Without --item the bill carries the default insurance premium line.",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error {
			bill := app.Billing.NewCashBill()
			if number != "" {
				bill.BillNumber = number
			}
			if len(items) > 0 {
				bill.Items = bill.Items[:0]
				for _, s := range items {
					item, err := parseItem(s)
					if err != nil {
						return err
					}
					bill.Items = append(bill.Items, item)
				}
			}
			var err error
			if bill.Tax, err = core.ParseMoney(tax); err != nil {
				return fmt.Errorf("--tax: %w", err)
			}
			if bill.Discount, err = core.ParseMoney(discount); err != nil {
				return fmt.Errorf("--discount: %w", err)
			}
			bill.Notes = notes

			// an unknown id is billed to the unknown customer
			recordID := args[0]
			if id, err := resolveID(app, recordID); err == nil {
				recordID = id
			}
			summary, err := app.Billing.FinalizeBill(ctx, recordID, bill)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  RM %s\n", summary.BillNumber, summary.CustomerName, summary.Total)
			return nil
		}),
	}
	cmd.Flags().StringVar(&number, "number", "", "bill number (default CB-<6 digits>)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "line item DESCRIPTION:QUANTITY:UNIT_PRICE, repeatable")
	cmd.Flags().StringVar(&tax, "tax", "0", "tax amount")
	cmd.Flags().StringVar(&discount, "discount", "0", "discount amount")
	cmd.Flags().StringVar(&notes, "notes", "", "notes printed on the bill")
	return cmd
}

func billListCommand(o *rootOptions) *cobra.Command {
	var (
		filter string
		order  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List finalized bills",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			bills := app.Billing.Bills(report.BillFilter(filter), report.BillOrder(order))
			if asJSON {
				if bills == nil {
					bills = []core.BillSummary{}
				}
				return printJSON(cmd.OutOrStdout(), bills)
			}
			loc := app.Config.Location()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tBILL\tCUSTOMER\tTOTAL\tID")
			for _, b := range bills {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					b.Date.In(loc).Format("2006-01-02 15:04"), b.BillNumber, b.CustomerName, b.Total, shortID(b.ID))
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().StringVar(&filter, "filter", string(report.BillsAll), "all, current-month, last-30-days or high-value")
	cmd.Flags().StringVar(&order, "sort", string(report.BillsByDateDesc), "date-desc, date-asc, amount-desc, amount-asc or customer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func billDeleteCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a bill from the history",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, args []string) error {
			id := args[0]
			for _, b := range app.Billing.Bills(report.BillsAll, report.BillsByDateDesc) {
				if len(id) >= 4 && strings.HasPrefix(b.ID, id) {
					id = b.ID
					break
				}
			}
			if err := app.Billing.DeleteBill(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted bill %s\n", shortID(id))
			return nil
		}),
	}
}

func billReportCommand(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize revenue, customers and progress to the monthly target",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			r := app.Billing.Report()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bills:            %d\n", r.BillCount)
			fmt.Fprintf(out, "Total revenue:    RM %s\n", r.TotalRevenue)
			fmt.Fprintf(out, "This month (%s): RM %s\n", r.MonthKey, r.MonthTotal)
			fmt.Fprintf(out, "Target:           RM %s (%.1f%%)\n", r.GoalTarget, r.GoalProgress)
			fmt.Fprintf(out, "Week to date:     RM %s over %d bill(s)\n", r.WeekRevenue, r.WeekCount)
			fmt.Fprintf(out, "Average bill:     RM %s\n", r.AverageBill)
			fmt.Fprintf(out, "Bills per day:    %.2f (30 days)\n", r.BillsPerDay30d)
			if r.MonthlyGrowth != nil {
				fmt.Fprintf(out, "Monthly growth:   %+.1f%%\n", *r.MonthlyGrowth)
			}
			if r.BestMonth != nil {
				fmt.Fprintf(out, "Best month:       %s RM %s\n", r.BestMonth.Month, r.BestMonth.Total)
			}
			if r.PeakHour != nil {
				fmt.Fprintf(out, "Peak hour:        %02d:00 (%d bill(s))\n", *r.PeakHour, r.PeakHourCount)
			}
			if len(r.TopCustomers) > 0 {
				fmt.Fprintln(out, "\nTop customers")
				for i, c := range r.TopCustomers {
					fmt.Fprintf(out, "  %d. %-24s %2d  RM %s\n", i+1, c.Name, c.Count, c.Revenue)
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
