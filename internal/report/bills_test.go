package report

import (
	"testing"
	"time"

	"renewals/internal/core"
)

var kl = time.FixedZone("MYT", 8*3600)

func bill(id, customer string, cents int64, at time.Time) core.BillSummary {
	return core.BillSummary{ID: id, BillNumber: "CB-" + id, CustomerName: customer, Total: core.Money{Cents: cents}, Date: at}
}

func history() []core.BillSummary {
	return []core.BillSummary{
		bill("1", "Aminah", 50000, time.Date(2024, 2, 10, 9, 15, 0, 0, kl)),
		bill("2", "Boon", 30000, time.Date(2024, 3, 1, 14, 0, 0, 0, kl)),
		bill("3", "Aminah", 20000, time.Date(2024, 3, 3, 9, 45, 0, 0, kl)),
		bill("4", "Chandra", 100000, time.Date(2024, 3, 6, 16, 30, 0, 0, kl)),
		bill("5", "Boon", 10000, time.Date(2024, 3, 7, 14, 5, 0, 0, kl)),
	}
}

// Thursday 7 March 2024, 18:00 local.
var reportNow = time.Date(2024, 3, 7, 18, 0, 0, 0, kl)

func TestMonthlyTotalsExactCents(t *testing.T) {
	tenth := core.Money{Cents: 10}
	fifth := core.Money{Cents: 20}
	var bills []core.BillSummary
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		bills = append(bills, bill("a", "X", tenth.Cents, at), bill("b", "Y", fifth.Cents, at))
	}
	bills = append(bills, bill("c", "Z", 147000, at))

	got := MonthlyTotals(bills, time.UTC)["2024-03"]
	if got.Cents != 150000 || got.String() != "1500.00" {
		t.Fatalf("expected 1500.00, got %s", got)
	}
}

func TestMonthlyTotalsUsesLocation(t *testing.T) {
	// 23:30 UTC on 29 Feb is 1 March in Kuala Lumpur.
	b := []core.BillSummary{bill("1", "X", 100, time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC))}
	if _, ok := MonthlyTotals(b, kl)["2024-03"]; !ok {
		t.Fatalf("expected bill in March local time")
	}
	if _, ok := MonthlyTotals(b, time.UTC)["2024-02"]; !ok {
		t.Fatalf("expected bill in February UTC")
	}
}

func TestRevenueAndMonthViews(t *testing.T) {
	h := history()
	if TotalRevenue(h).Cents != 210000 {
		t.Fatalf("unexpected total %d", TotalRevenue(h).Cents)
	}
	if MonthTotal(h, reportNow).Cents != 160000 {
		t.Fatalf("unexpected month total %d", MonthTotal(h, reportNow).Cents)
	}
	if n := len(MonthEntries(h, reportNow)); n != 4 {
		t.Fatalf("expected 4 entries this month, got %d", n)
	}
	series := MonthlySeries(h, kl)
	if len(series) != 2 || series[0].Month != "2024-02" || series[1].Count != 4 {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestTopCustomers(t *testing.T) {
	top := TopCustomers(history(), 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(top))
	}
	if top[0].Name != "Aminah" || top[0].Count != 2 || top[0].Revenue.Cents != 70000 {
		t.Fatalf("unexpected first customer %+v", top[0])
	}
	if top[1].Name != "Boon" || top[1].Revenue.Cents != 40000 {
		t.Fatalf("unexpected second customer %+v", top[1])
	}
	if all := TopCustomers(history(), 10); len(all) != 3 {
		t.Fatalf("expected all customers, got %d", len(all))
	}
}

func TestPeakHour(t *testing.T) {
	hour, count, ok := PeakHour(history(), kl)
	if !ok || count != 2 || hour != 9 {
		t.Fatalf("expected hour 9 with 2 bills (tie broken low), got %d/%d", hour, count)
	}
	if _, _, ok := PeakHour(nil, kl); ok {
		t.Fatalf("no bills should report not ok")
	}
}

func TestWeekToDate(t *testing.T) {
	start := WeekStart(reportNow)
	if start.Weekday() != time.Sunday || start.Day() != 3 || start.Hour() != 0 {
		t.Fatalf("unexpected week start %v", start)
	}
	sum, n := WeekToDate(history(), reportNow)
	if n != 3 || sum.Cents != 130000 {
		t.Fatalf("expected 3 bills totalling 1300.00, got %d / %s", n, sum)
	}

	sunday := time.Date(2024, 3, 3, 0, 0, 0, 0, kl)
	if !WeekStart(sunday).Equal(sunday) {
		t.Fatalf("a Sunday starts its own week")
	}
}

func TestBestMonthAndGrowth(t *testing.T) {
	best, ok := BestMonth(history(), kl)
	if !ok || best.Month != "2024-03" || best.Total.Cents != 160000 {
		t.Fatalf("unexpected best month %+v", best)
	}

	tie := []core.BillSummary{
		bill("1", "X", 500, time.Date(2024, 1, 5, 0, 0, 0, 0, kl)),
		bill("2", "X", 500, time.Date(2024, 2, 5, 0, 0, 0, 0, kl)),
	}
	if best, _ := BestMonth(tie, kl); best.Month != "2024-01" {
		t.Fatalf("tie should go to earlier month, got %s", best.Month)
	}

	g, ok := MonthlyGrowth(history(), reportNow)
	if !ok || g != 220 {
		t.Fatalf("expected 220%% growth, got %v (ok=%v)", g, ok)
	}
	if _, ok := MonthlyGrowth(history(), time.Date(2024, 2, 20, 0, 0, 0, 0, kl)); ok {
		t.Fatalf("no previous month revenue should report not ok")
	}
	if PreviousMonthKey(time.Date(2024, 1, 31, 0, 0, 0, 0, kl)) != "2023-12" {
		t.Fatalf("previous month across year boundary")
	}
}

func TestGoalAndAverages(t *testing.T) {
	h := history()
	if p := GoalProgress(h, reportNow, core.Money{Cents: 1000000}); p != 16 {
		t.Fatalf("expected 16%%, got %v", p)
	}
	if p := GoalProgress(h, reportNow, core.Money{Cents: 1000}); p != 100 {
		t.Fatalf("progress should cap at 100, got %v", p)
	}
	if p := GoalProgress(h, reportNow, core.Money{}); p != 0 {
		t.Fatalf("zero target should give 0, got %v", p)
	}
	if avg := AverageBill(h); avg.Cents != 42000 {
		t.Fatalf("unexpected average %d", avg.Cents)
	}
	if avg := AverageBill([]core.BillSummary{bill("1", "X", 1, reportNow), bill("2", "X", 2, reportNow)}); avg.Cents != 2 {
		t.Fatalf("average should round half up, got %d", avg.Cents)
	}
	if d := BillsPerDay(h, reportNow, 30); d != 5.0/30 {
		t.Fatalf("unexpected bills per day %v", d)
	}
}

func TestFilterAndSortBills(t *testing.T) {
	h := history()
	cases := map[BillFilter]int{
		BillsAll:          5,
		BillsCurrentMonth: 4,
		BillsLast30Days:   5,
		BillsHighValue:    2,
		"bogus":           5,
	}
	for f, want := range cases {
		if got := len(FilterBills(h, f, reportNow)); got != want {
			t.Fatalf("%s: expected %d, got %d", f, want, got)
		}
	}

	first := func(o BillOrder) string { return SortBills(h, o)[0].ID }
	if first(BillsByDateDesc) != "5" || first(BillsByDateAsc) != "1" {
		t.Fatalf("date sorts wrong")
	}
	if first(BillsByAmountDesc) != "4" || first(BillsByAmountAsc) != "5" {
		t.Fatalf("amount sorts wrong")
	}
	if first(BillsByCustomer) != "1" {
		t.Fatalf("customer sort should be stable on ties")
	}
}

func TestBuildBillReport(t *testing.T) {
	r := BuildBillReport(history(), reportNow, core.Money{Cents: 1000000})
	if r.BillCount != 5 || r.MonthKey != "2024-03" || r.MonthTotal.Cents != 160000 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.PeakHour == nil || *r.PeakHour != 9 || r.BestMonth == nil || r.MonthlyGrowth == nil {
		t.Fatalf("expected optional views to be set: %+v", r)
	}

	empty := BuildBillReport(nil, reportNow, core.Money{Cents: 1000000})
	if empty.PeakHour != nil || empty.BestMonth != nil || empty.MonthlyGrowth != nil {
		t.Fatalf("empty history should leave optional views unset")
	}
}
