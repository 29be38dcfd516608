package report

import (
	"sort"
	"strings"
	"time"

	"renewals/internal/core"
)

// MonthKey is the YYYY-MM bucket of t in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01")
}

// MonthlyTotals sums bill totals per generation month.
func MonthlyTotals(bills []core.BillSummary, loc *time.Location) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, b := range bills {
		k := MonthKey(b.Date, loc)
		out[k] = out[k].Add(b.Total)
	}
	return out
}

// MonthlySeries lists monthly totals and counts oldest month first.
func MonthlySeries(bills []core.BillSummary, loc *time.Location) []core.MonthTotal {
	idx := map[string]int{}
	var out []core.MonthTotal
	for _, b := range bills {
		k := MonthKey(b.Date, loc)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, core.MonthTotal{Month: k})
		}
		out[i].Total = out[i].Total.Add(b.Total)
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TotalRevenue sums every bill.
func TotalRevenue(bills []core.BillSummary) core.Money {
	var sum core.Money
	for _, b := range bills {
		sum = sum.Add(b.Total)
	}
	return sum
}

// MonthEntries returns the bills generated in now's calendar month.
func MonthEntries(bills []core.BillSummary, now time.Time) []core.BillSummary {
	key := MonthKey(now, now.Location())
	var out []core.BillSummary
	for _, b := range bills {
		if MonthKey(b.Date, now.Location()) == key {
			out = append(out, b)
		}
	}
	return out
}

// MonthTotal is the revenue of now's calendar month.
func MonthTotal(bills []core.BillSummary, now time.Time) core.Money {
	return TotalRevenue(MonthEntries(bills, now))
}

// TopCustomers ranks customers by number of bills, then by name, and returns
// at most n with their revenue.
func TopCustomers(bills []core.BillSummary, n int) []core.CustomerStat {
	idx := map[string]int{}
	var stats []core.CustomerStat
	for _, b := range bills {
		i, ok := idx[b.CustomerName]
		if !ok {
			i = len(stats)
			idx[b.CustomerName] = i
			stats = append(stats, core.CustomerStat{Name: b.CustomerName})
		}
		stats[i].Count++
		stats[i].Revenue = stats[i].Revenue.Add(b.Total)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if n >= 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// PeakHour returns the hour of day (in loc) with the most bills. Ties go to
// the lowest hour. ok is false when there are no bills.
func PeakHour(bills []core.BillSummary, loc *time.Location) (hour, count int, ok bool) {
	if len(bills) == 0 {
		return 0, 0, false
	}
	if loc == nil {
		loc = time.UTC
	}
	var hours [24]int
	for _, b := range bills {
		hours[b.Date.In(loc).Hour()]++
	}
	for h, c := range hours {
		if c > count {
			hour, count = h, c
		}
	}
	return hour, count, true
}

// WeekStart is midnight of the Sunday starting now's week.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// WeekToDate sums bills generated from the start of now's week up to now.
func WeekToDate(bills []core.BillSummary, now time.Time) (core.Money, int) {
	start := WeekStart(now)
	var sum core.Money
	var n int
	for _, b := range bills {
		if !b.Date.Before(start) && !b.Date.After(now) {
			sum = sum.Add(b.Total)
			n++
		}
	}
	return sum, n
}

// BestMonth is the month with the highest revenue; ties go to the earlier month.
func BestMonth(bills []core.BillSummary, loc *time.Location) (core.MonthTotal, bool) {
	series := MonthlySeries(bills, loc)
	if len(series) == 0 {
		return core.MonthTotal{}, false
	}
	best := series[0]
	for _, m := range series[1:] {
		if m.Total.Cents > best.Total.Cents {
			best = m
		}
	}
	return best, true
}

// PreviousMonthKey is the YYYY-MM before now's month.
func PreviousMonthKey(now time.Time) string {
	y, m, _ := now.Date()
	return time.Date(y, m-1, 1, 0, 0, 0, 0, now.Location()).Format("2006-01")
}

// MonthlyGrowth compares this month's revenue with last month's, in percent.
// ok is false when last month had no revenue.
func MonthlyGrowth(bills []core.BillSummary, now time.Time) (pct float64, ok bool) {
	totals := MonthlyTotals(bills, now.Location())
	cur := totals[MonthKey(now, now.Location())]
	prev := totals[PreviousMonthKey(now)]
	if prev.Cents <= 0 {
		return 0, false
	}
	return float64(cur.Cents-prev.Cents) * 100 / float64(prev.Cents), true
}

// GoalProgress is this month's revenue as a percentage of target, capped at 100.
func GoalProgress(bills []core.BillSummary, now time.Time, target core.Money) float64 {
	if target.Cents <= 0 {
		return 0
	}
	pct := float64(MonthTotal(bills, now).Cents) * 100 / float64(target.Cents)
	if pct > 100 {
		return 100
	}
	return pct
}

// RecentBills returns bills generated within the last days days before now.
func RecentBills(bills []core.BillSummary, now time.Time, days int) []core.BillSummary {
	cutoff := now.AddDate(0, 0, -days)
	var out []core.BillSummary
	for _, b := range bills {
		if !b.Date.Before(cutoff) && !b.Date.After(now) {
			out = append(out, b)
		}
	}
	return out
}

// BillsPerDay is the average number of bills per day over the last days days.
func BillsPerDay(bills []core.BillSummary, now time.Time, days int) float64 {
	if days <= 0 {
		return 0
	}
	return float64(len(RecentBills(bills, now, days))) / float64(days)
}

// AverageBill is the mean bill total, rounded half up to the cent.
func AverageBill(bills []core.BillSummary) core.Money {
	if len(bills) == 0 {
		return core.Money{}
	}
	total := TotalRevenue(bills).Cents
	n := int64(len(bills))
	return core.Money{Cents: (total*2 + n) / (2 * n)}
}

// BillFilter names a transaction filter.
type BillFilter string

const (
	BillsAll          BillFilter = "all"
	BillsCurrentMonth BillFilter = "current-month"
	BillsLast30Days   BillFilter = "last-30-days"
	BillsHighValue    BillFilter = "high-value"
)

// FilterBills applies a transaction filter. High-value bills are those above
// the mean of all bills. Unknown filters behave like BillsAll.
func FilterBills(bills []core.BillSummary, f BillFilter, now time.Time) []core.BillSummary {
	switch f {
	case BillsCurrentMonth:
		return MonthEntries(bills, now)
	case BillsLast30Days:
		return RecentBills(bills, now, 30)
	case BillsHighValue:
		avg := AverageBill(bills)
		var out []core.BillSummary
		for _, b := range bills {
			if b.Total.Cents > avg.Cents {
				out = append(out, b)
			}
		}
		return out
	default:
		return append([]core.BillSummary{}, bills...)
	}
}

// BillOrder names a transaction sort.
type BillOrder string

const (
	BillsByDateDesc   BillOrder = "date-desc"
	BillsByDateAsc    BillOrder = "date-asc"
	BillsByAmountDesc BillOrder = "amount-desc"
	BillsByAmountAsc  BillOrder = "amount-asc"
	BillsByCustomer   BillOrder = "customer"
)

// SortBills returns a stably sorted copy; unknown orders use date-desc.
func SortBills(bills []core.BillSummary, order BillOrder) []core.BillSummary {
	out := append([]core.BillSummary{}, bills...)
	var less func(a, b core.BillSummary) bool
	switch order {
	case BillsByDateAsc:
		less = func(a, b core.BillSummary) bool { return a.Date.Before(b.Date) }
	case BillsByAmountDesc:
		less = func(a, b core.BillSummary) bool { return a.Total.Cents > b.Total.Cents }
	case BillsByAmountAsc:
		less = func(a, b core.BillSummary) bool { return a.Total.Cents < b.Total.Cents }
	case BillsByCustomer:
		less = func(a, b core.BillSummary) bool {
			return strings.ToLower(a.CustomerName) < strings.ToLower(b.CustomerName)
		}
	default:
		less = func(a, b core.BillSummary) bool { return a.Date.After(b.Date) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// BillReport gathers the reporting views of the bill history at one moment.
type BillReport struct {
	GeneratedAt    time.Time           `json:"generatedAt"`
	BillCount      int                 `json:"billCount"`
	TotalRevenue   core.Money          `json:"totalRevenue"`
	MonthKey       string              `json:"month"`
	MonthTotal     core.Money          `json:"monthTotal"`
	MonthEntries   []core.BillSummary  `json:"monthEntries"`
	Monthly        []core.MonthTotal   `json:"monthly"`
	TopCustomers   []core.CustomerStat `json:"topCustomers"`
	PeakHour       *int                `json:"peakHour"`
	PeakHourCount  int                 `json:"peakHourCount"`
	WeekRevenue    core.Money          `json:"weekRevenue"`
	WeekCount      int                 `json:"weekCount"`
	BestMonth      *core.MonthTotal    `json:"bestMonth"`
	MonthlyGrowth  *float64            `json:"monthlyGrowth"`
	GoalTarget     core.Money          `json:"goalTarget"`
	GoalProgress   float64             `json:"goalProgress"`
	BillsPerDay30d float64             `json:"billsPerDay30d"`
	AverageBill    core.Money          `json:"averageBill"`
}

// TopCustomerLimit is the number of customers shown in reports.
const TopCustomerLimit = 5

// BuildBillReport computes every bill view at now, in now's location.
func BuildBillReport(bills []core.BillSummary, now time.Time, target core.Money) BillReport {
	loc := now.Location()
	r := BillReport{
		GeneratedAt:    now,
		BillCount:      len(bills),
		TotalRevenue:   TotalRevenue(bills),
		MonthKey:       MonthKey(now, loc),
		MonthTotal:     MonthTotal(bills, now),
		MonthEntries:   MonthEntries(bills, now),
		Monthly:        MonthlySeries(bills, loc),
		TopCustomers:   TopCustomers(bills, TopCustomerLimit),
		GoalTarget:     target,
		GoalProgress:   GoalProgress(bills, now, target),
		BillsPerDay30d: BillsPerDay(bills, now, 30),
		AverageBill:    AverageBill(bills),
	}
	if h, c, ok := PeakHour(bills, loc); ok {
		r.PeakHour, r.PeakHourCount = &h, c
	}
	r.WeekRevenue, r.WeekCount = WeekToDate(bills, now)
	if best, ok := BestMonth(bills, loc); ok {
		r.BestMonth = &best
	}
	if g, ok := MonthlyGrowth(bills, now); ok {
		r.MonthlyGrowth = &g
	}
	return r
}
