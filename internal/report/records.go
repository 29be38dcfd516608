// Package report derives read-only views from record and bill snapshots.
//
// Every function is pure. Views that depend on "now" take it as a parameter,
// and its location decides calendar boundaries.
package report

import (
	"sort"
	"strings"

	"renewals/internal/core"
)

// All matches every value of a filter criterion.
const All = "all"

// Criteria narrows records. Empty or "all" fields match everything; the set
// fields are combined with AND.
type Criteria struct {
	Search      string `json:"search"`
	Status      string `json:"status"`
	VehicleType string `json:"vehicleType"`
	Source      string `json:"source"`
}

func (c Criteria) IsZero() bool {
	return isAny(c.Search) && isAny(c.Status) && isAny(c.VehicleType) && isAny(c.Source)
}

func isAny(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// Matches reports whether r satisfies every criterion.
func (c Criteria) Matches(r core.Record) bool {
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		hay := []string{r.PlateNumber, r.Name, r.IC, r.PhoneNumber, r.QuoteBy, r.Remarks}
		found := false
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !isAny(c.Status) && string(r.EffectiveStatus()) != c.Status {
		return false
	}
	if !isAny(c.VehicleType) && r.VehicleType != c.VehicleType {
		return false
	}
	if !isAny(c.Source) && r.Source != c.Source {
		return false
	}
	return true
}

// Filter keeps matching records and drops groups left empty.
func Filter(groups []core.DateGroup, c Criteria) []core.DateGroup {
	out := make([]core.DateGroup, 0, len(groups))
	for _, g := range groups {
		var kept []core.Record
		for _, r := range g.Entries {
			if c.Matches(r) {
				kept = append(kept, r)
			}
		}
		if len(kept) > 0 {
			out = append(out, core.DateGroup{Date: g.Date, Entries: kept})
		}
	}
	return out
}

// Summarize counts records overall and per status, vehicle type and source.
// Status counts always list both statuses; the other breakdowns list only
// values in use, most frequent first.
func Summarize(groups []core.DateGroup) core.RecordSummary {
	status := map[string]int{}
	vehicle := map[string]int{}
	source := map[string]int{}
	sum := core.RecordSummary{}

	for _, g := range groups {
		if len(g.Entries) > 0 {
			sum.TotalDates++
		}
		for _, r := range g.Entries {
			sum.TotalEntries++
			status[string(r.EffectiveStatus())]++
			if v := strings.TrimSpace(r.VehicleType); v != "" {
				vehicle[v]++
			}
			if s := strings.TrimSpace(r.Source); s != "" {
				source[s]++
			}
		}
	}

	for _, st := range core.Statuses {
		sum.ByStatus = append(sum.ByStatus, core.Count{Name: string(st), Count: status[string(st)]})
	}
	sum.ByVehicle = rank(vehicle)
	sum.BySource = rank(source)
	return sum
}

func rank(m map[string]int) []core.Count {
	out := make([]core.Count, 0, len(m))
	for name, n := range m {
		out = append(out, core.Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RecordOrder names a record sort.
type RecordOrder string

const (
	RecordsByName        RecordOrder = "name"
	RecordsByCreatedDesc RecordOrder = "created-desc"
	RecordsByCreatedAsc  RecordOrder = "created-asc"
	RecordsByExpiry      RecordOrder = "expiry"
)

// SortRecords returns a stably sorted copy. Unknown orders keep input order.
func SortRecords(records []core.Record, order RecordOrder) []core.Record {
	out := append([]core.Record{}, records...)
	var less func(a, b core.Record) bool
	switch order {
	case RecordsByName:
		less = func(a, b core.Record) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case RecordsByCreatedDesc:
		less = func(a, b core.Record) bool { return a.CreatedAt.After(b.CreatedAt) }
	case RecordsByCreatedAsc:
		less = func(a, b core.Record) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case RecordsByExpiry:
		// undated expiries sort last
		less = func(a, b core.Record) bool {
			if a.ExpiryDate.IsEmpty() != b.ExpiryDate.IsEmpty() {
				return b.ExpiryDate.IsEmpty()
			}
			return a.ExpiryDate.Before(b.ExpiryDate.Time)
		}
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
