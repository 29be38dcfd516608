// Package records keeps renewal records filed under calendar dates.
//
// The functions in this file are pure: they never modify the slice they are
// given and always return a new collection. Store layers persistence on top.
package records

import (
	"sort"

	"renewals/internal/core"
)

// Add files r under date, creating the group when missing, and returns the
// collection sorted newest date first.
func Add(groups []core.DateGroup, r core.Record, date core.Date) []core.DateGroup {
	out := Clone(groups)
	for i := range out {
		if out[i].Date.Equal(date) {
			out[i].Entries = append(out[i].Entries, r)
			return SortByDate(out, true)
		}
	}
	out = append(out, core.DateGroup{Date: date, Entries: []core.Record{r}})
	return SortByDate(out, true)
}

// Update replaces the record with r.ID wherever it is filed. It reports
// false, leaving the collection unchanged, when no record has that ID.
func Update(groups []core.DateGroup, r core.Record) ([]core.DateGroup, bool) {
	out := Clone(groups)
	for gi := range out {
		for ri := range out[gi].Entries {
			if out[gi].Entries[ri].ID == r.ID {
				out[gi].Entries[ri] = r
				return out, true
			}
		}
	}
	return out, false
}

// Move refiles the record r.ID under date, replacing its content with r.
// Groups left empty are pruned.
func Move(groups []core.DateGroup, r core.Record, date core.Date) ([]core.DateGroup, bool) {
	_, from, ok := Find(groups, r.ID)
	if !ok {
		return Clone(groups), false
	}
	if from.Equal(date) {
		return Update(groups, r)
	}
	out, _ := Delete(groups, r.ID)
	return Add(out, r, date), true
}

// Delete removes the record with id and prunes its group if it becomes empty.
func Delete(groups []core.DateGroup, id string) ([]core.DateGroup, bool) {
	out := make([]core.DateGroup, 0, len(groups))
	found := false
	for _, g := range groups {
		entries := make([]core.Record, 0, len(g.Entries))
		for _, r := range g.Entries {
			if r.ID == id {
				found = true
				continue
			}
			entries = append(entries, r)
		}
		if len(entries) == 0 && len(g.Entries) > 0 {
			continue
		}
		out = append(out, core.DateGroup{Date: g.Date, Entries: entries})
	}
	return out, found
}

// Find returns the record with id and the date it is filed under.
func Find(groups []core.DateGroup, id string) (core.Record, core.Date, bool) {
	for _, g := range groups {
		for _, r := range g.Entries {
			if r.ID == id {
				return r, g.Date, true
			}
		}
	}
	return core.Record{}, core.Date{}, false
}

// Flatten lists every record in group order.
func Flatten(groups []core.DateGroup) []core.Record {
	var n int
	for _, g := range groups {
		n += len(g.Entries)
	}
	out := make([]core.Record, 0, n)
	for _, g := range groups {
		out = append(out, g.Entries...)
	}
	return out
}

// Count returns the number of records across all groups.
func Count(groups []core.DateGroup) int {
	var n int
	for _, g := range groups {
		n += len(g.Entries)
	}
	return n
}

// SortByDate returns a copy ordered by group date. The sort is stable, so
// sorting an already sorted collection yields the same sequence.
func SortByDate(groups []core.DateGroup, desc bool) []core.DateGroup {
	out := Clone(groups)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// Clone deep-copies the collection.
func Clone(groups []core.DateGroup) []core.DateGroup {
	out := make([]core.DateGroup, len(groups))
	for i, g := range groups {
		out[i] = core.DateGroup{Date: g.Date, Entries: append([]core.Record{}, g.Entries...)}
	}
	return out
}
