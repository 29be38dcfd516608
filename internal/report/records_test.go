package report

import (
	"testing"
	"time"

	"renewals/internal/core"
)

func mk(id, plate, name string, status core.Status, vehicle, source string) core.Record {
	return core.Record{
		ID: id,
		Entry: core.Entry{
			PlateNumber: plate, Name: name, Status: status,
			VehicleType: vehicle, Source: source, NumberOfQuotations: 1,
		},
	}
}

func fixture() []core.DateGroup {
	a := mk("a", "WXY 1234", "Aminah", core.StatusRenew, "Car", "Allianz")
	a.Remarks = "prefers WhatsApp"
	b := mk("b", "JKL 88", "Boon", core.StatusNotRenew, "Motorcycle", "Zurich Takaful")
	b.PhoneNumber = "012-3456789"
	c := mk("c", "ABC 1", "Chandra", "", "Car", "")
	c.QuoteBy = "Siti"
	return []core.DateGroup{
		{Date: core.NewDate(2024, 3, 5), Entries: []core.Record{a, b}},
		{Date: core.NewDate(2024, 2, 28), Entries: []core.Record{c}},
	}
}

func ids(groups []core.DateGroup) []string {
	var out []string
	for _, g := range groups {
		for _, r := range g.Entries {
			out = append(out, r.ID)
		}
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty matches all", Criteria{}, []string{"a", "b", "c"}},
		{"all keyword", Criteria{Status: "all", VehicleType: "all", Source: "all"}, []string{"a", "b", "c"}},
		{"search plate case-insensitive", Criteria{Search: "wxy"}, []string{"a"}},
		{"search remarks", Criteria{Search: "whatsapp"}, []string{"a"}},
		{"search phone", Criteria{Search: "3456"}, []string{"b"}},
		{"search quoteBy", Criteria{Search: "siti"}, []string{"c"}},
		{"status default is renew", Criteria{Status: "Renew"}, []string{"a", "c"}},
		{"status not renew", Criteria{Status: "Not Renew"}, []string{"b"}},
		{"vehicle and source", Criteria{VehicleType: "Car", Source: "Allianz"}, []string{"a"}},
		{"search and status", Criteria{Search: "a", Status: "Not Renew"}, nil},
		{"no match", Criteria{Search: "zzz"}, nil},
	}
	for _, tc := range cases {
		got := Filter(fixture(), tc.c)
		if !equal(ids(got), tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, ids(got))
		}
	}
}

func TestFilterDropsEmptyGroups(t *testing.T) {
	got := Filter(fixture(), Criteria{Search: "chandra"})
	if len(got) != 1 || got[0].Date.String() != "2024-02-28" {
		t.Fatalf("unexpected groups %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture())
	if s.TotalEntries != 3 || s.TotalDates != 2 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.ByStatus[0] != (core.Count{Name: "Renew", Count: 2}) || s.ByStatus[1] != (core.Count{Name: "Not Renew", Count: 1}) {
		t.Fatalf("unexpected status counts %+v", s.ByStatus)
	}
	if len(s.ByVehicle) != 2 || s.ByVehicle[0] != (core.Count{Name: "Car", Count: 2}) {
		t.Fatalf("unexpected vehicle counts %+v", s.ByVehicle)
	}
	if len(s.BySource) != 2 || s.BySource[0].Name != "Allianz" {
		t.Fatalf("unexpected source counts %+v", s.BySource)
	}

	empty := Summarize(nil)
	if empty.TotalEntries != 0 || len(empty.ByStatus) != 2 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	first := Summarize(fixture())
	for i := 0; i < 20; i++ {
		again := Summarize(fixture())
		if len(again.BySource) != len(first.BySource) || again.BySource[1] != first.BySource[1] {
			t.Fatalf("non-deterministic source ranking")
		}
	}
}

func TestGroupByMonth(t *testing.T) {
	groups := []core.DateGroup{
		{Date: core.NewDate(2024, 3, 5)},
		{Date: core.NewDate(2024, 3, 1)},
		{Date: core.NewDate(2024, 2, 28)},
		{Date: core.NewDate(2023, 12, 31)},
	}
	desc := GroupByMonth(groups, true)
	if len(desc) != 3 || desc[0].Key != "2024-03" || desc[2].Key != "2023-12" {
		t.Fatalf("unexpected sections %+v", desc)
	}
	if desc[0].Label != "March 2024" || len(desc[0].Groups) != 2 {
		t.Fatalf("unexpected first section %+v", desc[0])
	}
	asc := GroupByMonth(groups, false)
	if asc[0].Key != "2023-12" || asc[2].Key != "2024-03" {
		t.Fatalf("unexpected ascending order %+v", asc)
	}
	if MonthLabel("nope") != "nope" {
		t.Fatalf("bad key should pass through")
	}
}

func TestSortRecords(t *testing.T) {
	recs := []core.Record{
		{ID: "1", Entry: core.Entry{Name: "charlie", ExpiryDate: core.NewDate(2025, 1, 1)}, CreatedAt: time.Unix(300, 0)},
		{ID: "2", Entry: core.Entry{Name: "Alpha"}, CreatedAt: time.Unix(100, 0)},
		{ID: "3", Entry: core.Entry{Name: "bravo", ExpiryDate: core.NewDate(2024, 6, 1)}, CreatedAt: time.Unix(200, 0)},
	}
	order := func(rs []core.Record) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}
	cases := map[RecordOrder][]string{
		RecordsByName:        {"2", "3", "1"},
		RecordsByCreatedDesc: {"1", "3", "2"},
		RecordsByCreatedAsc:  {"2", "3", "1"},
		RecordsByExpiry:      {"3", "1", "2"},
		"unknown":            {"1", "2", "3"},
	}
	for o, want := range cases {
		if got := order(SortRecords(recs, o)); !equal(got, want) {
			t.Fatalf("%s: expected %v, got %v", o, want, got)
		}
	}
	if recs[0].ID != "1" {
		t.Fatalf("input was modified")
	}
}
