// Package export renders the record collection as month-sectioned tables.
//
// Each month section has a title row, the column header row and one row per
// record. Sections run oldest month first and are separated by two blank rows.
package export

import (
	"errors"
	"strconv"
	"time"

	"renewals/internal/core"
	"renewals/internal/records"
	"renewals/internal/report"
)

// ErrNoData is returned when there are no records to export.
var ErrNoData = errors.New("no data to export")

const (
	dayLayout       = "02/01/2006"
	timestampLayout = "02/01/2006 15:04"
	sectionGap      = 2
)

// Columns are the exported column titles, in order.
var Columns = []string{
	"Entry Date", "Plate Number", "Name", "IC", "Phone Number", "Vehicle Type",
	"Expiry Date", "Source", "Quote By", "Number of Quotations", "Status",
	"Remarks", "Created At",
}

// StatusColumn is the zero-based index of the Status column.
const StatusColumn = 10

// Row is one exported record.
type Row struct {
	EntryDate core.Date
	Record    core.Record
}

// Strings formats the row cells as text, timestamps in loc.
func (r Row) Strings(loc *time.Location) []string {
	rec := r.Record
	expiry := ""
	if !rec.ExpiryDate.IsEmpty() {
		expiry = rec.ExpiryDate.Format(dayLayout)
	}
	created := ""
	if !rec.CreatedAt.IsZero() {
		created = rec.CreatedAt.In(loc).Format(timestampLayout)
	}
	return []string{
		r.EntryDate.Format(dayLayout),
		rec.PlateNumber,
		rec.Name,
		rec.IC,
		rec.PhoneNumber,
		rec.VehicleType,
		expiry,
		rec.Source,
		rec.QuoteBy,
		strconv.Itoa(rec.NumberOfQuotations),
		string(rec.EffectiveStatus()),
		rec.Remarks,
		created,
	}
}

// Section is one month band of rows.
type Section struct {
	Key   string
	Label string
	Rows  []Row
}

// Sections orders groups oldest first and bands them by month.
func Sections(groups []core.DateGroup) []Section {
	ordered := records.SortByDate(groups, false)
	var out []Section
	for _, ms := range report.GroupByMonth(ordered, false) {
		s := Section{Key: ms.Key, Label: ms.Label}
		for _, g := range ms.Groups {
			for _, r := range g.Entries {
				s.Rows = append(s.Rows, Row{EntryDate: g.Date, Record: r})
			}
		}
		if len(s.Rows) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// FlatRows lists every record newest group first, as a single table body.
func FlatRows(groups []core.DateGroup, loc *time.Location) [][]string {
	var out [][]string
	for _, g := range groups {
		for _, r := range g.Entries {
			out = append(out, Row{EntryDate: g.Date, Record: r}.Strings(loc))
		}
	}
	return out
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// Filename suggests a download name for the given extension.
func Filename(now time.Time, ext string) string {
	return "renewals_" + now.Format("2006-01-02") + "." + ext
}
