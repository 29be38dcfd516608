package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusRenew    Status = "Renew"
	StatusNotRenew Status = "Not Renew"
)

// DateLayout is the calendar-date form used for group keys and JSON.
const DateLayout = "2006-01-02"

type (
	Status string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is the editable part of a renewal record, as submitted by a form.
	Entry struct {
		PlateNumber        string `json:"plateNumber"`
		Name               string `json:"name"`
		IC                 string `json:"ic"`
		PhoneNumber        string `json:"phoneNumber"`
		VehicleType        string `json:"vehicleType"`
		ExpiryDate         Date   `json:"expiryDate"`
		Source             string `json:"source"`
		QuoteBy            string `json:"quoteBy"`
		NumberOfQuotations int    `json:"numberOfQuotations"`
		Status             Status `json:"status"`
		Remarks            string `json:"remarks"`
	}

	// Record is a stored renewal entry. ID and CreatedAt are set once on creation.
	Record struct {
		ID string `json:"id"`
		Entry
		CreatedAt time.Time `json:"createdAt"`
	}

	// DateGroup files records under one calendar date.
	DateGroup struct {
		Date    Date     `json:"date"`
		Entries []Record `json:"entries"`
	}
)

var (
	VehicleTypes = []string{"Car", "Motorcycle", "Truck", "Van", "Bus", "Trailer", "Other"}
	Sources      = []string{"Zurich Takaful", "Takaful Ikhlas", "Pacific Insurances", "Allianz", "Syarikat Takaful Malaysia"}
	Statuses     = []Status{StatusRenew, StatusNotRenew}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNotFound       = errors.New("not found")
	ErrUnknownField   = errors.New("unknown field")
	ErrImmutableField = errors.New("field cannot be changed")
	ErrEmptyBill      = errors.New("bill has no items")
)

// NewEntry returns an entry carrying the form defaults.
func NewEntry() Entry {
	return Entry{NumberOfQuotations: 1, Status: StatusRenew}
}

// EffectiveStatus treats an unset status as Renew.
func (e Entry) EffectiveStatus() Status {
	if e.Status == "" {
		return StatusRenew
	}
	return e.Status
}

// Normalized trims the free-text fields of the entry.
func (e Entry) Normalized() Entry {
	e.PlateNumber = strings.TrimSpace(e.PlateNumber)
	e.Name = strings.TrimSpace(e.Name)
	e.IC = strings.TrimSpace(e.IC)
	e.PhoneNumber = strings.TrimSpace(e.PhoneNumber)
	e.VehicleType = strings.TrimSpace(e.VehicleType)
	e.Source = strings.TrimSpace(e.Source)
	e.QuoteBy = strings.TrimSpace(e.QuoteBy)
	e.Remarks = strings.TrimSpace(e.Remarks)
	e.Status = e.EffectiveStatus()
	return e
}

func (s Status) IsValid() bool {
	return s == StatusRenew || s == StatusNotRenew
}

func (s Status) String() string {
	return string(s)
}

// IsVehicleType reports whether v is one of the known vehicle categories.
func IsVehicleType(v string) bool {
	return contains(VehicleTypes, v)
}

// IsSource reports whether s is one of the known insurance providers.
func IsSource(s string) bool {
	return contains(Sources, s)
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// SamePlate compares plate numbers ignoring case and surrounding whitespace.
func SamePlate(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts "2006-01-02" or a full RFC 3339 timestamp, whose date
// portion is kept. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date falls into.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// Equal compares calendar dates.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
