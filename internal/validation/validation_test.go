package validation

import (
	"strings"
	"testing"
	"time"

	"renewals/internal/core"
)

var now = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func validEntry() core.Entry {
	e := core.NewEntry()
	e.PlateNumber = "WXY 1234"
	e.Name = "Aminah binti Ali"
	return e
}

func TestValidateAcceptsMinimalEntry(t *testing.T) {
	if errs := Validate(validEntry(), now); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	e := core.Entry{PlateNumber: "??", Name: "", IC: "12345", NumberOfQuotations: -1}
	errs := Validate(e, now)
	if len(errs) != 4 {
		t.Fatalf("expected exactly 4 errors, got %d: %v", len(errs), errs)
	}
	want := map[string]string{
		"plateNumber":        MsgPlateFormat,
		"name":               MsgNameRequired,
		"ic":                 MsgICFormat,
		"numberOfQuotations": MsgQuotationsNegative,
	}
	for _, fe := range errs {
		if want[fe.Field] != fe.Message {
			t.Fatalf("unexpected error %+v", fe)
		}
	}
}

func TestValidatePlate(t *testing.T) {
	cases := []struct {
		plate string
		ok    bool
	}{
		{"WXY 1234", true},
		{"wxy1234", true},
		{"  ABC 123 ", true},
		{"B 1234 C", true},
		{"VAA 12A", true},
		{"1234 AB", true},
		{"12AB", true},
		{"ABCD 1234", false},
		{"ABC 12345", false},
		{"??", false},
		{"W-1234", false},
	}
	for _, tc := range cases {
		if got := ValidPlate(tc.plate); got != tc.ok {
			t.Fatalf("%q expected %v, got %v", tc.plate, tc.ok, got)
		}
	}

	e := validEntry()
	e.PlateNumber = "   "
	errs := Validate(e, now)
	if len(errs) != 1 || errs[0].Message != MsgPlateRequired {
		t.Fatalf("expected required error, got %v", errs)
	}
}

func TestValidatePhone(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"012-345 6789", true},
		{"0123456789", true},
		{"01123456789", true},
		{"+60123456789", true},
		{"60312345678", true},
		{"+603 1234 5678", true},
		{"6041234567", true},
		{"0151234567", false},
		{"12345", false},
		{"phone", false},
	}
	for _, tc := range cases {
		if got := ValidPhone(tc.phone); got != tc.ok {
			t.Fatalf("%q expected %v, got %v", tc.phone, tc.ok, got)
		}
	}
}

func TestValidateIC(t *testing.T) {
	e := validEntry()
	e.IC = "900101-14-5678"
	if errs := Validate(e, now); len(errs) != 0 {
		t.Fatalf("expected valid IC, got %v", errs)
	}
	e.IC = "9001011456 78"
	if errs := Validate(e, now); !errs.HasField("ic") {
		t.Fatalf("expected IC error, got %v", errs)
	}
}

func TestValidateExpiryDate(t *testing.T) {
	e := validEntry()
	e.ExpiryDate = core.NewDate(2024, 3, 6)
	if errs := Validate(e, now); len(errs) != 0 {
		t.Fatalf("tomorrow should be valid, got %v", errs)
	}
	for _, d := range []core.Date{core.NewDate(2024, 3, 5), core.NewDate(2023, 12, 31)} {
		e.ExpiryDate = d
		if errs := Validate(e, now); !errs.HasField("expiryDate") {
			t.Fatalf("%v should be rejected, got %v", d, errs)
		}
	}
}

func TestValidateOptionFields(t *testing.T) {
	e := validEntry()
	e.Status = "Maybe"
	e.VehicleType = "Boat"
	e.Source = "Acme"
	errs := Validate(e, now)
	if len(errs) != 3 || !errs.HasField("status") || !errs.HasField("vehicleType") || !errs.HasField("source") {
		t.Fatalf("expected option errors, got %v", errs)
	}

	e = validEntry()
	e.Status = ""
	e.VehicleType = "Car"
	e.Source = "Allianz"
	if errs := Validate(e, now); len(errs) != 0 {
		t.Fatalf("expected valid options, got %v", errs)
	}
}

func TestErrorsAsError(t *testing.T) {
	var none Errors
	if none.Err() != nil {
		t.Fatalf("empty errors should be nil")
	}
	errs := Validate(core.Entry{}, now)
	if errs.Err() == nil || !strings.Contains(errs.Error(), "plateNumber") {
		t.Fatalf("unexpected error text %q", errs.Error())
	}
}

func TestIsDuplicate(t *testing.T) {
	day := core.NewDate(2024, 3, 5)
	groups := []core.DateGroup{
		{Date: day, Entries: []core.Record{{ID: "r1", Entry: core.Entry{PlateNumber: "WXY 1234"}}}},
		{Date: core.NewDate(2024, 3, 4), Entries: []core.Record{{ID: "r2", Entry: core.Entry{PlateNumber: "ABC 1"}}}},
	}
	cand := core.Entry{PlateNumber: " wxy 1234 "}

	if !IsDuplicate(cand, groups, day, "") {
		t.Fatalf("same plate on same date should be a duplicate")
	}
	if IsDuplicate(cand, groups, core.NewDate(2024, 3, 6), "") {
		t.Fatalf("same plate on another date is allowed")
	}
	if IsDuplicate(cand, groups, day, "r1") {
		t.Fatalf("the record being edited must be excluded")
	}
	if IsDuplicate(core.Entry{PlateNumber: "ABC 1"}, groups, day, "") {
		t.Fatalf("plate filed under a different date is not a duplicate")
	}
}
