// Package validation checks renewal entries against format and business rules.
//
// Validate inspects a single candidate and reports every violation it finds.
// IsDuplicate is the cross-record check and needs the existing groups.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"renewals/internal/core"
)

// FieldDuplicate is the pseudo-field used for duplicate plate errors.
const FieldDuplicate = "duplicate"

const (
	MsgPlateRequired      = "Plate number is required"
	MsgPlateFormat        = "Invalid plate number format"
	MsgNameRequired       = "Name is required"
	MsgICFormat           = "Invalid IC number format (should be XXXXXX-XX-XXXX)"
	MsgPhoneFormat        = "Invalid phone number format"
	MsgQuotationsNegative = "Number of quotations cannot be negative"
	MsgExpiryNotFuture    = "Expiry date must be in the future"
	MsgStatusUnknown      = "Status must be Renew or Not Renew"
	MsgVehicleUnknown     = "Unknown vehicle type"
	MsgSourceUnknown      = "Unknown source"
	MsgDuplicate          = "An entry with this plate number already exists for this date"
)

var (
	platePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^[A-Z]{1,3}\s?\d{1,4}[A-Z]?$`),
		regexp.MustCompile(`(?i)^\d{1,4}\s?[A-Z]{1,3}$`),
		regexp.MustCompile(`(?i)^[A-Z]{1,2}\s?\d{1,4}\s?[A-Z]$`),
	}
	icPattern     = regexp.MustCompile(`^\d{6}-\d{2}-\d{4}$`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\+?6?01)[0-46-9]-*[0-9]{7,8}$`),
		regexp.MustCompile(`^(\+?603)[0-9]{8}$`),
		regexp.MustCompile(`^(\+?60[4-9])[0-9]{7}$`),
	}
	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
)

// FieldError is a violation scoped to one entry field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of violations found for a candidate.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e), strings.Join(parts, "; "))
}

// HasField reports whether any violation concerns field.
func (e Errors) HasField(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Err returns e as an error, or nil when there are no violations.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *Errors) add(field core.Field, msg string) {
	*e = append(*e, FieldError{Field: string(field), Message: msg})
}

// Validate checks the candidate against every field rule. Expiry dates are
// compared with now, which callers take from their clock.
func Validate(e core.Entry, now time.Time) Errors {
	var errs Errors

	plate := strings.TrimSpace(e.PlateNumber)
	switch {
	case plate == "":
		errs.add(core.FieldPlateNumber, MsgPlateRequired)
	case !ValidPlate(plate):
		errs.add(core.FieldPlateNumber, MsgPlateFormat)
	}

	if strings.TrimSpace(e.Name) == "" {
		errs.add(core.FieldName, MsgNameRequired)
	}

	if ic := strings.TrimSpace(e.IC); ic != "" && !icPattern.MatchString(ic) {
		errs.add(core.FieldIC, MsgICFormat)
	}

	if phone := strings.TrimSpace(e.PhoneNumber); phone != "" && !ValidPhone(phone) {
		errs.add(core.FieldPhoneNumber, MsgPhoneFormat)
	}

	if e.NumberOfQuotations < 0 {
		errs.add(core.FieldNumberOfQuotations, MsgQuotationsNegative)
	}

	// A date-only expiry means midnight UTC of that day.
	if !e.ExpiryDate.IsEmpty() && !e.ExpiryDate.After(now) {
		errs.add(core.FieldExpiryDate, MsgExpiryNotFuture)
	}

	if e.Status != "" && !e.Status.IsValid() {
		errs.add(core.FieldStatus, MsgStatusUnknown)
	}
	if v := strings.TrimSpace(e.VehicleType); v != "" && !core.IsVehicleType(v) {
		errs.add(core.FieldVehicleType, MsgVehicleUnknown)
	}
	if s := strings.TrimSpace(e.Source); s != "" && !core.IsSource(s) {
		errs.add(core.FieldSource, MsgSourceUnknown)
	}

	return errs
}

// ValidPlate reports whether plate matches one of the accepted layouts.
func ValidPlate(plate string) bool {
	plate = strings.TrimSpace(plate)
	for _, p := range platePatterns {
		if p.MatchString(plate) {
			return true
		}
	}
	return false
}

// ValidPhone reports whether phone is a mobile or landline number once spaces
// and dashes are removed.
func ValidPhone(phone string) bool {
	cleaned := phoneSeparators.Replace(phone)
	for _, p := range phonePatterns {
		if p.MatchString(cleaned) {
			return true
		}
	}
	return false
}

// IsDuplicate reports whether the group filed under targetDate already holds a
// record, other than excludeID, with the same plate number.
func IsDuplicate(candidate core.Entry, groups []core.DateGroup, targetDate core.Date, excludeID string) bool {
	for _, g := range groups {
		if !g.Date.Equal(targetDate) {
			continue
		}
		for _, r := range g.Entries {
			if excludeID != "" && r.ID == excludeID {
				continue
			}
			if core.SamePlate(r.PlateNumber, candidate.PlateNumber) {
				return true
			}
		}
	}
	return false
}

// DuplicateError is the error reported when IsDuplicate holds.
func DuplicateError() FieldError {
	return FieldError{Field: FieldDuplicate, Message: MsgDuplicate}
}
