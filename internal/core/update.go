package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names an editable Entry attribute, using the JSON field names.
type Field string

const (
	FieldPlateNumber        Field = "plateNumber"
	FieldName               Field = "name"
	FieldIC                 Field = "ic"
	FieldPhoneNumber        Field = "phoneNumber"
	FieldVehicleType        Field = "vehicleType"
	FieldExpiryDate         Field = "expiryDate"
	FieldSource             Field = "source"
	FieldQuoteBy            Field = "quoteBy"
	FieldNumberOfQuotations Field = "numberOfQuotations"
	FieldStatus             Field = "status"
	FieldRemarks            Field = "remarks"
)

// EditableFields lists every field a FieldUpdate may target.
var EditableFields = []Field{
	FieldPlateNumber, FieldName, FieldIC, FieldPhoneNumber, FieldVehicleType,
	FieldExpiryDate, FieldSource, FieldQuoteBy, FieldNumberOfQuotations,
	FieldStatus, FieldRemarks,
}

// FieldUpdate sets a single field of an Entry from its textual form.
type FieldUpdate struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// ParseField resolves a field name against the closed set of editable fields.
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "id", "createdAt":
		return "", fmt.Errorf("%w: %s", ErrImmutableField, name)
	}
	for _, f := range EditableFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// NewFieldUpdate builds an update after checking the field name.
func NewFieldUpdate(field, value string) (FieldUpdate, error) {
	f, err := ParseField(field)
	if err != nil {
		return FieldUpdate{}, err
	}
	return FieldUpdate{Field: f, Value: value}, nil
}

// Apply returns a copy of e with the update applied. It converts the value
// but leaves business rules to the validator.
func (u FieldUpdate) Apply(e Entry) (Entry, error) {
	switch u.Field {
	case FieldPlateNumber:
		e.PlateNumber = u.Value
	case FieldName:
		e.Name = u.Value
	case FieldIC:
		e.IC = u.Value
	case FieldPhoneNumber:
		e.PhoneNumber = u.Value
	case FieldVehicleType:
		e.VehicleType = u.Value
	case FieldExpiryDate:
		d, err := ParseDate(u.Value)
		if err != nil {
			return e, fmt.Errorf("%s: %w", u.Field, err)
		}
		e.ExpiryDate = d
	case FieldSource:
		e.Source = u.Value
	case FieldQuoteBy:
		e.QuoteBy = u.Value
	case FieldNumberOfQuotations:
		n, err := strconv.Atoi(strings.TrimSpace(u.Value))
		if err != nil {
			return e, fmt.Errorf("%s: not a whole number: %q", u.Field, u.Value)
		}
		e.NumberOfQuotations = n
	case FieldStatus:
		e.Status = Status(strings.TrimSpace(u.Value))
	case FieldRemarks:
		e.Remarks = u.Value
	default:
		return e, fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
	}
	return e, nil
}
