package services

import (
	"context"
	"errors"
	"fmt"

	"renewals/internal/core"
	"renewals/internal/log"
	"renewals/internal/records"
	"renewals/internal/validation"
)

// RenewalService validates renewal entries and files them in the store.
// Validation problems come back as data next to a nil error; the error
// result is reserved for lookups and persistence.
type RenewalService struct {
	store *records.Store
	deps
}

func NewRenewalService(store *records.Store, opts ...Option) *RenewalService {
	d := newDeps(opts)
	d.logger = d.logger.WithComponent(log.ComponentRecords)
	return &RenewalService{store: store, deps: d}
}

// Today is the current calendar date on the service clock.
func (s *RenewalService) Today() core.Date {
	return core.DateOf(s.now())
}

// check validates entry for filing under date, ignoring excludeID in the
// duplicate check.
func (s *RenewalService) check(entry core.Entry, date core.Date, excludeID string) validation.Errors {
	errs := validation.Validate(entry, s.now())
	if validation.IsDuplicate(entry, s.store.Groups(), date, excludeID) {
		errs = append(errs, validation.DuplicateError())
	}
	return errs
}

// unique refuses the write when the group under date already holds the
// plate. The store runs it under its write lock, closing the gap between
// check and write.
func unique(entry core.Entry, date core.Date, excludeID string) records.Guard {
	return func(groups []core.DateGroup) bool {
		return !validation.IsDuplicate(entry, groups, date, excludeID)
	}
}

func (s *RenewalService) dateOrToday(date core.Date) (core.Date, error) {
	if date.IsEmpty() {
		return s.Today(), nil
	}
	if err := date.Validate(); err != nil {
		return core.Date{}, err
	}
	return date, nil
}

// CreateRecord files a new record under date, today when date is empty.
func (s *RenewalService) CreateRecord(ctx context.Context, entry core.Entry, date core.Date) (core.Record, validation.Errors, error) {
	date, err := s.dateOrToday(date)
	if err != nil {
		return core.Record{}, nil, err
	}
	entry = entry.Normalized()
	if errs := s.check(entry, date, ""); len(errs) > 0 {
		return core.Record{}, errs, nil
	}

	r := core.Record{ID: s.newID(), Entry: entry, CreatedAt: s.now().UTC()}
	err = s.store.AddRecord(ctx, r, date, unique(entry, date, ""))
	if errors.Is(err, records.ErrRejected) {
		return core.Record{}, validation.Errors{validation.DuplicateError()}, nil
	}
	if err != nil {
		return core.Record{}, nil, fmt.Errorf("create record: %w", err)
	}
	s.notify(ctx, "record created", s.store.Revision())
	return r, nil, nil
}

// EditRecord replaces every editable field of the record and refiles it when
// date differs from its current group. An empty date keeps the group.
func (s *RenewalService) EditRecord(ctx context.Context, id string, entry core.Entry, date core.Date) (core.Record, validation.Errors, error) {
	current, currentDate, ok := s.store.Find(id)
	if !ok {
		return core.Record{}, nil, core.ErrNotFound
	}
	if date.IsEmpty() {
		date = currentDate
	} else if err := date.Validate(); err != nil {
		return core.Record{}, nil, err
	}

	entry = entry.Normalized()
	if errs := s.check(entry, date, id); len(errs) > 0 {
		return core.Record{}, errs, nil
	}

	r := core.Record{ID: id, Entry: entry, CreatedAt: current.CreatedAt}
	guard := unique(entry, date, id)
	var err error
	if date.Equal(currentDate) {
		ok, err = s.store.UpdateRecord(ctx, r, guard)
	} else {
		ok, err = s.store.MoveRecord(ctx, r, date, guard)
	}
	if errors.Is(err, records.ErrRejected) {
		return core.Record{}, validation.Errors{validation.DuplicateError()}, nil
	}
	if err != nil {
		return core.Record{}, nil, fmt.Errorf("edit record: %w", err)
	}
	if !ok {
		return core.Record{}, nil, core.ErrNotFound
	}
	s.logger.InfoContext(ctx, "Record edited",
		log.NewFields().WithRecord(id, r.PlateNumber, date.String()).ToSlice()...)
	s.notify(ctx, "record edited", s.store.Revision())
	return r, nil, nil
}

// SetField changes a single field. Conversion failures are reported as a
// validation error on that field.
func (s *RenewalService) SetField(ctx context.Context, id string, u core.FieldUpdate) (core.Record, validation.Errors, error) {
	current, date, ok := s.store.Find(id)
	if !ok {
		return core.Record{}, nil, core.ErrNotFound
	}
	entry, err := u.Apply(current.Entry)
	if err != nil {
		return core.Record{}, validation.Errors{{Field: string(u.Field), Message: err.Error()}}, nil
	}
	return s.EditRecord(ctx, id, entry, date)
}

// DeleteRecord removes the record; core.ErrNotFound when it does not exist.
func (s *RenewalService) DeleteRecord(ctx context.Context, id string) error {
	ok, err := s.store.DeleteRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if !ok {
		return core.ErrNotFound
	}
	s.notify(ctx, "record deleted", s.store.Revision())
	return nil
}

// GetRecord returns the record and the date it is filed under.
func (s *RenewalService) GetRecord(id string) (core.Record, core.Date, error) {
	r, date, ok := s.store.Find(id)
	if !ok {
		return core.Record{}, core.Date{}, core.ErrNotFound
	}
	return r, date, nil
}

// ClearAll removes every record.
func (s *RenewalService) ClearAll(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	s.logger.WarnContext(ctx, "All records cleared", log.FieldOperation, log.OpClear)
	s.notify(ctx, "records cleared", s.store.Revision())
	return nil
}

// Groups returns the current collection, newest group first.
func (s *RenewalService) Groups() []core.DateGroup {
	return s.store.Groups()
}

// Revision is the store revision, for cache keys.
func (s *RenewalService) Revision() uint64 {
	return s.store.Revision()
}
