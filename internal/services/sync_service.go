package services

import (
	"context"
	"fmt"
	"time"

	"renewals/internal/log"
	"renewals/internal/records"
	"renewals/internal/sheets"
)

// WriterFactory opens a sheet writer for the stored connection settings.
type WriterFactory func(ctx context.Context, st sheets.Settings) (sheets.RangeWriter, error)

// SyncService pushes the record collection to the connected spreadsheet.
type SyncService struct {
	store    *records.Store
	settings *sheets.SettingsStore
	open     WriterFactory
	loc      *time.Location
	deps
}

func NewSyncService(store *records.Store, settings *sheets.SettingsStore, open WriterFactory, loc *time.Location, opts ...Option) *SyncService {
	d := newDeps(opts)
	d.logger = d.logger.WithComponent(log.ComponentSheets)
	if loc == nil {
		loc = time.UTC
	}
	return &SyncService{store: store, settings: settings, open: open, loc: loc, deps: d}
}

// Connect validates and stores the spreadsheet connection.
func (s *SyncService) Connect(ctx context.Context, sheetURL, apiKey, sheetName string) (sheets.Settings, error) {
	st, err := sheets.NewSettings(sheetURL, apiKey, sheetName)
	if err != nil {
		return sheets.Settings{}, err
	}
	if err := s.settings.Save(ctx, st); err != nil {
		return sheets.Settings{}, err
	}
	s.logger.InfoContext(ctx, "Google Sheets connected",
		log.FieldSpreadsheetID, st.SpreadsheetID, "sheet", st.SheetName)
	return st, nil
}

// Disconnect forgets the stored connection.
func (s *SyncService) Disconnect(ctx context.Context) error {
	return s.settings.Clear(ctx)
}

// Settings returns the stored connection or sheets.ErrNotConnected.
func (s *SyncService) Settings(ctx context.Context) (sheets.Settings, error) {
	return s.settings.Load(ctx)
}

// Push replaces the sheet contents with the current collection and returns
// the number of records written.
func (s *SyncService) Push(ctx context.Context) (int, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	w, err := s.open(ctx, st)
	if err != nil {
		return 0, fmt.Errorf("open sheet: %w", err)
	}

	start := time.Now()
	n, err := sheets.Push(ctx, w, st.SheetName, s.store.Groups(), s.loc)
	if err != nil {
		s.logger.ErrorContext(ctx, "Sheets push failed",
			log.FieldSpreadsheetID, st.SpreadsheetID, log.FieldError, err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "Sheets push complete",
		log.FieldSpreadsheetID, st.SpreadsheetID,
		log.FieldCount, n,
		log.FieldDuration, time.Since(start).Milliseconds())
	return n, nil
}

// RequestPush queues a push when a publisher is configured and pushes inline
// otherwise. queued reports which path was taken; n is only set inline.
func (s *SyncService) RequestPush(ctx context.Context, reason string) (queued bool, n int, err error) {
	if s.publisher != nil {
		if err := s.publisher.PublishSheetsSync(ctx, reason, s.store.Revision()); err != nil {
			return false, 0, fmt.Errorf("queue sheets push: %w", err)
		}
		return true, 0, nil
	}
	n, err = s.Push(ctx)
	return false, n, err
}
