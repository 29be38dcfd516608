package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"renewals/internal/storage"
)

// DefaultSheetName is used when a connection names no tab.
const DefaultSheetName = "Sheet1"

var (
	ErrNotConnected     = errors.New("google sheets not connected")
	ErrInvalidSheetURL  = errors.New("invalid google sheets url")
	ErrMissingAPIKey    = errors.New("missing google api key")
	spreadsheetIDInPath = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	bareSpreadsheetID   = regexp.MustCompile(`^[a-zA-Z0-9-_]{20,}$`)
)

// Settings describe the connected spreadsheet.
type Settings struct {
	SheetURL      string `json:"sheetUrl"`
	SpreadsheetID string `json:"spreadsheetId"`
	APIKey        string `json:"apiKey,omitempty"`
	SheetName     string `json:"sheetName"`
}

// Connected reports whether the settings point at a spreadsheet.
func (s Settings) Connected() bool {
	return s.SpreadsheetID != ""
}

// ExtractSpreadsheetID pulls the spreadsheet id out of a sheet URL. A bare id
// is accepted as is.
func ExtractSpreadsheetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := spreadsheetIDInPath.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if bareSpreadsheetID.MatchString(ref) {
		return ref, nil
	}
	return "", ErrInvalidSheetURL
}

// NewSettings validates a connection request. apiKey may be empty when
// service account credentials are configured instead.
func NewSettings(sheetURL, apiKey, sheetName string) (Settings, error) {
	id, err := ExtractSpreadsheetID(sheetURL)
	if err != nil {
		return Settings{}, err
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return Settings{
		SheetURL:      strings.TrimSpace(sheetURL),
		SpreadsheetID: id,
		APIKey:        strings.TrimSpace(apiKey),
		SheetName:     sheetName,
	}, nil
}

// SettingsStore persists the connection under its own key.
type SettingsStore struct {
	backend storage.Backend
	key     string
}

func NewSettingsStore(backend storage.Backend) *SettingsStore {
	return &SettingsStore{backend: backend, key: storage.SettingsKey}
}

// Load returns ErrNotConnected when nothing is stored.
func (s *SettingsStore) Load(ctx context.Context) (Settings, error) {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return Settings{}, fmt.Errorf("load sheets settings: %w", err)
	}
	if !ok {
		return Settings{}, ErrNotConnected
	}
	var st Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		return Settings{}, fmt.Errorf("decode sheets settings: %w", err)
	}
	if !st.Connected() {
		return Settings{}, ErrNotConnected
	}
	return st, nil
}

func (s *SettingsStore) Save(ctx context.Context, st Settings) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode sheets settings: %w", err)
	}
	return s.backend.Set(ctx, s.key, raw)
}

// Clear disconnects the spreadsheet.
func (s *SettingsStore) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key)
}
