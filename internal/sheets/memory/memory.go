package memory

import (
	"context"
	"strings"
	"sync"

	ports "renewals/internal/sheets"
)

var _ ports.RangeWriter = (*Sheet)(nil)

// Sheet is an in-process stand-in for a spreadsheet. It keeps the last values
// written per tab and counts calls.
type Sheet struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	Clears  int
	Updates int
	// Err, when set, is returned by every call.
	Err error
}

func New() *Sheet {
	return &Sheet{tabs: map[string][][]any{}}
}

func tab(rng string) string {
	name, _, _ := strings.Cut(rng, "!")
	return name
}

func (s *Sheet) Clear(_ context.Context, rng string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Clears++
	delete(s.tabs, tab(rng))
	return nil
}

func (s *Sheet) Update(_ context.Context, rng string, values [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Updates++
	rows := make([][]any, len(values))
	for i, r := range values {
		rows[i] = append([]any(nil), r...)
	}
	s.tabs[tab(rng)] = rows
	return nil
}

// Rows returns a copy of what was last written to tab name.
func (s *Sheet) Rows(name string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.tabs[name]))
	for i, r := range s.tabs[name] {
		out[i] = append([]any(nil), r...)
	}
	return out
}
