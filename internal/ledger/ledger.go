// Package ledger keeps the history of finalized cash bills.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"renewals/internal/core"
	"renewals/internal/log"
	"renewals/internal/report"
	"renewals/internal/storage"
)

// Ledger is the bill history, upserted by bill number and persisted as one blob.
type Ledger struct {
	mu      sync.RWMutex
	backend storage.Backend
	key     string
	logger  *log.Logger
	now     func() time.Time
	bills   []core.BillSummary
}

type Option func(*Ledger)

// WithKey overrides the storage key (default storage.BillsKey).
func WithKey(key string) Option {
	return func(l *Ledger) { l.key = key }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock sets the source of generation timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(backend storage.Backend, opts ...Option) *Ledger {
	l := &Ledger{
		backend: backend,
		key:     storage.BillsKey,
		now:     time.Now,
		bills:   []core.BillSummary{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.Default(log.ComponentLedger)
	}
	return l
}

// Load reads the persisted history. Missing or malformed data yields an empty
// history; the cause is logged.
func (l *Ledger) Load(ctx context.Context) []core.BillSummary {
	bills := l.read(ctx)

	l.mu.Lock()
	l.bills = bills
	l.mu.Unlock()

	return append([]core.BillSummary{}, bills...)
}

func (l *Ledger) read(ctx context.Context) []core.BillSummary {
	raw, ok, err := l.backend.Get(ctx, l.key)
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to read bill history, starting empty",
			log.FieldKey, l.key, log.FieldError, err)
		return []core.BillSummary{}
	}
	if !ok || len(raw) == 0 {
		return []core.BillSummary{}
	}
	var bills []core.BillSummary
	if err := json.Unmarshal(raw, &bills); err != nil {
		l.logger.WarnContext(ctx, "Stored bill history is malformed, starting empty",
			log.FieldKey, l.key, log.FieldError, err)
		return []core.BillSummary{}
	}
	if bills == nil {
		bills = []core.BillSummary{}
	}
	return bills
}

// Save persists bills as the whole history and makes it current.
func (l *Ledger) Save(ctx context.Context, bills []core.BillSummary) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(ctx, append([]core.BillSummary{}, bills...))
}

func (l *Ledger) commit(ctx context.Context, next []core.BillSummary) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode bill history: %w", err)
	}
	if err := l.backend.Set(ctx, l.key, raw); err != nil {
		return fmt.Errorf("save bill history: %w", err)
	}
	l.bills = next
	return nil
}

// RecordBill stores a finalized bill. A bill with the same number is
// overwritten in place; otherwise the bill is appended.
func (l *Ledger) RecordBill(ctx context.Context, billNumber, customerName string, total core.Money) (core.BillSummary, error) {
	billNumber = strings.TrimSpace(billNumber)
	if billNumber == "" {
		return core.BillSummary{}, core.ErrEmptyBill
	}
	if err := total.Validate(); err != nil {
		return core.BillSummary{}, err
	}
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		customerName = core.UnknownCustomer
	}

	now := l.now()
	entry := core.BillSummary{
		ID:           billNumber + "-" + strconv.FormatInt(now.UnixMilli(), 10),
		BillNumber:   billNumber,
		CustomerName: customerName,
		Total:        total,
		Date:         now.UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := append([]core.BillSummary{}, l.bills...)
	replaced := false
	for i := range next {
		if next[i].BillNumber == billNumber {
			next[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, entry)
	}
	if err := l.commit(ctx, next); err != nil {
		return core.BillSummary{}, err
	}

	l.logger.InfoContext(ctx, "Bill recorded",
		log.NewFields().WithBill(billNumber, total.Cents).ToSlice()...)
	return entry, nil
}

// DeleteBill removes the bill with the given ledger ID. It reports false
// when no such bill exists.
func (l *Ledger) DeleteBill(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]core.BillSummary, 0, len(l.bills))
	for _, b := range l.bills {
		if b.ID != id {
			next = append(next, b)
		}
	}
	if len(next) == len(l.bills) {
		return false, nil
	}
	if err := l.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Bills returns a copy of the history in insertion order.
func (l *Ledger) Bills() []core.BillSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.BillSummary{}, l.bills...)
}

// Find returns the bill with the given bill number.
func (l *Ledger) Find(billNumber string) (core.BillSummary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.bills {
		if b.BillNumber == billNumber {
			return b, true
		}
	}
	return core.BillSummary{}, false
}

// MonthlyTotals sums bill totals per YYYY-MM of generation time in loc.
func (l *Ledger) MonthlyTotals(loc *time.Location) map[string]core.Money {
	return report.MonthlyTotals(l.Bills(), loc)
}
