// Package worker runs queued and periodic Google Sheets pushes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"renewals/internal/amqp"
	"renewals/internal/core"
	"renewals/internal/log"
	"renewals/internal/sheets"
)

// Reloader refreshes the in-memory record collection from storage.
type Reloader interface {
	Load(ctx context.Context) []core.DateGroup
}

// Pusher writes the current collection to the sheet.
type Pusher interface {
	Push(ctx context.Context) (int, error)
}

// SyncWorker handles sheets sync requests. Another process owns the writes,
// so every push starts by reloading the store.
type SyncWorker struct {
	store  Reloader
	pusher Pusher
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastPush time.Time
}

type Option func(*SyncWorker)

func WithLogger(l *log.Logger) Option {
	return func(w *SyncWorker) { w.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(w *SyncWorker) { w.now = now }
}

func NewSyncWorker(store Reloader, pusher Pusher, opts ...Option) *SyncWorker {
	w := &SyncWorker{
		store:  store,
		pusher: pusher,
		logger: log.Default(log.ComponentWorker),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent(log.ComponentWorker)
	return w
}

// HandleSyncMessage processes a single sync request from AMQP. Requests
// older than the last successful push are already covered by it and are
// acknowledged without pushing again. A disconnected sheet is logged and
// acknowledged; retrying cannot fix it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SheetsSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		"reason", msg.Reason,
		"revision", msg.Revision)

	w.mu.Lock()
	covered := !w.lastPush.IsZero() && msg.Timestamp.Before(w.lastPush)
	w.mu.Unlock()
	if covered {
		w.logger.DebugContext(ctx, "Sync message already covered by a later push",
			"reason", msg.Reason)
		return nil
	}

	_, err := w.PushNow(ctx)
	if errors.Is(err, sheets.ErrNotConnected) {
		w.logger.WarnContext(ctx, "Dropping sync message, no spreadsheet connected",
			"reason", msg.Reason)
		return nil
	}
	return err
}

// PushNow reloads the store and pushes it.
func (w *SyncWorker) PushNow(ctx context.Context) (int, error) {
	started := w.now()
	w.store.Load(ctx)

	n, err := w.pusher.Push(ctx)
	if err != nil {
		return 0, fmt.Errorf("push to sheets: %w", err)
	}

	w.mu.Lock()
	if started.After(w.lastPush) {
		w.lastPush = started
	}
	w.mu.Unlock()
	return n, nil
}

// RunPeriodic pushes every interval until ctx is cancelled. Failures are
// logged and the next tick tries again.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := w.PushNow(ctx)
			switch {
			case errors.Is(err, sheets.ErrNotConnected):
				w.logger.DebugContext(ctx, "Periodic push skipped, no spreadsheet connected")
			case err != nil:
				w.logger.ErrorContext(ctx, "Periodic push failed", log.FieldError, err)
			default:
				w.logger.InfoContext(ctx, "Periodic push complete", log.FieldCount, n)
			}
		}
	}
}

// LastPush reports when the most recent successful push started.
func (w *SyncWorker) LastPush() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastPush
}
