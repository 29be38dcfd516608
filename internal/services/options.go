// Package services orchestrates the record store, the bill ledger and the
// spreadsheet sync behind the CLI and HTTP entry points.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"renewals/internal/log"
)

// Publisher announces that the record collection changed.
type Publisher interface {
	PublishSheetsSync(ctx context.Context, reason string, revision uint64) error
}

type deps struct {
	publisher Publisher
	now       func() time.Time
	newID     func() string
	logger    *log.Logger
}

type Option func(*deps)

// WithPublisher enables change notifications.
func WithPublisher(p Publisher) Option {
	return func(d *deps) { d.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithIDGenerator replaces the random UUID record ids.
func WithIDGenerator(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(d *deps) { d.logger = l }
}

func newDeps(opts []Option) deps {
	d := deps{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.logger == nil {
		d.logger = log.Default(log.ComponentService)
	}
	return d
}

// notify publishes a sync request. Failures are logged; the local write has
// already succeeded.
func (d deps) notify(ctx context.Context, reason string, revision uint64) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishSheetsSync(ctx, reason, revision); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish sync message",
			"reason", reason, log.FieldError, err)
	}
}
