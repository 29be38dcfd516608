// Package storage holds the keyed blob stores the record store and bill
// ledger persist into. Each key maps to one JSON document that is always
// rewritten whole.
package storage

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	RecordsKey  = "business-data"
	BillsKey    = "cash-bill-history"
	SettingsKey = "google-sheets-settings"
)

var ErrEmptyKey = errors.New("storage key cannot be empty")

// Backend is a get/set blob store. Get reports ok=false when the key was
// never written.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
