package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Usage() UsageStore
}

// UsageStore persists the usage snapshot and its backup copy.
type UsageStore interface {
	// Load returns the primary snapshot, or ErrNotFound when nothing
	// has been persisted yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the primary snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Backup atomically copies the primary snapshot into the backup
	// slot, stamped with the given time. It returns ErrNotFound when
	// there is no primary snapshot to copy.
	Backup(ctx context.Context, at time.Time) error

	// LoadBackup returns the backup record, or ErrNotFound when none
	// exists.
	LoadBackup(ctx context.Context) (*BackupRecord, error)

	// Clear removes both the primary snapshot and its backup.
	Clear(ctx context.Context) error
}
