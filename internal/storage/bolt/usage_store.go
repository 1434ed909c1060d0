package bolt

import (
	"context"
	"time"

	"github.com/EdwardH92/CliffDive/internal/storage"
	"go.etcd.io/bbolt"
)

type usageStore struct {
	db *bbolt.DB
}

func (s *usageStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	return getBucketValue[storage.Snapshot](ctx, s.db, bucketUsage, keySnapshot)
}

func (s *usageStore) Save(ctx context.Context, snap *storage.Snapshot) error {
	return putBucketValue(ctx, s.db, bucketUsage, keySnapshot, snap)
}

// Backup copies the primary snapshot bytes into the backup record
// inside a single write transaction.
func (s *usageStore) Backup(ctx context.Context, at time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(keySnapshot))
		if value == nil {
			return storage.ErrNotFound
		}
		var snap storage.Snapshot
		if err := unmarshal(value, &snap); err != nil {
			return err
		}
		record := storage.BackupRecord{Timestamp: at, Data: &snap}
		data, err := marshal(record)
		if err != nil {
			return err
		}
		return b.Put([]byte(keyBackup), data)
	})
}

func (s *usageStore) LoadBackup(ctx context.Context) (*storage.BackupRecord, error) {
	return getBucketValue[storage.BackupRecord](ctx, s.db, bucketUsage, keyBackup)
}

func (s *usageStore) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(keySnapshot)); err != nil {
			return err
		}
		return b.Delete([]byte(keyBackup))
	})
}
