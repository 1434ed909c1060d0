package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EdwardH92/CliffDive/internal/storage"
	"github.com/redis/go-redis/v9"
)

type usageStore struct {
	client *redis.Client
}

// Load retrieves the primary snapshot
func (s *usageStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	data, err := s.client.Get(ctx, keySnapshot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

// Save replaces the primary snapshot
func (s *usageStore) Save(ctx context.Context, snap *storage.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, keySnapshot, data, 0).Err()
}

// Backup atomically copies the primary snapshot into the backup record
// using a Lua script so a concurrent Save cannot produce a torn copy
func (s *usageStore) Backup(ctx context.Context, at time.Time) error {
	script := redis.NewScript(backupScript)

	keys := []string{keySnapshot, keyBackup}
	copied, err := script.Run(ctx, s.client, keys, at.UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return err
	}
	if copied == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LoadBackup retrieves the backup record
func (s *usageStore) LoadBackup(ctx context.Context) (*storage.BackupRecord, error) {
	data, err := s.client.Get(ctx, keyBackup).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var record storage.BackupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse backup record: %w", err)
	}
	return &record, nil
}

// Clear removes the primary snapshot and its backup
func (s *usageStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, keySnapshot, keyBackup).Err()
}
