package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/platform"
	"github.com/EdwardH92/CliffDive/internal/storage"
	"github.com/alicebob/miniredis/v2"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	// miniredis.Addr() returns "host:port", so we pass it as the host
	cfg := config.RedisConfig{
		Host:         mr.Addr(),
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func testSnapshot() *storage.Snapshot {
	snap := storage.NewSnapshot()
	snap.Sessions = append(snap.Sessions, storage.Session{
		ID:    "7-1700000000000",
		TabID: 7,
		Platform: platform.Match{
			Descriptor: platform.Descriptor{
				Domain:     "claude.ai",
				Name:       "Claude",
				Confidence: platform.ConfidenceHigh,
				Category:   platform.CategoryLLM,
			},
			URL: "https://claude.ai/chat",
		},
		StartTime:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		LastActivity: time.Date(2025, 6, 1, 9, 10, 0, 0, time.UTC),
		Interactions: 6,
		Active:       true,
	})
	snap.PlatformUsage["Claude"] = &storage.PlatformStats{TotalSessions: 1, TotalTimeMS: 600000}
	return snap
}

func TestUsageStore_SaveLoad(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	usageStore := store.Usage()

	if _, err := usageStore.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty store, got %v", err)
	}

	if err := usageStore.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := usageStore.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(loaded.Sessions))
	}
	if loaded.Sessions[0].Platform.Name != "Claude" {
		t.Errorf("Expected platform Claude, got %s", loaded.Sessions[0].Platform.Name)
	}
	if loaded.PlatformUsage["Claude"].TotalTimeMS != 600000 {
		t.Errorf("Expected TotalTimeMS 600000, got %d", loaded.PlatformUsage["Claude"].TotalTimeMS)
	}
}

func TestUsageStore_Backup(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	usageStore := store.Usage()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := usageStore.Backup(ctx, at); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound backing up empty store, got %v", err)
	}

	if err := usageStore.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := usageStore.Backup(ctx, at); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	record, err := usageStore.LoadBackup(ctx)
	if err != nil {
		t.Fatalf("LoadBackup failed: %v", err)
	}
	if !record.Timestamp.Equal(at) {
		t.Errorf("Expected timestamp %v, got %v", at, record.Timestamp)
	}
	if len(record.Data.Sessions) != 1 {
		t.Errorf("Expected 1 session in backup, got %d", len(record.Data.Sessions))
	}
}

func TestUsageStore_BackupIsACopy(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	usageStore := store.Usage()

	if err := usageStore.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := usageStore.Backup(ctx, time.Now()); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	// Overwrite the primary; the backup must keep the earlier state
	if err := usageStore.Save(ctx, storage.NewSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	record, err := usageStore.LoadBackup(ctx)
	if err != nil {
		t.Fatalf("LoadBackup failed: %v", err)
	}
	if len(record.Data.Sessions) != 1 {
		t.Errorf("Backup changed after primary overwrite: %d sessions", len(record.Data.Sessions))
	}
}

func TestUsageStore_Clear(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	usageStore := store.Usage()

	if err := usageStore.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := usageStore.Backup(ctx, time.Now()); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	if err := usageStore.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, err := usageStore.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after Clear, got %v", err)
	}
	if _, err := usageStore.LoadBackup(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for backup after Clear, got %v", err)
	}
}
