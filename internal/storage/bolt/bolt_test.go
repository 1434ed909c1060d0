package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/EdwardH92/CliffDive/internal/platform"
	"github.com/EdwardH92/CliffDive/internal/storage"
)

func TestUsageStoreLoadBeforeSave(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Usage().Load(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsageStoreSaveLoad(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	usage := store.Usage()
	snap := testSnapshot()

	if err := usage.Save(context.Background(), snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, err := usage.Load(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(loaded.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(loaded.Sessions))
	}
	if loaded.Sessions[0].ID != "42-1700000000000" {
		t.Errorf("unexpected session id %q", loaded.Sessions[0].ID)
	}
	if !loaded.DailyStats["2025-06-01"].PlatformsUsed.Has("ChatGPT") {
		t.Error("platform set lost across save/load")
	}
}

func TestUsageStoreBackup(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	usage := store.Usage()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := usage.Backup(context.Background(), at); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound backing up empty store, got %v", err)
	}

	if err := usage.Save(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := usage.Backup(context.Background(), at); err != nil {
		t.Fatalf("backup: %v", err)
	}

	record, err := usage.LoadBackup(context.Background())
	if err != nil {
		t.Fatalf("load backup: %v", err)
	}
	if !record.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, record.Timestamp)
	}
	if len(record.Data.Sessions) != 1 {
		t.Errorf("backup missing sessions: %+v", record.Data)
	}
}

func TestUsageStoreClear(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	usage := store.Usage()
	if err := usage.Save(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := usage.Backup(context.Background(), time.Now()); err != nil {
		t.Fatalf("backup: %v", err)
	}

	if err := usage.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, err := usage.Load(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
	if _, err := usage.LoadBackup(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for backup after clear, got %v", err)
	}
}

func testSnapshot() *storage.Snapshot {
	snap := storage.NewSnapshot()
	snap.Sessions = append(snap.Sessions, storage.Session{
		ID:    "42-1700000000000",
		TabID: 42,
		Platform: platform.Match{
			Descriptor: platform.Descriptor{
				Domain:     "chatgpt.com",
				Name:       "ChatGPT",
				Confidence: platform.ConfidenceHigh,
				Category:   platform.CategoryLLM,
			},
			URL: "https://chatgpt.com/",
		},
		StartTime:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		LastActivity: time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC),
		Interactions: 4,
		Active:       true,
	})
	snap.DailyStats["2025-06-01"] = &storage.DailyStats{
		TotalSessions: 1,
		TotalTimeMS:   300000,
		PlatformsUsed: storage.NewStringSet("ChatGPT"),
	}
	snap.PlatformUsage["ChatGPT"] = &storage.PlatformStats{
		TotalSessions: 1,
		TotalTimeMS:   300000,
	}
	return snap
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cliffdive.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}
