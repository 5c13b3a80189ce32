package ledger_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"assetgen/internal/ledger"
	"assetgen/internal/money"
)

func TestFileStoreMissingFileIsZeroState(t *testing.T) {
	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json"))
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if state.TotalSpent != money.Zero || len(state.Entries) != 0 {
		t.Fatalf("expected zero state, got %+v", state)
	}
}

func TestFileStoreRoundTripThroughLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs", "ledger.json")
	ctx := context.Background()

	l, err := ledger.Open(ctx, ledger.NewFileStore(path))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	for _, id := range []string{"sprites/a", "sprites/b", "sprites/c"} {
		entry := ledger.Entry{JobID: id, Cost: money.FromFloat(0.04), RunID: "run-1", Class: "1024x1024/standard", Bytes: 10}
		if err := l.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%s) returned error: %v", id, err)
		}
	}

	reopened, err := ledger.Open(ctx, ledger.NewFileStore(path))
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if reopened.Total() != money.FromFloat(0.12) {
		t.Fatalf("unexpected total after reopen: %s", reopened.Total())
	}
	entries := reopened.Entries()
	if len(entries) != 3 || entries[2].JobID != "sprites/c" || entries[0].RunID != "run-1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"total_spent": 0.12`) {
		t.Fatalf("expected exact decimal total in file, got %s", raw)
	}
}

func TestFileStoreRejectsEmptyAndGarbage(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"empty.json":   "",
		"garbage.json": "{not json",
		"count.json":   `{"version":1,"total_spent":0,"entry_count":2,"entries":[]}`,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := ledger.NewFileStore(path).Load(context.Background())
		if !errors.Is(err, ledger.ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestFileStoreRejectsTornTotalOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	doc := `{"version":1,"total_spent":0.12,"entry_count":2,"entries":[` +
		`{"job_id":"a","cost":0.04,"timestamp":"2026-01-01T00:00:00Z"},` +
		`{"job_id":"b","cost":0.04,"timestamp":"2026-01-01T00:00:00Z"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Open(context.Background(), ledger.NewFileStore(path)); !errors.Is(err, ledger.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestFileStoreMigratesLegacyImageLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cost_log.json")
	legacy := `{
  "total_spent": 0.12000000000000001,
  "images_generated": 2,
  "log": [
    {"asset": "sprites/cds/cd_demo", "cost": 0.04, "size": "1024x1024", "timestamp": "2025-03-01T10:15:30.123456"},
    {"asset": "backgrounds/room", "cost": 0.08, "size": "1792x1024", "timestamp": "2025-03-01T10:16:00.000001"}
  ]
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := ledger.Open(context.Background(), ledger.NewFileStore(path))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if l.Total() != money.FromFloat(0.12) {
		t.Fatalf("unexpected total %s", l.Total())
	}
	entries := l.Entries()
	if len(entries) != 2 || entries[0].JobID != "sprites/cds/cd_demo" || entries[1].Class != "1792x1024" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].Timestamp.IsZero() {
		t.Fatal("expected legacy timestamp to parse")
	}
}

func TestFileStoreMigratesLegacyExtrasAndMusic(t *testing.T) {
	dir := t.TempDir()
	extras := filepath.Join(dir, "extras.json")
	if err := os.WriteFile(extras, []byte(`{"total_spent": 0.04, "images": [{"path": "ui/button", "cost": 0.04}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	music := filepath.Join(dir, "music.json")
	if err := os.WriteFile(music, []byte(`{"total_spent": 0.0, "tracks_generated": 1, "log": [{"track": "music/title", "duration": 30, "cost": 0.0, "timestamp": "2025-03-01T10:15:30"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := ledger.NewFileStore(extras).Load(context.Background())
	if err != nil {
		t.Fatalf("load extras: %v", err)
	}
	if len(state.Entries) != 1 || state.Entries[0].JobID != "ui/button" || state.Entries[0].Timestamp != (time.Time{}) {
		t.Fatalf("unexpected extras state %+v", state)
	}

	state, err = ledger.NewFileStore(music).Load(context.Background())
	if err != nil {
		t.Fatalf("load music: %v", err)
	}
	if len(state.Entries) != 1 || state.Entries[0].JobID != "music/title" || state.TotalSpent != money.Zero {
		t.Fatalf("unexpected music state %+v", state)
	}
}

func TestFileStoreCommitRewritesLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte(`{"total_spent": 0.04, "images": [{"path": "ui/a", "cost": 0.04}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	l, err := ledger.Open(ctx, ledger.NewFileStore(path))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Record(ctx, ledger.Entry{JobID: "ui/b", Cost: money.FromFloat(0.04)}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"version": 1`) || !strings.Contains(string(raw), `"job_id": "ui/a"`) {
		t.Fatalf("expected current format after commit, got %s", raw)
	}
}
