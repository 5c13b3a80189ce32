package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"assetgen/internal/fileutil"
	"assetgen/internal/money"
)

const fileFormatVersion = 1

// FileStore persists the ledger as a single JSON document that is replaced
// atomically on every commit.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first commit.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileDocument struct {
	Version    int          `json:"version"`
	TotalSpent money.Amount `json:"total_spent"`
	EntryCount int          `json:"entry_count"`
	Entries    []Entry      `json:"entries"`
}

// legacyDocument covers the cost logs written by the earlier generation
// scripts: {"total_spent", "log": [...]} for images and music, and
// {"total_spent", "images": [...]} for extras.
type legacyDocument struct {
	TotalSpent money.Amount  `json:"total_spent"`
	Log        []legacyEntry `json:"log"`
	Images     []legacyEntry `json:"images"`
}

type legacyEntry struct {
	Asset     string       `json:"asset"`
	Path      string       `json:"path"`
	Track     string       `json:"track"`
	Cost      money.Amount `json:"cost"`
	Size      string       `json:"size"`
	Timestamp string       `json:"timestamp"`
}

func (f *FileStore) Location() string { return f.path }

func (f *FileStore) Close() error { return nil }

// Load reads the ledger file. A missing file yields a zero state; an empty or
// unparsable file is reported as ErrCorrupt.
func (f *FileStore) Load(context.Context) (State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read ledger file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, fmt.Errorf("%w: %s is empty", ErrCorrupt, f.path)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return State{}, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, f.path, err)
	}
	if _, ok := probe["version"]; !ok {
		if _, hasLog := probe["log"]; hasLog {
			return decodeLegacy(data, f.path)
		}
		if _, hasImages := probe["images"]; hasImages {
			return decodeLegacy(data, f.path)
		}
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, f.path, err)
	}
	if doc.Version > fileFormatVersion {
		return State{}, fmt.Errorf("ledger %s has format version %d, this build understands %d", f.path, doc.Version, fileFormatVersion)
	}
	if doc.EntryCount != len(doc.Entries) {
		return State{}, fmt.Errorf("%w: %s declares %d entries but holds %d", ErrCorrupt, f.path, doc.EntryCount, len(doc.Entries))
	}
	return State{TotalSpent: doc.TotalSpent, Entries: doc.Entries}, nil
}

// Commit replaces the ledger file with next.
func (f *FileStore) Commit(_ context.Context, next State, _ Entry) error {
	entries := next.Entries
	if entries == nil {
		entries = []Entry{}
	}
	doc := fileDocument{
		Version:    fileFormatVersion,
		TotalSpent: next.TotalSpent,
		EntryCount: len(entries),
		Entries:    entries,
	}
	if err := fileutil.WriteJSONAtomic(f.path, doc); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

func decodeLegacy(data []byte, path string) (State, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("%w: parse legacy %s: %v", ErrCorrupt, path, err)
	}
	rows := doc.Log
	if len(rows) == 0 {
		rows = doc.Images
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		id := firstNonEmpty(row.Asset, row.Path, row.Track)
		entries = append(entries, Entry{
			JobID:     id,
			Cost:      row.Cost,
			Timestamp: parseLegacyTime(row.Timestamp),
			Class:     row.Size,
		})
	}
	return State{TotalSpent: doc.TotalSpent, Entries: entries}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// parseLegacyTime accepts the zone-less ISO timestamps the scripts wrote,
// interpreting them as local time.
func parseLegacyTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
