// Package artifact maps job ids to files under the asset tree. Existence of
// the file is the completion signal: a job whose artifact exists is done,
// whether or not the ledger ever billed it.
package artifact

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"assetgen/internal/fileutil"
)

// ErrInvalidID rejects ids that would escape the asset root.
var ErrInvalidID = errors.New("invalid artifact id")

// Store addresses artifacts as <root>/<id><ext>.
type Store struct {
	root string
}

// NewStore returns a store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Root returns the asset root directory.
func (s *Store) Root() string { return s.root }

// ValidateID checks that id is a clean, relative, slash-separated path.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.Contains(id, `\`) {
		return fmt.Errorf("%w: %q uses backslashes", ErrInvalidID, id)
	}
	if strings.HasPrefix(id, "/") {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidID, id)
	}
	if path.Clean(id) != id {
		return fmt.Errorf("%w: %q is not a clean path", ErrInvalidID, id)
	}
	for _, segment := range strings.Split(id, "/") {
		if segment == ".." || segment == "." {
			return fmt.Errorf("%w: %q escapes the asset root", ErrInvalidID, id)
		}
	}
	return nil
}

// Path returns the filesystem location for id with extension ext (".png").
func (s *Store) Path(id, ext string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(id)) + normalizeExt(ext), nil
}

// Exists reports whether the artifact for id is present. Content is not
// inspected.
func (s *Store) Exists(id, ext string) (bool, error) {
	target, err := s.Path(id, ext)
	if err != nil {
		return false, err
	}
	return fileutil.Exists(target)
}

// Write stores data atomically, creating parent directories as needed.
func (s *Store) Write(id, ext string, data []byte) (string, error) {
	target, err := s.Path(id, ext)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteAtomic(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", id, err)
	}
	return target, nil
}

// Sweep removes temporaries left in the asset tree by writes that never
// reached their rename, provided they are at least olderThan old.
func (s *Store) Sweep(olderThan time.Duration) (int, error) {
	removed, err := fileutil.RemoveStaleTemps(s.root, olderThan)
	if err != nil {
		return removed, fmt.Errorf("sweep asset tree: %w", err)
	}
	return removed, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
