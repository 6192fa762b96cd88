// Package store implements local persistence as a key-value store of
// JSON-serializable blobs. Each logical collection lives under a fixed
// string key, stored as one JSON file in the data directory.
//
// Reads fall back to the caller's default when an entry is absent or
// malformed; a malformed entry is cleared so it cannot fail again.
// Writes never block the in-memory operation that triggered them:
// callers log persistence failures and carry on.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Fixed keys, one per logical collection.
const (
	KeyManualProjects  = "manual_projects"
	KeyManualExchanges = "manual_exchanges"
	KeyPromos          = "promos"
	KeyCredentials     = "credentials"
	KeyAPIKeys         = "api_keys"
)

// validKey restricts keys to names that are safe as file names.
var validKey = regexp.MustCompile(`^[a-z0-9_]+$`)

// Store is a file-backed blob store rooted at a data directory.
// All operations are safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open creates (if needed) and opens a store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's data directory.
func (s *Store) Dir() string { return s.dir }

// Load reads the blob stored under key into dest. If the entry is absent,
// dest is left untouched (the caller's pre-filled default stands) and Load
// returns false. If the entry is malformed, it is cleared, dest is left
// untouched, and Load returns false: corruption degrades to the default,
// never to an error visible to the caller.
func (s *Store) Load(key string, dest any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		log.Printf("store: %v", err)
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("store: read %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("store: malformed entry %s, clearing: %v", key, err)
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("store: clear %s: %v", key, rmErr)
		}
		return false
	}
	return true
}

// Save writes v under key. The write is atomic (temp file + rename) so a
// crash mid-write can never produce a torn blob.
func (s *Store) Save(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry under key. Missing entries are not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}
