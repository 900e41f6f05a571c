// Package index implements the staging area: a mutable path -> blob hash
// map persisted as JSON, flushed atomically on every mutation.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const fileName = "index"

// ErrIndexCorrupt is returned when the on-disk index file fails to parse
// as JSON.
var ErrIndexCorrupt = errors.New("index corrupt")

// Index is the in-memory mirror of the on-disk staging map.
type Index struct {
	path    string
	entries map[string]string
}

// Create writes an empty JSON object at <storeRoot>/index.
func Create(storeRoot string) (*Index, error) {
	idx := &Index{path: filepath.Join(storeRoot, fileName), entries: map[string]string{}}
	if err := idx.flush(); err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return idx, nil
}

// Load requires the index file to already exist.
func Load(storeRoot string) (*Index, error) {
	path := filepath.Join(storeRoot, fileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	entries := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("load index: %w: %v", ErrIndexCorrupt, err)
		}
	}
	return &Index{path: path, entries: entries}, nil
}

func (idx *Index) flush() error {
	raw, err := json.Marshal(idx.entries)
	if err != nil {
		return err
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Add upserts path -> hash and flushes.
func (idx *Index) Add(path, hash string) error {
	idx.entries[path] = hash
	if err := idx.flush(); err != nil {
		return fmt.Errorf("index add %s: %w", path, err)
	}
	return nil
}

// Remove deletes path, reporting whether it was present, and flushes
// regardless.
func (idx *Index) Remove(path string) (bool, error) {
	_, existed := idx.entries[path]
	delete(idx.entries, path)
	if err := idx.flush(); err != nil {
		return existed, fmt.Errorf("index remove %s: %w", path, err)
	}
	return existed, nil
}

// Clear empties the map and flushes.
func (idx *Index) Clear() error {
	idx.entries = map[string]string{}
	if err := idx.flush(); err != nil {
		return fmt.Errorf("index clear: %w", err)
	}
	return nil
}

// IsEmpty reports whether the index has no staged entries.
func (idx *Index) IsEmpty() bool { return len(idx.entries) == 0 }

// Keys returns staged paths in sorted order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the hash staged for path, if any.
func (idx *Index) Get(path string) (string, bool) {
	hash, ok := idx.entries[path]
	return hash, ok
}

// Entries returns a copy of the full path -> hash map.
func (idx *Index) Entries() map[string]string {
	out := make(map[string]string, len(idx.entries))
	for k, v := range idx.entries {
		out[k] = v
	}
	return out
}

// RemoveSubtree removes every key equal to prefix or nested under
// "prefix/" (every key when prefix is "."), returning the removed keys.
// It does not consult the file system.
func (idx *Index) RemoveSubtree(prefix string) ([]string, error) {
	var removed []string
	for k := range idx.entries {
		switch {
		case prefix == ".":
			removed = append(removed, k)
		case k == prefix, len(k) > len(prefix) && k[:len(prefix)+1] == prefix+"/":
			removed = append(removed, k)
		}
	}
	for _, k := range removed {
		delete(idx.entries, k)
	}
	if len(removed) > 0 {
		if err := idx.flush(); err != nil {
			return removed, fmt.Errorf("index remove subtree %s: %w", prefix, err)
		}
	}
	return removed, nil
}
