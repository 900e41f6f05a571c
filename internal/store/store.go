// Package store implements the content-addressed ObjectStore: the
// file-backed persistence layer for blob/tree/commit objects, plus an
// optional bbolt-backed acceleration cache for flattened commit trees.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/Balcus/flux/internal/codec"
	"github.com/Balcus/flux/internal/objects"
)

const objectsDirName = "objects"

// ErrUnexpectedObjectType is returned when an object retrieved for a
// specific role (a commit's tree, a tree's subtree) turns out to be a
// different concrete type.
var ErrUnexpectedObjectType = errors.New("unexpected object type")

// ObjectStore persists and retrieves objects by hash under <root>/objects.
type ObjectStore struct {
	root  string // store root, i.e. the .flux directory
	path  string // root/objects
	cache *cache // optional acceleration cache, may be nil
}

// Create makes a fresh objects/ directory under root. Fails if it already
// exists.
func Create(root string) (*ObjectStore, error) {
	path := filepath.Join(root, objectsDirName)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create object store: %w", err)
	}
	c, err := openCache(root)
	if err != nil {
		return nil, err
	}
	return &ObjectStore{root: root, path: path, cache: c}, nil
}

// Open requires objects/ to already exist under root.
func Open(root string) (*ObjectStore, error) {
	path := filepath.Join(root, objectsDirName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	c, err := openCache(root)
	if err != nil {
		return nil, err
	}
	return &ObjectStore{root: root, path: path, cache: c}, nil
}

// Close releases the acceleration cache, if one is open.
func (s *ObjectStore) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.db.Close()
}

func (s *ObjectStore) objectPath(hash string) (dir, file, full string) {
	dir = hash[:2]
	file = hash[2:]
	return dir, file, filepath.Join(s.path, dir, file)
}

// Put serialises, compresses and atomically writes an object. Writing an
// already-present object is a no-op-equivalent: the rename overwrites the
// file with identical bytes.
func (s *ObjectStore) Put(obj objects.Object) error {
	framed := objects.Frame(obj.Type(), obj.Payload())
	compressed, err := codec.Compress(framed)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	dir, file, full := s.objectPath(obj.Hash())
	shardDir := filepath.Join(s.path, dir)
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		return fmt.Errorf("put object: create shard dir: %w", err)
	}

	tmp := filepath.Join(shardDir, file+".tmp")
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("put object: write temp file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("put object: rename: %w", err)
	}
	return nil
}

// Get retrieves and fully decodes the object named by hash.
func (s *ObjectStore) Get(hash string) (objects.Object, error) {
	_, _, full := s.objectPath(hash)

	compressed, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", hash, err)
	}

	raw, err := codec.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", hash, err)
	}

	typ, payload, err := objects.ParseFrame(raw)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", hash, err)
	}

	return objects.Decode(typ, payload)
}

// Raw returns the compressed on-disk bytes for hash, unparsed. Used when
// shipping objects to a remote without a decode/recompress round trip.
func (s *ObjectStore) Raw(hash string) ([]byte, error) {
	_, _, full := s.objectPath(hash)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("raw object %s: %w", hash, err)
	}
	return data, nil
}

// FlattenCommitTree walks a commit's tree recursively and returns a flat
// path -> blob hash map, consulting the bbolt cache first when available.
func (s *ObjectStore) FlattenCommitTree(commitHash string) (map[string]string, error) {
	if commitHash == "" {
		return map[string]string{}, nil
	}

	if s.cache != nil {
		if m, ok, err := s.cache.get(commitHash); err == nil && ok {
			return m, nil
		}
	}

	obj, err := s.Get(commitHash)
	if err != nil {
		return nil, fmt.Errorf("flatten commit tree: %w", err)
	}
	commit, ok := obj.(*objects.Commit)
	if !ok {
		return nil, fmt.Errorf("flatten commit tree: %w: %s is not a commit", ErrUnexpectedObjectType, commitHash)
	}

	flat := map[string]string{}
	if err := s.flattenTree(commit.TreeHash, "", flat); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.put(commitHash, flat)
	}

	return flat, nil
}

func (s *ObjectStore) flattenTree(treeHash, prefix string, out map[string]string) error {
	obj, err := s.Get(treeHash)
	if err != nil {
		return fmt.Errorf("flatten tree %s: %w", treeHash, err)
	}
	tree, ok := obj.(*objects.Tree)
	if !ok {
		return fmt.Errorf("flatten tree %s: %w: not a tree object", treeHash, ErrUnexpectedObjectType)
	}

	for _, entry := range tree.Entries() {
		path := entry.Name
		if prefix != "" {
			path = prefix + "/" + entry.Name
		}
		if entry.Mode == objects.DirMode {
			if err := s.flattenTree(entry.Hash, path, out); err != nil {
				return err
			}
		} else {
			out[path] = entry.Hash
		}
	}
	return nil
}

// cache is a bbolt-backed, non-authoritative accelerator that memoizes
// FlattenCommitTree results. Losing it changes nothing about correctness,
// only about how much tree-walking status must redo.
type cache struct {
	db *bbolt.DB
}

var cacheBucket = []byte("commit_tree_flat")

func openCache(root string) (*cache, error) {
	path := filepath.Join(root, "objects.cache")
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		// The cache is an accelerator, not a correctness requirement, but a
		// failure to even open the file (e.g. read-only filesystem) should
		// not prevent the object store from working without it.
		return nil, nil
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(cacheBucket)
		return e
	})
	if err != nil {
		db.Close()
		return nil, nil
	}
	return &cache{db: db}, nil
}

func (c *cache) get(commitHash string) (map[string]string, bool, error) {
	var out map[string]string
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(commitHash))
		if raw == nil {
			return nil
		}
		m, decodeErr := decodeFlatMap(raw)
		if decodeErr != nil {
			return decodeErr
		}
		out = m
		return nil
	})
	return out, out != nil, err
}

func (c *cache) put(commitHash string, flat map[string]string) error {
	raw := encodeFlatMap(flat)
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(commitHash), raw)
	})
}
