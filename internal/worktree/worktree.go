// Package worktree bridges the live file system and the object graph:
// clearing and rehydrating the work tree, and building tree objects out of
// the index's flat path -> hash map.
package worktree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Balcus/flux/internal/objects"
	"github.com/Balcus/flux/internal/store"
)

const fluxDirName = ".flux"

// ErrUnexpectedObjectType is returned when an object fetched for a specific
// role (a commit's tree, a tree entry's blob or subtree) is a different
// concrete type than expected.
var ErrUnexpectedObjectType = errors.New("unexpected object type")

// WorkTree operates on the work-tree root at path.
type WorkTree struct {
	root string
}

func New(root string) *WorkTree { return &WorkTree{root: root} }

func (w *WorkTree) Path() string { return w.root }

// Clear removes every top-level entry of the work-tree root except .flux.
func (w *WorkTree) Clear() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("clear work tree: %w", err)
	}

	for _, entry := range entries {
		if entry.Name() == fluxDirName {
			continue
		}
		target := filepath.Join(w.root, entry.Name())
		if entry.IsDir() {
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("clear work tree: %s: %w", target, err)
			}
		} else {
			if err := os.Remove(target); err != nil {
				return fmt.Errorf("clear work tree: %s: %w", target, err)
			}
		}
	}
	return nil
}

// RestoreFromCommit materialises commitHash's tree onto disk, writing blob
// content as raw bytes (never routed through a UTF-8 string boundary, which
// would corrupt binary files).
func (w *WorkTree) RestoreFromCommit(commitHash string, s *store.ObjectStore) error {
	obj, err := s.Get(commitHash)
	if err != nil {
		return fmt.Errorf("restore from commit: %w", err)
	}
	commit, ok := obj.(*objects.Commit)
	if !ok {
		return fmt.Errorf("restore from commit: %w: %s is not a commit", ErrUnexpectedObjectType, commitHash)
	}
	if commit.TreeHash == "" {
		return nil
	}
	return w.restoreTree(commit.TreeHash, w.root, s)
}

func (w *WorkTree) restoreTree(treeHash, targetDir string, s *store.ObjectStore) error {
	obj, err := s.Get(treeHash)
	if err != nil {
		return fmt.Errorf("restore tree %s: %w", treeHash, err)
	}
	tree, ok := obj.(*objects.Tree)
	if !ok {
		return fmt.Errorf("restore tree %s: %w: not a tree object", treeHash, ErrUnexpectedObjectType)
	}

	for _, entry := range tree.Entries() {
		target := filepath.Join(targetDir, entry.Name)

		if entry.Mode == objects.DirMode {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("restore tree: mkdir %s: %w", target, err)
			}
			if err := w.restoreTree(entry.Hash, target, s); err != nil {
				return err
			}
			continue
		}

		blobObj, err := s.Get(entry.Hash)
		if err != nil {
			return fmt.Errorf("restore tree: get blob %s: %w", entry.Hash, err)
		}
		blob, ok := blobObj.(*objects.Blob)
		if !ok {
			return fmt.Errorf("restore tree: %w: %s is not a blob", ErrUnexpectedObjectType, entry.Hash)
		}
		if err := os.WriteFile(target, blob.Content, 0o644); err != nil {
			return fmt.Errorf("restore tree: write %s: %w", target, err)
		}
	}
	return nil
}

// treeNode is a nested in-memory directory structure built from a flat
// path -> hash map, before being serialised bottom-up into tree objects.
type treeNode struct {
	file     string // blob hash, set when this node is a leaf
	isFile   bool
	children map[string]*treeNode
}

func newDirNode() *treeNode {
	return &treeNode{children: map[string]*treeNode{}}
}

// BuildTreeFromIndex builds the nested directory structure implied by a
// flat path -> blob-hash map, serialises it bottom-up into tree objects,
// and returns the root tree's hash.
func (w *WorkTree) BuildTreeFromIndex(index map[string]string, s *store.ObjectStore) (string, error) {
	root := newDirNode()
	for path, hash := range index {
		parts := strings.Split(path, "/")
		cur := root
		for i, part := range parts {
			if i == len(parts)-1 {
				cur.children[part] = &treeNode{file: hash, isFile: true}
				continue
			}
			child, ok := cur.children[part]
			if !ok || child.isFile {
				child = newDirNode()
				cur.children[part] = child
			}
			cur = child
		}
	}
	return createTreeObject(root, s)
}

func createTreeObject(node *treeNode, s *store.ObjectStore) (string, error) {
	if node.isFile {
		return node.file, nil
	}

	entries := make([]objects.TreeEntry, 0, len(node.children))
	for name, child := range node.children {
		if child.isFile {
			entries = append(entries, objects.TreeEntry{Mode: objects.FileMode, Name: name, Hash: child.file})
			continue
		}
		subtreeHash, err := createTreeObject(child, s)
		if err != nil {
			return "", err
		}
		entries = append(entries, objects.TreeEntry{Mode: objects.DirMode, Name: name, Hash: subtreeHash})
	}

	tree := objects.NewTree(entries)
	if err := s.Put(tree); err != nil {
		return "", fmt.Errorf("build tree from index: %w", err)
	}
	return tree.Hash(), nil
}
