// Package repository orchestrates Config, Refs, Index, ObjectStore and
// WorkTree into the user-level operations a Flux command maps onto.
package repository

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Balcus/flux/internal/config"
	"github.com/Balcus/flux/internal/index"
	"github.com/Balcus/flux/internal/objects"
	"github.com/Balcus/flux/internal/refs"
	"github.com/Balcus/flux/internal/store"
	"github.com/Balcus/flux/internal/worktree"
)

const fluxDirName = ".flux"

// ErrAlreadyInitialized is returned by Init when .flux already exists and
// force was not requested.
var ErrAlreadyInitialized = errors.New("already initialized")

// ErrNotRepository is returned by Open when <path>/.flux does not exist.
var ErrNotRepository = errors.New("not a repository")

// ErrIndexEmpty is returned by Commit when there is nothing staged.
var ErrIndexEmpty = errors.New("index is empty")

// ErrCommitRoot is returned by CommitTree when the given hash does not
// name a tree object.
var ErrCommitRoot = errors.New("commit-tree target is not a tree")

// ErrUncommittedChanges is returned by SwitchBranch when the index is
// non-empty and force was not requested.
var ErrUncommittedChanges = errors.New("uncommitted changes")

// ErrCredentials is returned by Commit/CommitTree when user_name or
// user_email is not set in config.
var ErrCredentials = errors.New("missing credentials")

// ErrPathName is returned by Add when a staged file's path cannot be made
// relative to the work tree.
var ErrPathName = errors.New("invalid path")

// Repository is the orchestrator owning one instance of every subcomponent.
type Repository struct {
	Name    string
	FluxDir string

	Config *config.Config
	Refs   *refs.Refs
	Index  *index.Index
	Store  *store.ObjectStore
	Tree   *worktree.WorkTree
}

func repoName(workTreePath string) (string, error) {
	abs, err := filepath.Abs(workTreePath)
	if err != nil {
		return "", fmt.Errorf("resolve work tree path: %w", err)
	}
	name := filepath.Base(abs)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("cannot derive repository name from %s", abs)
	}
	return name, nil
}

// Init creates <path>/.flux, materialising objects/, refs/heads/main,
// HEAD, an empty index and a default config. Fails with an error unless
// force is set when .flux already exists.
func Init(path string, force bool) (*Repository, error) {
	if path == "" {
		path = "."
	}
	workTreePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	name, err := repoName(workTreePath)
	if err != nil {
		return nil, err
	}

	fluxDir := filepath.Join(workTreePath, fluxDirName)
	if _, err := os.Stat(fluxDir); err == nil {
		if !force {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, fluxDir)
		}
		if err := os.RemoveAll(fluxDir); err != nil {
			return nil, fmt.Errorf("init: remove existing %s: %w", fluxDir, err)
		}
	}

	if err := os.MkdirAll(fluxDir, 0o755); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	objStore, err := store.Create(fluxDir)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r, err := refs.Create(fluxDir)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	cfg, err := config.Default(filepath.Join(fluxDir, "config"))
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	idx, err := index.Create(fluxDir)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	return &Repository{
		Name:    name,
		FluxDir: fluxDir,
		Config:  cfg,
		Refs:    r,
		Index:   idx,
		Store:   objStore,
		Tree:    worktree.New(workTreePath),
	}, nil
}

// Open requires <path>/.flux to already exist and loads every subcomponent.
func Open(path string) (*Repository, error) {
	if path == "" {
		path = "."
	}
	workTreePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	name, err := repoName(workTreePath)
	if err != nil {
		return nil, err
	}

	fluxDir := filepath.Join(workTreePath, fluxDirName)
	if _, err := os.Stat(fluxDir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, workTreePath)
	}

	cfg, err := config.Load(filepath.Join(fluxDir, "config"))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	idx, err := index.Load(fluxDir)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	objStore, err := store.Open(fluxDir)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	r, err := refs.Open(fluxDir)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	return &Repository{
		Name:    name,
		FluxDir: fluxDir,
		Config:  cfg,
		Refs:    r,
		Index:   idx,
		Store:   objStore,
		Tree:    worktree.New(workTreePath),
	}, nil
}

// Set writes key to Config.
func (r *Repository) Set(key, value string) error {
	return r.Config.Set(key, value)
}

// Add stages path (file or directory tree), then prunes index entries
// under the resolved subtree whose on-disk file no longer exists.
func (r *Repository) Add(path string) error {
	full := filepath.Join(r.Tree.Path(), path)
	if err := r.addPath(full); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return r.pruneDeletedFromIndex(path)
}

func (r *Repository) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		if filepath.Base(path) == fluxDirName {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("read dir %s: %w", path, err)
		}
		for _, entry := range entries {
			if err := r.addPath(filepath.Join(path, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	return r.addFile(path)
}

func (r *Repository) addFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	blob := objects.NewBlob(content)
	if err := r.Store.Put(blob); err != nil {
		return fmt.Errorf("store blob for %s: %w", path, err)
	}

	rel, err := filepath.Rel(r.Tree.Path(), path)
	if err != nil {
		return fmt.Errorf("%w: %s is outside the work tree: %v", ErrPathName, path, err)
	}
	relKey := filepath.ToSlash(rel)

	return r.Index.Add(relKey, blob.Hash())
}

func (r *Repository) pruneDeletedFromIndex(path string) error {
	full := filepath.Join(r.Tree.Path(), path)
	info, err := os.Stat(full)
	if err != nil || !info.IsDir() {
		return nil
	}

	for _, key := range r.Index.Keys() {
		if !subtreeMatch(path, key) {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.Tree.Path(), key)); os.IsNotExist(err) {
			if _, err := r.Index.Remove(key); err != nil {
				return err
			}
		}
	}
	return nil
}

func subtreeMatch(prefix, key string) bool {
	if prefix == "." {
		return true
	}
	trimmed := strings.TrimSuffix(prefix, "/")
	return key == trimmed || strings.HasPrefix(key, trimmed+"/")
}

// Delete un-stages path, by the same relative key form Add uses.
func (r *Repository) Delete(path string) error {
	existed, err := r.Index.Remove(filepath.ToSlash(path))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !existed {
		log.Printf("warning: %s is not tracked", path)
	}
	return nil
}

// Commit builds a tree from the index, composes a commit (parent = current
// branch tip, if any), advances the current branch and clears the index.
func (r *Repository) Commit(message string) (string, error) {
	if r.Index.IsEmpty() {
		return "", fmt.Errorf("%w: nothing to commit", ErrIndexEmpty)
	}

	treeHash, err := r.Tree.BuildTreeFromIndex(r.Index.Entries(), r.Store)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	creds, err := r.Config.GetCredentials()
	if err != nil {
		return "", fmt.Errorf("commit: %w: %v", ErrCredentials, err)
	}

	parent, err := r.Refs.HeadCommit()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	identity := objects.Identity{Name: creds.UserName, Email: creds.UserEmail}
	commit := objects.NewCommit(treeHash, parent, identity, identity, time.Now(), message)
	if err := r.Store.Put(commit); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if err := r.Refs.UpdateHead(commit.Hash()); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if err := r.Index.Clear(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return commit.Hash(), nil
}

// CommitTree composes and stores a commit referencing an already-existing
// tree object, without touching refs or the index.
func (r *Repository) CommitTree(treeHash, message, parentHash string) (string, error) {
	creds, err := r.Config.GetCredentials()
	if err != nil {
		return "", fmt.Errorf("commit-tree: %w: %v", ErrCredentials, err)
	}

	obj, err := r.Store.Get(treeHash)
	if err != nil {
		return "", fmt.Errorf("commit-tree: %w", err)
	}
	if obj.Type() != objects.TypeTree {
		return "", fmt.Errorf("commit-tree: %w: %s", ErrCommitRoot, treeHash)
	}

	identity := objects.Identity{Name: creds.UserName, Email: creds.UserEmail}
	commit := objects.NewCommit(treeHash, parentHash, identity, identity, time.Now(), message)
	if err := r.Store.Put(commit); err != nil {
		return "", fmt.Errorf("commit-tree: %w", err)
	}
	return commit.Hash(), nil
}

// HashObject computes the hash of the file or directory at path, optionally
// persisting it (and, for a directory, every object it recursively names).
func (r *Repository) HashObject(path string, write bool) (string, error) {
	full := filepath.Join(r.Tree.Path(), path)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("hash-object: %w", err)
	}

	var objStore *store.ObjectStore
	if write {
		objStore = r.Store
	}

	if info.IsDir() {
		tree, err := hashDirectory(full, objStore)
		if err != nil {
			return "", fmt.Errorf("hash-object: %w", err)
		}
		return tree.Hash(), nil
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("hash-object: %w", err)
	}
	blob := objects.NewBlob(content)
	if write {
		if err := r.Store.Put(blob); err != nil {
			return "", fmt.Errorf("hash-object: %w", err)
		}
	}
	return blob.Hash(), nil
}

// hashDirectory builds the tree object for dir. When s is non-nil, every
// blob and subtree encountered is persisted (leaves first) as it's built.
func hashDirectory(dir string, s *store.ObjectStore) (*objects.Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var treeEntries []objects.TreeEntry
	for _, entry := range entries {
		if entry.Name() == fluxDirName {
			continue
		}
		childPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subtree, err := hashDirectory(childPath, s)
			if err != nil {
				return nil, err
			}
			treeEntries = append(treeEntries, objects.TreeEntry{Mode: objects.DirMode, Name: entry.Name(), Hash: subtree.Hash()})
		} else {
			content, err := os.ReadFile(childPath)
			if err != nil {
				return nil, err
			}
			blob := objects.NewBlob(content)
			if s != nil {
				if err := s.Put(blob); err != nil {
					return nil, err
				}
			}
			treeEntries = append(treeEntries, objects.TreeEntry{Mode: objects.FileMode, Name: entry.Name(), Hash: blob.Hash()})
		}
	}

	tree := objects.NewTree(treeEntries)
	if s != nil {
		if err := s.Put(tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// Cat renders an object's textual form.
func (r *Repository) Cat(hash string) (string, error) {
	obj, err := r.Store.Get(hash)
	if err != nil {
		return "", fmt.Errorf("cat: %w", err)
	}
	return obj.Print(), nil
}

// Log walks commits from HEAD along the parent chain, rendering each.
func (r *Repository) Log() (string, error) {
	current, err := r.Refs.HeadCommit()
	if err != nil {
		return "", fmt.Errorf("log: %w", err)
	}

	var buf strings.Builder
	for current != "" {
		text, err := r.Cat(current)
		if err != nil {
			return "", fmt.Errorf("log: %w", err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")

		obj, err := r.Store.Get(current)
		if err != nil {
			return "", fmt.Errorf("log: %w", err)
		}
		commit, ok := obj.(*objects.Commit)
		if !ok {
			break
		}
		current = commit.ParentHash
	}
	return buf.String(), nil
}

// NewBranch creates a branch seeded from HEAD and switches to it.
func (r *Repository) NewBranch(name string) error {
	return r.Refs.NewBranch(name)
}

// DeleteBranch removes a branch (refused for the current branch).
func (r *Repository) DeleteBranch(name string) error {
	return r.Refs.DeleteBranch(name)
}

// SwitchBranch repoints HEAD, clears the index and work tree, then
// rehydrates the work tree from the target branch's tip (if any).
func (r *Repository) SwitchBranch(name string, force bool) error {
	if !r.Index.IsEmpty() && !force {
		return fmt.Errorf("%w: refusing to switch branch without --force", ErrUncommittedChanges)
	}

	if err := r.Refs.SwitchBranch(name); err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}
	if err := r.Index.Clear(); err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}
	if err := r.Tree.Clear(); err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}

	commit, err := r.Refs.HeadCommit()
	if err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}
	if commit == "" {
		return nil
	}
	return r.Tree.RestoreFromCommit(commit, r.Store)
}

// ShowBranches renders branches, one per line, current prefixed "(*) ".
func (r *Repository) ShowBranches() (string, error) {
	return r.Refs.FormatBranches()
}

// RestoreFS rebuilds the work tree from the current HEAD commit.
func (r *Repository) RestoreFS() error {
	commit, err := r.Refs.HeadCommit()
	if err != nil {
		return fmt.Errorf("restore-fs: %w", err)
	}
	if commit == "" {
		return nil
	}
	return r.Tree.RestoreFromCommit(commit, r.Store)
}

// Archive tars and gzips the .flux directory, matching the on-disk layout
// byte-for-byte so a remote can store and later replay it verbatim.
func (r *Repository) Archive() ([]byte, error) {
	return archiveDir(r.FluxDir)
}

func archiveDir(fluxDir string) ([]byte, error) {
	pr, pw := io.Pipe()
	errCh := make(chan error, 1)

	go func() {
		gz := gzip.NewWriter(pw)
		tw := tar.NewWriter(gz)

		err := filepath.Walk(fluxDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(fluxDir, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}

			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = filepath.ToSlash(rel)

			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(tw, f)
			return err
		})

		if err == nil {
			err = tw.Close()
		}
		if err == nil {
			err = gz.Close()
		}
		errCh <- err
		pw.CloseWithError(err)
	}()

	data, readErr := io.ReadAll(pr)
	if walkErr := <-errCh; walkErr != nil {
		return nil, fmt.Errorf("archive: %w", walkErr)
	}
	if readErr != nil {
		return nil, fmt.Errorf("archive: %w", readErr)
	}
	return data, nil
}

// Dearchive extracts a push archive produced by Archive into fluxDir.
func Dearchive(archive []byte, fluxDir string) error {
	if err := os.MkdirAll(fluxDir, 0o755); err != nil {
		return fmt.Errorf("dearchive: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("dearchive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("dearchive: %w", err)
		}

		target := filepath.Join(fluxDir, header.Name)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("dearchive: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("dearchive: %w", err)
			}
			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("dearchive: %w", err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("dearchive: %w", err)
			}
			f.Close()
		}
	}
	return nil
}
