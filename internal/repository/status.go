package repository

import (
	"os"
	"path/filepath"

	"github.com/Balcus/flux/internal/objects"
)

// ChangeKind classifies how a path differs between two snapshots.
type ChangeKind string

const (
	Added    ChangeKind = "Added"
	Modified ChangeKind = "Modified"
	Deleted  ChangeKind = "Deleted"
)

// Status is the three-way comparison result between the HEAD commit's
// tree, the index, and the live work tree.
type Status struct {
	IndexChanges     map[string]ChangeKind
	WorkspaceChanges map[string]ChangeKind
	Untracked        []string
}

// Clean reports whether every collection in s is empty.
func (s Status) Clean() bool {
	return len(s.IndexChanges) == 0 && len(s.WorkspaceChanges) == 0 && len(s.Untracked) == 0
}

// Status compares HEAD's tree, the index and the live work tree pairwise,
// classifying every path that differs between any two of them.
func (r *Repository) Status() (Status, error) {
	headCommit, err := r.Refs.HeadCommit()
	if err != nil {
		return Status{}, err
	}

	headMap := map[string]string{}
	if headCommit != "" {
		headMap, err = r.Store.FlattenCommitTree(headCommit)
		if err != nil {
			return Status{}, err
		}
	}

	idx := r.Index.Entries()

	indexChanges := map[string]ChangeKind{}
	for path, hash := range idx {
		if headHash, ok := headMap[path]; !ok {
			indexChanges[path] = Added
		} else if headHash != hash {
			indexChanges[path] = Modified
		}
	}
	for path := range headMap {
		if _, ok := idx[path]; !ok {
			indexChanges[path] = Deleted
		}
	}

	workspaceChanges := map[string]ChangeKind{}
	for path, hash := range idx {
		full := filepath.Join(r.Tree.Path(), filepath.FromSlash(path))
		info, err := os.Stat(full)
		if os.IsNotExist(err) {
			workspaceChanges[path] = Deleted
			continue
		}
		if err != nil || info.IsDir() {
			continue
		}
		content, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		if objects.NewBlob(content).Hash() != hash {
			workspaceChanges[path] = Modified
		}
	}

	untracked, err := r.untrackedFiles(idx)
	if err != nil {
		return Status{}, err
	}

	return Status{
		IndexChanges:     indexChanges,
		WorkspaceChanges: workspaceChanges,
		Untracked:        untracked,
	}, nil
}

func (r *Repository) untrackedFiles(idx map[string]string) ([]string, error) {
	var out []string
	root := r.Tree.Path()

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == fluxDirName {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relKey := filepath.ToSlash(rel)
		if _, tracked := idx[relKey]; !tracked {
			out = append(out, relKey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
