package worktree

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Balcus/flux/internal/objects"
	"github.com/Balcus/flux/internal/store"
)

func newTestStore(t *testing.T) (*store.ObjectStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := store.Create(root)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, root
}

func TestBuildTreeFromIndexNested(t *testing.T) {
	s, _ := newTestStore(t)
	wtRoot := t.TempDir()
	wt := New(wtRoot)

	blobA := objects.NewBlob([]byte("A"))
	blobB := objects.NewBlob([]byte("B"))
	if err := s.Put(blobA); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(blobB); err != nil {
		t.Fatal(err)
	}

	index := map[string]string{
		"README.md": blobA.Hash(),
		"foo/bar":   blobB.Hash(),
	}

	rootHash, err := wt.BuildTreeFromIndex(index, s)
	if err != nil {
		t.Fatalf("BuildTreeFromIndex: %v", err)
	}

	flat, err := flattenViaStore(s, rootHash)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if flat["README.md"] != blobA.Hash() {
		t.Fatalf("expected README.md -> %s, got %v", blobA.Hash(), flat)
	}
	if flat["foo/bar"] != blobB.Hash() {
		t.Fatalf("expected foo/bar -> %s, got %v", blobB.Hash(), flat)
	}
}

func flattenViaStore(s *store.ObjectStore, treeHash string) (map[string]string, error) {
	out := map[string]string{}
	var walk func(hash, prefix string) error
	walk = func(hash, prefix string) error {
		obj, err := s.Get(hash)
		if err != nil {
			return err
		}
		tree := obj.(*objects.Tree)
		for _, e := range tree.Entries() {
			path := e.Name
			if prefix != "" {
				path = prefix + "/" + e.Name
			}
			if e.Mode == objects.DirMode {
				if err := walk(e.Hash, path); err != nil {
					return err
				}
			} else {
				out[path] = e.Hash
			}
		}
		return nil
	}
	if err := walk(treeHash, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func TestClearRemovesEverythingExceptFluxDir(t *testing.T) {
	wtRoot := t.TempDir()
	if err := os.Mkdir(filepath.Join(wtRoot, ".flux"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wtRoot, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(wtRoot, "sub", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	wt := New(wtRoot)
	if err := wt.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	entries, err := os.ReadDir(wtRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != ".flux" {
		t.Fatalf("expected only .flux to remain, got %v", entries)
	}
}

func TestRestoreFromCommitWritesRawBytes(t *testing.T) {
	s, _ := newTestStore(t)
	wtRoot := t.TempDir()
	if err := os.Mkdir(filepath.Join(wtRoot, ".flux"), 0o755); err != nil {
		t.Fatal(err)
	}
	wt := New(wtRoot)

	binary := []byte{0xff, 0xfe, 0x00, 0x01, 0x80}
	blob := objects.NewBlob(binary)
	if err := s.Put(blob); err != nil {
		t.Fatal(err)
	}
	tree := objects.NewTree([]objects.TreeEntry{
		{Mode: objects.FileMode, Name: "bin.dat", Hash: blob.Hash()},
	})
	if err := s.Put(tree); err != nil {
		t.Fatal(err)
	}
	commit := objects.NewCommit(tree.Hash(), "", objects.Identity{Name: "u", Email: "u@x"}, objects.Identity{Name: "u", Email: "u@x"}, time.Unix(1700000000, 0).UTC(), "msg")
	if err := s.Put(commit); err != nil {
		t.Fatal(err)
	}

	if err := wt.RestoreFromCommit(commit.Hash(), s); err != nil {
		t.Fatalf("RestoreFromCommit: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(wtRoot, "bin.dat"))
	if err != nil {
		t.Fatalf("read restored file: %v", err)
	}
	if string(got) != string(binary) {
		t.Fatalf("binary content mismatch: got %v want %v", got, binary)
	}
}
