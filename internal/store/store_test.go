package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Balcus/flux/internal/codec"
	"github.com/Balcus/flux/internal/objects"
)

func newTestStore(t *testing.T) *ObjectStore {
	t.Helper()
	root := t.TempDir()
	s, err := Create(root)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateFailsIfObjectsDirExists(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := Create(root); err == nil {
		t.Fatal("expected second Create to fail")
	}
}

func TestPutGetBlobRoundTrip(t *testing.T) {
	s := newTestStore(t)
	blob := objects.NewBlob([]byte("hello"))

	if err := s.Put(blob); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(blob.Hash())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	gotBlob, ok := got.(*objects.Blob)
	if !ok {
		t.Fatalf("expected *objects.Blob, got %T", got)
	}
	if string(gotBlob.Content) != "hello" {
		t.Fatalf("content mismatch: %q", gotBlob.Content)
	}
}

func TestObjectFileShardLayout(t *testing.T) {
	s := newTestStore(t)
	blob := objects.NewBlob([]byte("hello"))
	if err := s.Put(blob); err != nil {
		t.Fatalf("Put: %v", err)
	}

	hash := blob.Hash()
	expected := filepath.Join(s.path, hash[:2], hash[2:])
	if _, err := os.Stat(expected); err != nil {
		t.Fatalf("expected object at %s: %v", expected, err)
	}
}

func TestGetRejectsCorruptHeader(t *testing.T) {
	s := newTestStore(t)
	blob := objects.NewBlob([]byte("hello"))
	if err := s.Put(blob); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Corrupt the size field of the stored object.
	_, _, full := s.objectPath(blob.Hash())
	corrupted, err := codec.Compress([]byte("blob 3\x00hello"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, corrupted, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(blob.Hash()); err == nil {
		t.Fatal("expected error retrieving corrupted object")
	}
}

func TestFlattenCommitTreeEmpty(t *testing.T) {
	s := newTestStore(t)
	flat, err := s.FlattenCommitTree("")
	if err != nil {
		t.Fatalf("FlattenCommitTree: %v", err)
	}
	if len(flat) != 0 {
		t.Fatalf("expected empty map, got %v", flat)
	}
}

func TestFlattenCommitTreeNested(t *testing.T) {
	s := newTestStore(t)

	fileBlob := objects.NewBlob([]byte("data"))
	if err := s.Put(fileBlob); err != nil {
		t.Fatal(err)
	}

	subTree := objects.NewTree([]objects.TreeEntry{
		{Mode: objects.FileMode, Name: "bar", Hash: fileBlob.Hash()},
	})
	if err := s.Put(subTree); err != nil {
		t.Fatal(err)
	}

	rootTree := objects.NewTree([]objects.TreeEntry{
		{Mode: objects.DirMode, Name: "foo", Hash: subTree.Hash()},
	})
	if err := s.Put(rootTree); err != nil {
		t.Fatal(err)
	}

	when := time.Unix(1700000000, 0).UTC()
	commit := objects.NewCommit(rootTree.Hash(), "", objects.Identity{Name: "u", Email: "u@x"}, objects.Identity{Name: "u", Email: "u@x"}, when, "msg")
	if err := s.Put(commit); err != nil {
		t.Fatal(err)
	}

	flat, err := s.FlattenCommitTree(commit.Hash())
	if err != nil {
		t.Fatalf("FlattenCommitTree: %v", err)
	}
	if flat["foo/bar"] != fileBlob.Hash() {
		t.Fatalf("expected foo/bar -> %s, got %v", fileBlob.Hash(), flat)
	}

	// A second call should hit the cache and return the same result.
	flat2, err := s.FlattenCommitTree(commit.Hash())
	if err != nil {
		t.Fatalf("FlattenCommitTree (cached): %v", err)
	}
	if flat2["foo/bar"] != fileBlob.Hash() {
		t.Fatalf("cached result mismatch: %v", flat2)
	}
}
