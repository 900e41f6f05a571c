package index

import "testing"

func TestAddRemoveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := idx.Add("a.txt", "hash-a"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	hash, ok := reloaded.Get("a.txt")
	if !ok || hash != "hash-a" {
		t.Fatalf("expected a.txt -> hash-a, got %q, %v", hash, ok)
	}

	existed, err := reloaded.Remove("a.txt")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !existed {
		t.Fatal("expected a.txt to have existed")
	}
	if !reloaded.IsEmpty() {
		t.Fatal("expected index to be empty after removal")
	}
}

func TestAddThenDeleteLeavesIndexUnchanged(t *testing.T) {
	dir := t.TempDir()
	idx, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := idx.Keys()

	if err := idx.Add("new.txt", "hash-new"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := idx.Remove("new.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	after := idx.Keys()
	if len(before) != len(after) {
		t.Fatalf("expected index unchanged, before=%v after=%v", before, after)
	}
}

func TestRemoveSubtreePrunesNestedPaths(t *testing.T) {
	dir := t.TempDir()
	idx, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx.Add("foo/a.txt", "h1")
	idx.Add("foo/bar/b.txt", "h2")
	idx.Add("other.txt", "h3")

	removed, err := idx.RemoveSubtree("foo")
	if err != nil {
		t.Fatalf("RemoveSubtree: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", removed)
	}
	if _, ok := idx.Get("other.txt"); !ok {
		t.Fatal("expected other.txt to survive")
	}
}

func TestRemoveSubtreeDotRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	idx, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx.Add("a.txt", "h1")
	idx.Add("b/c.txt", "h2")

	if _, err := idx.RemoveSubtree("."); err != nil {
		t.Fatalf("RemoveSubtree: %v", err)
	}
	if !idx.IsEmpty() {
		t.Fatal("expected index empty")
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	idx, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	idx.Add("a.txt", "h1")
	if err := idx.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !idx.IsEmpty() {
		t.Fatal("expected empty index after Clear")
	}
}
