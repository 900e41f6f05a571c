package objects

import (
	"testing"
	"time"
)

func TestBlobHashMatchesS1Scenario(t *testing.T) {
	// S1: blob "hello" hashes to SHA-1 of "blob 5\0hello".
	b := NewBlob([]byte("hello"))
	if b.Hash() != "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0" {
		t.Fatalf("unexpected blob hash: %s", b.Hash())
	}
	frame := Frame(TypeBlob, []byte("hello"))
	if string(frame) != "blob 5\x00hello" {
		t.Fatalf("unexpected frame: %q", frame)
	}
}

func TestTreeOrdering(t *testing.T) {
	// Dir foo sorts under the key "foo/", and '.' < '/', so file foo.txt
	// comes first.
	tree := NewTree([]TreeEntry{
		{Mode: DirMode, Name: "foo", Hash: "e9d71f5ee7c92d6dc9e92ffdad17b8bd49418f98"},
		{Mode: FileMode, Name: "foo.txt", Hash: "86f7e437faa5a7fce15d1ddcb9eaeaea377667b8"},
	})
	entries := tree.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "foo.txt" {
		t.Fatalf("expected foo.txt first, got %+v", entries[0])
	}
	if entries[1].Name != "foo" || entries[1].Mode != DirMode {
		t.Fatalf("expected dir foo second, got %+v", entries[1])
	}
}

func TestTreeRoundTrip(t *testing.T) {
	original := NewTree([]TreeEntry{
		{Mode: FileMode, Name: "a.txt", Hash: "84a516841ba77a5b4648de2cd0dfcb30ea46dbb4"},
		{Mode: DirMode, Name: "sub", Hash: "3c363836cf4e16666669a25da280a1865c2d2874"},
	})

	decoded, err := Decode(TypeTree, original.Payload())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tree := decoded.(*Tree)
	if len(tree.Entries()) != 2 {
		t.Fatalf("expected 2 entries after round trip, got %d", len(tree.Entries()))
	}
}

func TestCommitCanonicalTextNoParent(t *testing.T) {
	when := time.Unix(1700000000, 0).UTC()
	c := NewCommit("deadbeef", "", Identity{"u", "u@x"}, Identity{"u", "u@x"}, when, "first")
	if c.ParentHash != "" {
		t.Fatalf("expected no parent, got %q", c.ParentHash)
	}

	decoded, err := Decode(TypeCommit, c.Payload())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := decoded.(*Commit)
	if got.TreeHash != "deadbeef" {
		t.Fatalf("tree hash mismatch: %q", got.TreeHash)
	}
	if got.ParentHash != "" {
		t.Fatalf("expected empty parent after parse, got %q", got.ParentHash)
	}
}

func TestCommitCanonicalTextWithParent(t *testing.T) {
	when := time.Unix(1700000000, 0).UTC()
	c := NewCommit("treehash", "parenthash", Identity{"u", "u@x"}, Identity{"u", "u@x"}, when, "edit")

	decoded, err := Decode(TypeCommit, c.Payload())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := decoded.(*Commit)
	if got.ParentHash != "parenthash" {
		t.Fatalf("parent hash mismatch: %q", got.ParentHash)
	}
}

func TestParseFrameRejectsMalformedHeaders(t *testing.T) {
	if _, _, err := ParseFrame([]byte("no-nul-byte")); err == nil {
		t.Fatal("expected error for missing NUL")
	}
	if _, _, err := ParseFrame([]byte("blob five\x00hello")); err == nil {
		t.Fatal("expected error for non-integer size")
	}
	if _, _, err := ParseFrame([]byte("blob 3\x00hello")); err == nil {
		t.Fatal("expected error for size mismatch")
	}
	if _, _, err := ParseFrame([]byte("blob too many 5\x00hello")); err == nil {
		t.Fatal("expected error for more than one space")
	}
}

func TestDecodeUnsupportedType(t *testing.T) {
	if _, err := Decode("tag", []byte("x")); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
