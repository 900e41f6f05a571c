// Package objects implements Flux's three content-addressed object kinds —
// blob, tree and commit — sharing one on-disk frame format.
package objects

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Balcus/flux/internal/codec"
)

// ErrInvalidObjectFormat is returned when a frame or an object's encoded
// payload is malformed: a bad header, a corrupt tree, or a commit missing
// its tree line.
var ErrInvalidObjectFormat = errors.New("invalid object format")

// ErrUnsupportedObjectType is returned when a frame names a type other than
// blob, tree or commit.
var ErrUnsupportedObjectType = errors.New("unsupported object type")

// ErrSizeMismatch is returned when a frame's declared payload size disagrees
// with the actual payload length that follows it.
var ErrSizeMismatch = errors.New("size mismatch")

// Type identifies which of the three object kinds a frame holds.
type Type string

const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
)

// DirMode and FileMode are the two tree-entry mode strings Flux recognises.
const (
	DirMode  = "040000"
	FileMode = "100644"
)

// Object is the shared surface of Blob, Tree and Commit. A tagged sum over
// three concrete types, not a class hierarchy: callers type-switch on Type()
// rather than downcasting.
type Object interface {
	// Type reports which concrete kind this object is.
	Type() Type
	// Payload returns the decoded bytes that follow the frame header.
	Payload() []byte
	// Hash returns the SHA-1 hex digest of the framed (header+payload) bytes.
	Hash() string
	// Print renders the object's textual form (used by `cat-file -p`).
	Print() string
}

// Frame prepends the "<type> <size>\0" header to payload.
func Frame(t Type, payload []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", t, len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// ParseFrame splits raw framed bytes into a type and payload, validating the
// header strictly: a NUL ending the header, a UTF-8 header with exactly one space,
// a decimal size, and a payload whose length matches it.
func ParseFrame(raw []byte) (Type, []byte, error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: missing NUL byte", ErrInvalidObjectFormat)
	}

	header := raw[:nul]
	if !utf8.Valid(header) {
		return "", nil, fmt.Errorf("%w: non-UTF-8 header", ErrInvalidObjectFormat)
	}

	parts := bytes.Split(header, []byte(" "))
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("%w: expected one space in header %q", ErrInvalidObjectFormat, header)
	}

	size, err := strconv.Atoi(string(parts[1]))
	if err != nil {
		return "", nil, fmt.Errorf("%w: non-integer size %q", ErrInvalidObjectFormat, parts[1])
	}

	payload := raw[nul+1:]
	if len(payload) != size {
		return "", nil, fmt.Errorf("%w: header says %d, payload is %d bytes", ErrSizeMismatch, size, len(payload))
	}

	return Type(parts[0]), payload, nil
}

// Decode parses a payload of the given type into its concrete Object.
func Decode(t Type, payload []byte) (Object, error) {
	switch t {
	case TypeBlob:
		return &Blob{Content: payload}, nil
	case TypeTree:
		entries, err := parseTreeEntries(payload)
		if err != nil {
			return nil, err
		}
		return &Tree{entries: entries, raw: payload}, nil
	case TypeCommit:
		return parseCommit(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedObjectType, t)
	}
}

// hashOf computes the SHA-1 of an object's framed bytes.
func hashOf(t Type, payload []byte) string {
	return codec.Hash(Frame(t, payload))
}

// ---------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------

// Blob holds a file's raw contents.
type Blob struct {
	Content []byte
}

func NewBlob(content []byte) *Blob { return &Blob{Content: content} }

func (b *Blob) Type() Type      { return TypeBlob }
func (b *Blob) Payload() []byte { return b.Content }
func (b *Blob) Hash() string    { return hashOf(TypeBlob, b.Content) }
func (b *Blob) Print() string   { return string(b.Content) }

// ---------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------

// TreeEntry is one (mode, name, hash) triple inside a Tree.
type TreeEntry struct {
	Mode string
	Name string
	Hash string
}

// Tree is an ordered set of TreeEntry, sorted per the directory-suffix rule.
type Tree struct {
	entries []TreeEntry
	raw     []byte
}

// sortKey appends a trailing "/" for directories so that e.g. "foo" (dir)
// sorts between "foo.a" and "foo0".
func sortKey(e TreeEntry) string {
	if e.Mode == DirMode {
		return e.Name + "/"
	}
	return e.Name
}

// NewTree builds a Tree from entries, sorting them by sortKey before
// serialising them.
func NewTree(entries []TreeEntry) *Tree {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) < sortKey(sorted[j])
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		raw, err := codec.HexDecode(e.Hash)
		if err != nil {
			// Entries are only ever built from already-computed hashes
			// (blob/tree hashes this process just wrote), so a decode
			// failure here means an upstream invariant broke.
			panic(fmt.Sprintf("tree entry %q has invalid hash %q: %v", e.Name, e.Hash, err))
		}
		fmt.Fprintf(&buf, "%s %s\x00", e.Mode, e.Name)
		buf.Write(raw)
	}

	return &Tree{entries: sorted, raw: buf.Bytes()}
}

func parseTreeEntries(payload []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	pos := 0
	for pos < len(payload) {
		sp := bytes.IndexByte(payload[pos:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: missing space in tree entry header at offset %d", ErrInvalidObjectFormat, pos)
		}
		mode := string(payload[pos : pos+sp])
		pos += sp + 1

		nul := bytes.IndexByte(payload[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: missing NUL in tree entry header at offset %d", ErrInvalidObjectFormat, pos)
		}
		name := string(payload[pos : pos+nul])
		pos += nul + 1

		if pos+codec.HashSize > len(payload) {
			return nil, fmt.Errorf("%w: truncated hash for tree entry %q", ErrInvalidObjectFormat, name)
		}
		hash := codec.HexEncode(payload[pos : pos+codec.HashSize])
		pos += codec.HashSize

		entries = append(entries, TreeEntry{Mode: mode, Name: name, Hash: hash})
	}
	return entries, nil
}

func (t *Tree) Type() Type      { return TypeTree }
func (t *Tree) Payload() []byte { return t.raw }
func (t *Tree) Hash() string    { return hashOf(TypeTree, t.raw) }

func (t *Tree) Entries() []TreeEntry {
	out := make([]TreeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Tree) Print() string {
	var buf bytes.Buffer
	for _, e := range t.entries {
		entryType := "blob"
		if e.Mode == DirMode {
			entryType = "tree"
		}
		fmt.Fprintf(&buf, "%s %s %s %s\n", e.Mode, entryType, e.Hash, e.Name)
	}
	return buf.String()
}

// ---------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------

// Identity is a name/email pair, used for both author and committer.
type Identity struct {
	Name  string
	Email string
}

// Commit references a tree and at most one parent, with author/committer
// identities, an authored timestamp and a message.
type Commit struct {
	TreeHash   string
	ParentHash string // empty means "no parent"
	Author     Identity
	Committer  Identity
	When       time.Time
	Message    string

	raw []byte
}

// NewCommit builds the canonical commit text: tree/parent/author/committer
// header lines, a blank line, then the message.
func NewCommit(treeHash, parentHash string, author, committer Identity, when time.Time, message string) *Commit {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", treeHash)
	if parentHash != "" {
		fmt.Fprintf(&buf, "parent %s\n", parentHash)
	}
	fmt.Fprintf(&buf, "author %s <%s> %d %s\n", author.Name, author.Email, when.Unix(), when.Format("-0700"))
	fmt.Fprintf(&buf, "committer %s <%s> %d %s\n", committer.Name, committer.Email, when.Unix(), when.Format("-0700"))
	buf.WriteString("\n")
	buf.WriteString(message)

	return &Commit{
		TreeHash:   treeHash,
		ParentHash: parentHash,
		Author:     author,
		Committer:  committer,
		When:       when,
		Message:    message,
		raw:        buf.Bytes(),
	}
}

// parseCommit extracts tree and parent hashes by scanning lines, and the
// message as everything after the first blank line. Author and committer
// are carried in raw text but not re-parsed into structured fields.
func parseCommit(payload []byte) (*Commit, error) {
	c := &Commit{raw: payload}
	if i := bytes.Index(payload, []byte("\n\n")); i >= 0 {
		c.Message = string(payload[i+2:])
	}
	for _, line := range bytes.Split(payload, []byte("\n")) {
		switch {
		case bytes.HasPrefix(line, []byte("tree ")):
			c.TreeHash = string(bytes.TrimPrefix(line, []byte("tree ")))
		case bytes.HasPrefix(line, []byte("parent ")):
			c.ParentHash = string(bytes.TrimPrefix(line, []byte("parent ")))
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("%w: commit missing tree line", ErrInvalidObjectFormat)
	}
	return c, nil
}

func (c *Commit) Type() Type      { return TypeCommit }
func (c *Commit) Payload() []byte { return c.raw }
func (c *Commit) Hash() string    { return hashOf(TypeCommit, c.raw) }
func (c *Commit) Print() string   { return string(c.raw) }
