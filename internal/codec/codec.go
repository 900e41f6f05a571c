// Package codec provides the low-level byte transforms every Flux object
// rides on: SHA-1 content hashing, zlib compression, and hex encoding.
package codec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pjbgf/sha1cd"
)

// ErrInvalidHash is returned when a string fails to decode as a hash: odd
// length or non-hex characters.
var ErrInvalidHash = errors.New("invalid hash")

// HashSize is the length in bytes of a Flux object hash.
const HashSize = 20

// Hash returns the lowercase hex SHA-1 digest of data.
func Hash(data []byte) string {
	h := sha1cd.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Compress zlib-compresses data at the default compression level.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// HexEncode lowercases and hex-encodes raw bytes.
func HexEncode(raw []byte) string {
	return hex.EncodeToString(raw)
}

// HexDecode decodes a lowercase hex string, rejecting odd-length or
// non-hex input.
func HexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex decode %q: odd length: %w", s, ErrInvalidHash)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hex decode %q: %w", s, ErrInvalidHash)
	}
	return raw, nil
}
