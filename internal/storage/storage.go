// Package storage implements content-addressed block storage.
//
// A Store persists raw bytes under a path and hands back an address plus
// content hash, so index nodes can reference children purely by content.
// All backends share one contract:
// - Write canonicalizes, hashes, persists
// - Read returns absent (not an error) for unknown paths
// - paths derived from content hashes are never reused for different bytes
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
)

// ErrMalformedAddress reports an address with fewer than three ':' fields.
var ErrMalformedAddress = errors.New("storage: malformed address")

// IOError wraps a backend I/O failure with the store method, the operation,
// and the path it touched. Retry policy belongs to the caller.
type IOError struct {
	Method string
	Op     string
	Path   string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage: %s %s %s: %v", e.Method, e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// UnsupportedError reports an operation a backend does not implement.
type UnsupportedError struct {
	Method string
	Op     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("storage: operation %q not supported by %s store", e.Op, e.Method)
}

// StorageRecord is the result of a single write. It is produced once and
// never updated.
type StorageRecord struct {
	Path    string `json:"path"`
	Address string `json:"address"`
	Hash    string `json:"hash"`
	Size    int    `json:"size"`
}

// Store is the content store capability. Implementations must be safe for
// concurrent use with distinct paths; concurrent writes to the same path are
// backend-defined (a caller bug under content addressing).
type Store interface {
	// Method returns the backend tag used in addresses (e.g. "memory", "s3").
	Method() string

	// Address rebuilds the full address for a path in this store.
	Address(path string) string

	// Write canonicalizes v, persists its bytes at path and returns the
	// resulting record.
	Write(ctx context.Context, path string, v any) (StorageRecord, error)

	// Read fetches the bytes behind an address. Absent paths return
	// (nil, false, nil).
	Read(ctx context.Context, address string) ([]byte, bool, error)

	// Exists reports whether an address resolves to stored content.
	Exists(ctx context.Context, address string) (bool, error)

	// Delete removes content, best-effort. A missing target is not an error.
	Delete(ctx context.Context, address string) error

	// List yields stored paths under prefix. Each range starts a fresh
	// traversal; ordering is backend-defined.
	List(ctx context.Context, prefix string) iter.Seq2[string, error]
}

// CanonicalBytes normalizes a value to its canonical byte form: bytes pass
// through, strings become UTF-8 bytes, everything else is marshaled to
// canonical JSON (encoding/json emits map keys sorted).
func CanonicalBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	case json.RawMessage:
		return val, nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("storage: canonicalize value: %w", err)
		}
		return b, nil
	}
}

// ContentHash returns the hex-encoded SHA-256 of b.
func ContentHash(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
