package storage

import (
	"context"
	"iter"
	"strings"
	"sync"
)

const memoryMethod = "memory"

// MemoryStore keeps blocks in a single in-process map. Entries are updated
// atomically through sync.Map; no lock is held across any suspension point.
type MemoryStore struct {
	namespace string
	entries   sync.Map // path -> []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(namespace string) *MemoryStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &MemoryStore{namespace: namespace}
}

func (s *MemoryStore) Method() string { return memoryMethod }

func (s *MemoryStore) Address(path string) string {
	return BuildAddress(s.namespace, memoryMethod, path)
}

func (s *MemoryStore) Write(ctx context.Context, path string, v any) (StorageRecord, error) {
	b, err := CanonicalBytes(v)
	if err != nil {
		return StorageRecord{}, err
	}
	// copy on ingest; stored content must not alias caller memory
	stored := make([]byte, len(b))
	copy(stored, b)
	s.entries.Store(path, stored)
	return StorageRecord{
		Path:    path,
		Address: s.Address(path),
		Hash:    ContentHash(b),
		Size:    len(b),
	}, nil
}

func (s *MemoryStore) Read(ctx context.Context, address string) ([]byte, bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, false, err
	}
	v, ok := s.entries.Load(addr.Local)
	if !ok {
		return nil, false, nil
	}
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

func (s *MemoryStore) Exists(ctx context.Context, address string) (bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return false, err
	}
	_, ok := s.entries.Load(addr.Local)
	return ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, address string) error {
	addr, err := ParseAddress(address)
	if err != nil {
		return err
	}
	s.entries.Delete(addr.Local)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.entries.Range(func(k, _ any) bool {
			path := k.(string)
			if !strings.HasPrefix(path, prefix) {
				return true
			}
			return yield(path, nil)
		})
	}
}
