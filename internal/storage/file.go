package storage

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/BobConanDev/db-sub001/internal/compression"
)

const fileMethod = "file"

// FileStore persists blocks on the local filesystem under a base directory,
// optionally zstd-compressed at rest.
//
// Layout mirrors the logical path space:
//
//	basePath/
//	  ledger1/main/commit/ab12....json
//	  ledger1/main/index/spot/cd34....json
type FileStore struct {
	basePath  string
	namespace string
	codec     *compression.Codec
}

// FileOptions configures a FileStore.
type FileOptions struct {
	Namespace        string
	CompressionLevel int
	Compression      bool
}

// NewFileStore creates the base directory if needed and returns a store
// rooted there.
func NewFileStore(basePath string, opts FileOptions) (*FileStore, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, &IOError{Method: fileMethod, Op: "init", Path: basePath, Err: err}
	}
	codec, err := compression.NewCodec(opts.CompressionLevel, opts.Compression)
	if err != nil {
		return nil, &IOError{Method: fileMethod, Op: "init", Path: basePath, Err: err}
	}
	return &FileStore{
		basePath:  basePath,
		namespace: opts.Namespace,
		codec:     codec,
	}, nil
}

func (s *FileStore) Method() string { return fileMethod }

func (s *FileStore) Address(path string) string {
	return BuildAddress(s.namespace, fileMethod, path)
}

func (s *FileStore) Write(ctx context.Context, path string, v any) (StorageRecord, error) {
	b, err := CanonicalBytes(v)
	if err != nil {
		return StorageRecord{}, err
	}

	rec := StorageRecord{
		Path:    path,
		Address: s.Address(path),
		Hash:    ContentHash(b),
		Size:    len(b),
	}

	full := s.fullPath(path)

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return StorageRecord{}, &IOError{Method: fileMethod, Op: "write", Path: path, Err: err}
	}

	// Last write wins: stage to a temp file and rename so readers never see
	// partial content. Content-addressed paths rewrite identical bytes;
	// mutable paths (branch pointers) move atomically.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".write-*")
	if err != nil {
		return StorageRecord{}, &IOError{Method: fileMethod, Op: "write", Path: path, Err: err}
	}
	if _, err := tmp.Write(s.codec.Encode(b)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return StorageRecord{}, &IOError{Method: fileMethod, Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return StorageRecord{}, &IOError{Method: fileMethod, Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return StorageRecord{}, &IOError{Method: fileMethod, Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return StorageRecord{}, &IOError{Method: fileMethod, Op: "write", Path: path, Err: err}
	}
	return rec, nil
}

func (s *FileStore) Read(ctx context.Context, address string) ([]byte, bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, false, err
	}
	raw, err := os.ReadFile(s.fullPath(addr.Local))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, &IOError{Method: fileMethod, Op: "read", Path: addr.Local, Err: err}
	}
	return s.codec.Decode(raw), true, nil
}

func (s *FileStore) Exists(ctx context.Context, address string) (bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(s.fullPath(addr.Local))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &IOError{Method: fileMethod, Op: "exists", Path: addr.Local, Err: err}
}

func (s *FileStore) Delete(ctx context.Context, address string) error {
	addr, err := ParseAddress(address)
	if err != nil {
		return err
	}
	if err := os.Remove(s.fullPath(addr.Local)); err != nil && !os.IsNotExist(err) {
		return &IOError{Method: fileMethod, Op: "delete", Path: addr.Local, Err: err}
	}
	return nil
}

func (s *FileStore) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkErr := filepath.WalkDir(s.basePath, func(full string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			// staged writes are not content
			if strings.HasPrefix(d.Name(), ".write-") {
				return nil
			}
			rel, err := filepath.Rel(s.basePath, full)
			if err != nil {
				return err
			}
			path := filepath.ToSlash(rel)
			if !strings.HasPrefix(path, prefix) {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil {
			yield("", &IOError{Method: fileMethod, Op: "list", Path: prefix, Err: walkErr})
		}
	}
}

// Close releases the compression codec.
func (s *FileStore) Close() error {
	return s.codec.Close()
}

func (s *FileStore) fullPath(path string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(path))
}
