package flakedb

import (
	"context"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

// ConnectMemory opens a connection over a fresh in-memory store.
func ConnectMemory(opts ...Option) (*Connection, error) {
	return Connect(append(opts, WithStore(storage.NewMemoryStore(storage.DefaultNamespace)))...)
}

// ConnectFile opens a connection over a file store rooted at basePath,
// with at-rest compression enabled.
func ConnectFile(basePath string, opts ...Option) (*Connection, error) {
	store, err := storage.NewFileStore(basePath, storage.FileOptions{Compression: true})
	if err != nil {
		return nil, err
	}
	return Connect(append(opts, WithStore(store))...)
}

// ConnectS3 opens a connection over an object-storage backend using the
// ambient AWS configuration.
func ConnectS3(ctx context.Context, bucket, prefix string, opts ...Option) (*Connection, error) {
	store, err := storage.NewS3Store(ctx, storage.S3Options{Bucket: bucket, Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return Connect(append(opts, WithStore(store))...)
}

// ConnectRemote opens a read-only connection proxied through a set of
// storage servers. Construction fails when no server is reachable.
func ConnectRemote(ctx context.Context, servers []string, opts ...Option) (*Connection, error) {
	store, err := storage.NewRemoteStore(ctx, storage.RemoteOptions{Servers: servers})
	if err != nil {
		return nil, err
	}
	return Connect(append(opts, WithStore(store))...)
}
