package flakedb

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

// ConnectOptions configures a Connection.
type ConnectOptions struct {
	ID               string
	Store            storage.Store
	Nameservices     []Nameservice
	DID              string
	Parallelism      int
	CacheMemoryBytes int64
	Indexer          IndexerFn
	IndexerDefaults  IndexerOptions
	Logger           *zap.Logger
}

// Option is a functional option for Connect.
type Option func(*ConnectOptions)

func defaultOptions() *ConnectOptions {
	return &ConnectOptions{
		ID:              uuid.NewString(),
		Parallelism:     4,
		IndexerDefaults: DefaultIndexerOptions(),
		Logger:          zap.NewNop(),
	}
}

// WithStore sets the content store backend.
func WithStore(s storage.Store) Option {
	return func(o *ConnectOptions) { o.Store = s }
}

// WithNameservices registers the nameservices higher layers use to locate
// ledger heads.
func WithNameservices(ns ...Nameservice) Option {
	return func(o *ConnectOptions) { o.Nameservices = append(o.Nameservices, ns...) }
}

// WithDID sets the default identity for commit signing.
func WithDID(did string) Option {
	return func(o *ConnectOptions) { o.DID = did }
}

// WithParallelism bounds batched index-node resolution fan-out.
func WithParallelism(n int) Option {
	return func(o *ConnectOptions) { o.Parallelism = n }
}

// WithCacheMemory sizes the index-node cache from a memory budget in bytes.
func WithCacheMemory(bytes int64) Option {
	return func(o *ConnectOptions) { o.CacheMemoryBytes = bytes }
}

// WithIndexer sets the constructor NewIndexer uses.
func WithIndexer(fn IndexerFn) Option {
	return func(o *ConnectOptions) { o.Indexer = fn }
}

// WithIndexerDefaults sets the ambient indexer options NewIndexer merges
// caller options over.
func WithIndexerDefaults(opts IndexerOptions) Option {
	return func(o *ConnectOptions) { o.IndexerDefaults = opts }
}

// WithLogger sets the connection logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *ConnectOptions) {
		if log != nil {
			o.Logger = log
		}
	}
}
