package flakedb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/BobConanDev/db-sub001/internal/index"
	"github.com/BobConanDev/db-sub001/internal/storage"
)

// Ledger names a branched sequence of commits. An empty branch addresses
// the ledger root.
type Ledger struct {
	Alias  string
	Branch string
}

func (l Ledger) prefix() string {
	if l.Branch == "" {
		return l.Alias
	}
	return l.Alias + "/" + l.Branch
}

// Connection unifies commit, transaction and index block read/write over a
// single content store. It aggregates the store, the nameservices, the
// index-node cache/resolver and the ledger defaults every higher layer
// shares. A Connection is live until Close; close is one-way and idempotent.
type Connection struct {
	id           string
	store        storage.Store
	nameservices []Nameservice
	cache        *index.Cache
	resolver     *index.Resolver
	did          string
	parallelism  int
	indexerFn    IndexerFn
	indexerOpts  IndexerOptions
	log          *zap.Logger
	closed       atomic.Bool
}

// Connect builds a Connection from options. Without WithStore it runs over
// a fresh in-memory store. A configuration error aborts construction; no
// partially initialized Connection is ever returned.
func Connect(opts ...Option) (*Connection, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.Parallelism <= 0 {
		return nil, fmt.Errorf("%w: parallelism must be positive", ErrInvalidConfig)
	}

	store := o.Store
	if store == nil {
		store = storage.NewMemoryStore(storage.DefaultNamespace)
	}

	cache := index.NewCache(o.CacheMemoryBytes)

	c := &Connection{
		id:           o.ID,
		store:        store,
		nameservices: o.Nameservices,
		cache:        cache,
		resolver:     index.NewResolver(store, cache, o.Parallelism),
		did:          o.DID,
		parallelism:  o.Parallelism,
		indexerFn:    o.Indexer,
		indexerOpts:  o.IndexerDefaults,
		log:          o.Logger,
	}

	c.log.Debug("connection opened",
		zap.String("id", c.id),
		zap.String("method", store.Method()),
	)
	return c, nil
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string { return c.id }

// Method returns the backend tag of the underlying store.
func (c *Connection) Method() string { return c.store.Method() }

// Parallelism returns the fan-out bound for batched resolution.
func (c *Connection) Parallelism() int { return c.parallelism }

// DID returns the default identity used for signing commits.
func (c *Connection) DID() string { return c.did }

// Nameservices returns the nameservices registered on this connection.
func (c *Connection) Nameservices() []Nameservice { return c.nameservices }

// Store exposes the underlying content store.
func (c *Connection) Store() storage.Store { return c.store }

// Closed reports whether Close has been called. Operations on a closed
// connection are the caller's responsibility to avoid.
func (c *Connection) Closed() bool { return c.closed.Load() }

// Close marks the connection closed and releases the store if it holds
// resources. In-flight operations are not interrupted. Calling it again is
// a no-op.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.log.Debug("connection closed", zap.String("id", c.id))
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WriteCommit canonicalizes and hashes data, then persists it under
// {alias}[/{branch}]/commit/{hash}.json.
func (c *Connection) WriteCommit(ctx context.Context, ledger Ledger, data any) (storage.StorageRecord, error) {
	return c.writeHashed(ctx, ledger, "commit", data)
}

// ReadCommit fetches and parses commit data. Keys stay raw strings since
// commits round-trip to external JSON-LD consumers.
func (c *Connection) ReadCommit(ctx context.Context, address string) (map[string]any, error) {
	return c.readJSON(ctx, address)
}

// WriteTransaction persists transaction data under the txn path segment.
func (c *Connection) WriteTransaction(ctx context.Context, ledger Ledger, data any) (storage.StorageRecord, error) {
	return c.writeHashed(ctx, ledger, "txn", data)
}

// ReadTransaction fetches and parses transaction data.
func (c *Connection) ReadTransaction(ctx context.Context, address string) (map[string]any, error) {
	return c.readJSON(ctx, address)
}

// WriteIndexSegment persists an index segment under index/{kind}. When data
// is a node, every cached version of its id is evicted after the write so
// later resolutions fetch the fresh bytes.
func (c *Connection) WriteIndexSegment(ctx context.Context, ledger Ledger, kind string, data any) (storage.StorageRecord, error) {
	if kind == "" {
		return storage.StorageRecord{}, fmt.Errorf("%w: index segment kind required", ErrInvalidConfig)
	}
	rec, err := c.writeHashed(ctx, ledger, "index/"+kind, data)
	if err != nil {
		return storage.StorageRecord{}, err
	}
	switch n := data.(type) {
	case *index.Node:
		c.cache.EvictID(n.ID)
	case index.Node:
		c.cache.EvictID(n.ID)
	}
	return rec, nil
}

// ReadIndexSegment fetches an index segment and decodes it into node form,
// the structured shape the resolver consumes.
func (c *Connection) ReadIndexSegment(ctx context.Context, address string) (*index.Node, error) {
	b, ok, err := c.store.Read(ctx, address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return index.DecodeNode(b)
}

// ResolveIndexNode materializes a node reference through this connection's
// store and cache.
func (c *Connection) ResolveIndexNode(ctx context.Context, ref index.Ref) (*index.Node, error) {
	return c.resolver.Resolve(ctx, ref)
}

// ResolveIndexNodes materializes a batch of references with the
// connection's parallelism bound.
func (c *Connection) ResolveIndexNodes(ctx context.Context, refs []index.Ref) ([]*index.Node, error) {
	return c.resolver.ResolveAll(ctx, refs)
}

// EvictIndexNode invalidates the cached materialization for ref. Writers
// persisting new content for a node id call this for superseded versions.
func (c *Connection) EvictIndexNode(ref index.Ref) {
	c.resolver.Evict(ref)
}

func (c *Connection) writeHashed(ctx context.Context, ledger Ledger, segment string, data any) (storage.StorageRecord, error) {
	b, err := storage.CanonicalBytes(data)
	if err != nil {
		return storage.StorageRecord{}, err
	}
	path := fmt.Sprintf("%s/%s/%s.json", ledger.prefix(), segment, storage.ContentHash(b))
	rec, err := c.store.Write(ctx, path, b)
	if err != nil {
		return storage.StorageRecord{}, err
	}
	c.log.Debug("block written",
		zap.String("path", rec.Path),
		zap.String("hash", rec.Hash),
		zap.Int("size", rec.Size),
	)
	return rec, nil
}

func (c *Connection) readJSON(ctx context.Context, address string) (map[string]any, error) {
	b, ok, err := c.store.Read(ctx, address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("flakedb: parse block %s: %w", address, err)
	}
	return data, nil
}
