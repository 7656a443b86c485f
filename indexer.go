package flakedb

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// Indexer rebuilds and persists index segments through the connection's
// index read/write contract. Segment boundaries and compaction triggers are
// the indexer's business, not this core's.
type Indexer interface {
	Reindex(ctx context.Context, ledger Ledger) error
}

// IndexerFn constructs an Indexer bound to a connection.
type IndexerFn func(conn *Connection, opts IndexerOptions) (Indexer, error)

// IndexerOptions tune when and how aggressively an indexer rebuilds.
type IndexerOptions struct {
	ReindexMinBytes int64
	ReindexMaxBytes int64
	MaxOldIndexes   int
}

// DefaultIndexerOptions returns the ambient defaults caller options are
// merged over.
func DefaultIndexerOptions() IndexerOptions {
	return IndexerOptions{
		ReindexMinBytes: 100_000,
		ReindexMaxBytes: 1_000_000,
		MaxOldIndexes:   3,
	}
}

// NewIndexer constructs an Indexer. opts may be nil (ambient defaults), a
// ready-made constructor (IndexerFn), or an option map merged over the
// defaults; anything else fails with ErrInvalidConfig.
func (c *Connection) NewIndexer(opts any) (Indexer, error) {
	switch o := opts.(type) {
	case nil:
		return c.buildIndexer(c.indexerOpts)
	case IndexerFn:
		return o(c, c.indexerOpts)
	case func(*Connection, IndexerOptions) (Indexer, error):
		return IndexerFn(o)(c, c.indexerOpts)
	case IndexerOptions:
		return c.buildIndexer(o)
	case map[string]any:
		merged, err := mergeIndexerOptions(c.indexerOpts, o)
		if err != nil {
			return nil, err
		}
		return c.buildIndexer(merged)
	default:
		return nil, fmt.Errorf("%w: indexer option %T is neither a constructor nor an options map", ErrInvalidConfig, opts)
	}
}

func (c *Connection) buildIndexer(opts IndexerOptions) (Indexer, error) {
	if c.indexerFn == nil {
		return nil, fmt.Errorf("%w: no indexer constructor configured", ErrInvalidConfig)
	}
	return c.indexerFn(c, opts)
}

func mergeIndexerOptions(base IndexerOptions, overrides map[string]any) (IndexerOptions, error) {
	for key, val := range overrides {
		switch key {
		case "reindex-min-bytes":
			n, err := cast.ToInt64E(val)
			if err != nil {
				return IndexerOptions{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			base.ReindexMinBytes = n
		case "reindex-max-bytes":
			n, err := cast.ToInt64E(val)
			if err != nil {
				return IndexerOptions{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			base.ReindexMaxBytes = n
		case "max-old-indexes":
			n, err := cast.ToIntE(val)
			if err != nil {
				return IndexerOptions{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			base.MaxOldIndexes = n
		default:
			return IndexerOptions{}, fmt.Errorf("%w: unknown indexer option %q", ErrInvalidConfig, key)
		}
	}
	return base, nil
}
