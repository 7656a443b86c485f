package index

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

// Resolver materializes tree nodes from their references, consulting the
// cache first and falling back to the content store.
type Resolver struct {
	store       storage.Store
	cache       *Cache
	parallelism int
}

// NewResolver binds a resolver to a store and cache. parallelism bounds
// ResolveAll fan-out.
func NewResolver(store storage.Store, cache *Cache, parallelism int) *Resolver {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Resolver{store: store, cache: cache, parallelism: parallelism}
}

// Resolve returns the materialized node behind ref. Empty references
// resolve to the canonical empty node with no I/O.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (*Node, error) {
	if ref.Empty() {
		return EmptyNode(ref.Leaf), nil
	}
	return r.cache.Lookup(ref.Key(), func() (*Node, error) {
		if ref.Address == "" {
			return nil, fmt.Errorf("%w: %s has no address", ErrNotFound, ref.ID)
		}
		b, ok, err := r.store.Read(ctx, ref.Address)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s at %s", ErrNotFound, ref.ID, ref.Address)
		}
		return DecodeNode(b)
	})
}

// ResolveAll materializes a batch of references with bounded parallelism,
// preserving input order. The first failure cancels the rest.
func (r *Resolver) ResolveAll(ctx context.Context, refs []Ref) ([]*Node, error) {
	nodes := make([]*Node, len(refs))
	p := pool.New().WithMaxGoroutines(r.parallelism).WithContext(ctx).WithCancelOnError()
	for i, ref := range refs {
		p.Go(func(ctx context.Context) error {
			n, err := r.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			nodes[i] = n
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Evict drops the cached materialization for ref.
func (r *Resolver) Evict(ref Ref) {
	r.cache.Evict(ref.Key())
}
