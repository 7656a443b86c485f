package flakedb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flakedb "github.com/BobConanDev/db-sub001"
)

type stubIndexer struct {
	opts flakedb.IndexerOptions
}

func (s *stubIndexer) Reindex(ctx context.Context, ledger flakedb.Ledger) error { return nil }

func stubConstructor(conn *flakedb.Connection, opts flakedb.IndexerOptions) (flakedb.Indexer, error) {
	return &stubIndexer{opts: opts}, nil
}

func TestNewIndexerWithConfiguredConstructor(t *testing.T) {
	conn, err := flakedb.Connect(flakedb.WithIndexer(stubConstructor))
	require.NoError(t, err)
	defer conn.Close()

	idx, err := conn.NewIndexer(nil)
	require.NoError(t, err)
	assert.Equal(t, flakedb.DefaultIndexerOptions(), idx.(*stubIndexer).opts)
}

func TestNewIndexerWithReadyMadeConstructor(t *testing.T) {
	conn, err := flakedb.Connect()
	require.NoError(t, err)
	defer conn.Close()

	idx, err := conn.NewIndexer(flakedb.IndexerFn(stubConstructor))
	require.NoError(t, err)
	assert.IsType(t, &stubIndexer{}, idx)
}

func TestNewIndexerMergesOptionMap(t *testing.T) {
	conn, err := flakedb.Connect(flakedb.WithIndexer(stubConstructor))
	require.NoError(t, err)
	defer conn.Close()

	idx, err := conn.NewIndexer(map[string]any{
		"reindex-min-bytes": 500,
		"max-old-indexes":   1,
	})
	require.NoError(t, err)

	opts := idx.(*stubIndexer).opts
	assert.Equal(t, int64(500), opts.ReindexMinBytes)
	assert.Equal(t, 1, opts.MaxOldIndexes)
	// untouched keys keep ambient defaults
	assert.Equal(t, flakedb.DefaultIndexerOptions().ReindexMaxBytes, opts.ReindexMaxBytes)
}

func TestNewIndexerRejectsUnknownOptionKey(t *testing.T) {
	conn, err := flakedb.Connect(flakedb.WithIndexer(stubConstructor))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.NewIndexer(map[string]any{"bogus": true})
	assert.ErrorIs(t, err, flakedb.ErrInvalidConfig)
}

func TestNewIndexerRejectsBadOptionType(t *testing.T) {
	conn, err := flakedb.Connect(flakedb.WithIndexer(stubConstructor))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.NewIndexer(42)
	assert.ErrorIs(t, err, flakedb.ErrInvalidConfig)
}

func TestNewIndexerWithoutConstructor(t *testing.T) {
	conn, err := flakedb.Connect()
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.NewIndexer(nil)
	assert.ErrorIs(t, err, flakedb.ErrInvalidConfig)
}
