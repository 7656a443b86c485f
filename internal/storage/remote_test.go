package storage_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/adaptor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BobConanDev/db-sub001/internal/server"
	"github.com/BobConanDev/db-sub001/internal/storage"
)

// startStorageServer runs the fiber storage server on a real listener so
// the remote store's HTTP client can reach it.
func startStorageServer(t *testing.T, backing storage.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(adaptor.FiberApp(server.New(backing, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRemoteStore(t *testing.T, backing storage.Store) *storage.RemoteStore {
	t.Helper()
	srv := startStorageServer(t, backing)
	s, err := storage.NewRemoteStore(context.Background(), storage.RemoteOptions{
		Servers: []string{srv.URL},
	})
	require.NoError(t, err)
	return s
}

func TestRemoteStoreConnectFailsWithoutServer(t *testing.T) {
	_, err := storage.NewRemoteStore(context.Background(), storage.RemoteOptions{
		Servers: []string{"http://127.0.0.1:1"},
	})
	assert.Error(t, err)

	_, err = storage.NewRemoteStore(context.Background(), storage.RemoteOptions{})
	assert.Error(t, err)
}

func TestRemoteStoreRead(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore("")
	rec, err := backing.Write(ctx, "L1/main/commit/abc.json", `{"foo":1}`)
	require.NoError(t, err)

	s := newTestRemoteStore(t, backing)

	b, ok, err := s.Read(ctx, rec.Address)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"foo":1}`), b)
}

func TestRemoteStoreReadAbsent(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore("")
	s := newTestRemoteStore(t, backing)

	b, ok, err := s.Read(ctx, backing.Address("missing.json"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestRemoteStoreReadMalformedAddressFailsFast(t *testing.T) {
	s := newTestRemoteStore(t, storage.NewMemoryStore(""))
	_, _, err := s.Read(context.Background(), "garbage")
	assert.ErrorIs(t, err, storage.ErrMalformedAddress)
}

func TestRemoteStoreExists(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore("")
	rec, err := backing.Write(ctx, "x.json", []byte("v"))
	require.NoError(t, err)

	s := newTestRemoteStore(t, backing)

	ok, err := s.Exists(ctx, rec.Address)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, backing.Address("nope.json"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoteStoreList(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore("")
	for _, p := range []string{"L1/a.json", "L1/b.json", "L2/c.json"} {
		_, err := backing.Write(ctx, p, []byte(p))
		require.NoError(t, err)
	}

	s := newTestRemoteStore(t, backing)

	var got []string
	for path, err := range s.List(ctx, "L1/") {
		require.NoError(t, err)
		got = append(got, path)
	}
	assert.ElementsMatch(t, []string{"L1/a.json", "L1/b.json"}, got)
}

func TestRemoteStoreWritesUnsupported(t *testing.T) {
	ctx := context.Background()
	s := newTestRemoteStore(t, storage.NewMemoryStore(""))

	_, err := s.Write(ctx, "p.json", []byte("v"))
	var unsupported *storage.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "remote", unsupported.Method)
	assert.Equal(t, "write", unsupported.Op)

	err = s.Delete(ctx, s.Address("p.json"))
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "delete", unsupported.Op)
}
