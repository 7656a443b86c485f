package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const remoteMethod = "remote"

// Storage server routes. The serve command mounts the matching handlers.
const (
	HealthPath = "/fdb/health"
	ReadPath   = "/fdb/storage/read"
	ExistsPath = "/fdb/storage/exists"
	ListPath   = "/fdb/storage/list"
)

// RemoteStore proxies reads through a session against one or more storage
// servers. Writes happen on whichever node owns the ledger and replicate
// through the nameservice layer, so this backend is read-only: Write and
// Delete fail with UnsupportedError.
type RemoteStore struct {
	namespace string
	servers   []string
	current   atomic.Int64
	client    *http.Client
	log       *zap.Logger
}

// RemoteOptions configures a RemoteStore session.
type RemoteOptions struct {
	Namespace string
	Servers   []string
	Client    *http.Client
	Logger    *zap.Logger
}

// NewRemoteStore opens a session, probing the server set until one responds.
// No reachable server aborts construction.
func NewRemoteStore(ctx context.Context, opts RemoteOptions) (*RemoteStore, error) {
	if len(opts.Servers) == 0 {
		return nil, fmt.Errorf("storage: remote store requires at least one server")
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	servers := make([]string, len(opts.Servers))
	for i, srv := range opts.Servers {
		servers[i] = strings.TrimRight(srv, "/")
	}

	s := &RemoteStore{
		namespace: opts.Namespace,
		servers:   servers,
		client:    opts.Client,
		log:       opts.Logger,
	}

	for i, srv := range servers {
		if err := s.ping(ctx, srv); err != nil {
			s.log.Warn("storage server unreachable", zap.String("server", srv), zap.Error(err))
			continue
		}
		s.current.Store(int64(i))
		s.log.Info("connected to storage server", zap.String("server", srv))
		return s, nil
	}
	return nil, fmt.Errorf("storage: no reachable server in %v", opts.Servers)
}

func (s *RemoteStore) Method() string { return remoteMethod }

func (s *RemoteStore) Address(path string) string {
	return BuildAddress(s.namespace, remoteMethod, path)
}

func (s *RemoteStore) Write(ctx context.Context, path string, v any) (StorageRecord, error) {
	return StorageRecord{}, &UnsupportedError{Method: remoteMethod, Op: "write"}
}

func (s *RemoteStore) Delete(ctx context.Context, address string) error {
	return &UnsupportedError{Method: remoteMethod, Op: "delete"}
}

func (s *RemoteStore) Read(ctx context.Context, address string) ([]byte, bool, error) {
	if _, err := ParseAddress(address); err != nil {
		return nil, false, err
	}
	resp, err := s.get(ctx, ReadPath, url.Values{"address": {address}})
	if err != nil {
		return nil, false, &IOError{Method: remoteMethod, Op: "read", Path: address, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, &IOError{Method: remoteMethod, Op: "read", Path: address, Err: err}
		}
		return b, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, &IOError{
			Method: remoteMethod, Op: "read", Path: address,
			Err: fmt.Errorf("server returned %s", resp.Status),
		}
	}
}

func (s *RemoteStore) Exists(ctx context.Context, address string) (bool, error) {
	if _, err := ParseAddress(address); err != nil {
		return false, err
	}
	resp, err := s.get(ctx, ExistsPath, url.Values{"address": {address}})
	if err != nil {
		return false, &IOError{Method: remoteMethod, Op: "exists", Path: address, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, &IOError{
			Method: remoteMethod, Op: "exists", Path: address,
			Err: fmt.Errorf("server returned %s", resp.Status),
		}
	}
	var body struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, &IOError{Method: remoteMethod, Op: "exists", Path: address, Err: err}
	}
	return body.Exists, nil
}

func (s *RemoteStore) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := s.get(ctx, ListPath, url.Values{"prefix": {prefix}})
		if err != nil {
			yield("", &IOError{Method: remoteMethod, Op: "list", Path: prefix, Err: err})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield("", &IOError{
				Method: remoteMethod, Op: "list", Path: prefix,
				Err: fmt.Errorf("server returned %s", resp.Status),
			})
			return
		}
		var paths []string
		if err := json.NewDecoder(resp.Body).Decode(&paths); err != nil {
			yield("", &IOError{Method: remoteMethod, Op: "list", Path: prefix, Err: err})
			return
		}
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// get issues a request against the session's server, failing over to the
// next server only on transport errors. HTTP-level failures stick with the
// current server; retry policy belongs to the caller.
func (s *RemoteStore) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	start := s.current.Load()
	var lastErr error
	for i := range s.servers {
		idx := (start + int64(i)) % int64(len(s.servers))
		srv := s.servers[idx]

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv+path+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			s.log.Warn("storage server request failed", zap.String("server", srv), zap.Error(err))
			continue
		}
		if idx != start {
			s.current.Store(idx)
			s.log.Info("switched storage server", zap.String("server", srv))
		}
		return resp, nil
	}
	return nil, lastErr
}

func (s *RemoteStore) ping(ctx context.Context, server string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+HealthPath, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}
