package flakedb

import (
	"errors"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

var (
	// ErrNotFound reports a read of an address with no stored content.
	ErrNotFound = errors.New("flakedb: not found")
	// ErrInvalidConfig reports an unusable connection configuration, such
	// as an indexer option that is neither a constructor nor an option map.
	ErrInvalidConfig = errors.New("flakedb: invalid connection config")
)

// UnsupportedOpError reports an operation the connection's backend does
// not implement, naming the backend method and the attempted op.
type UnsupportedOpError = storage.UnsupportedError
