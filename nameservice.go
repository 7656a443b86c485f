package flakedb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

// Nameservice maps a ledger alias/branch to its latest commit address.
// Resolution and replication semantics live behind this interface; the
// connection only aggregates nameservices for higher layers to consult.
type Nameservice interface {
	Publish(ctx context.Context, ledger Ledger, commitAddress string) error
	Lookup(ctx context.Context, ledger Ledger) (string, error)
}

// StorageNameservice keeps branch pointers as records in a content store.
// Pointer records are the one deliberately mutable path in the store: they
// live at a fixed path per branch and are overwritten on every publish.
type StorageNameservice struct {
	store storage.Store
}

// NewStorageNameservice builds a nameservice over store.
func NewStorageNameservice(store storage.Store) *StorageNameservice {
	return &StorageNameservice{store: store}
}

type nsRecord struct {
	Alias   string `json:"alias"`
	Branch  string `json:"branch"`
	Address string `json:"address"`
}

// Publish points the ledger branch at commitAddress.
func (ns *StorageNameservice) Publish(ctx context.Context, ledger Ledger, commitAddress string) error {
	_, err := ns.store.Write(ctx, ns.path(ledger), nsRecord{
		Alias:   ledger.Alias,
		Branch:  ledger.Branch,
		Address: commitAddress,
	})
	return err
}

// Lookup returns the latest published commit address for the ledger branch.
func (ns *StorageNameservice) Lookup(ctx context.Context, ledger Ledger) (string, error) {
	b, ok, err := ns.store.Read(ctx, ns.store.Address(ns.path(ledger)))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: ledger %s", ErrNotFound, ledger.prefix())
	}
	var rec nsRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", fmt.Errorf("flakedb: parse nameservice record for %s: %w", ledger.prefix(), err)
	}
	return rec.Address, nil
}

func (ns *StorageNameservice) path(ledger Ledger) string {
	return ledger.prefix() + "/ns.json"
}
