// Package index materializes nodes of the persistent sorted flake tree from
// content-addressed blocks, caching them under bounded memory.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a node whose backing address has no content.
	ErrNotFound = errors.New("index: node not found")
	// ErrBadEncoding reports bytes that do not decode into a node.
	ErrBadEncoding = errors.New("index: bad node encoding")
)

// EmptyID marks a reference to a known-empty node that was never persisted.
const EmptyID = "empty"

// Flake is an atomic fact: subject, predicate, object plus metadata,
// stamped with the transaction that asserted (or retracted) it.
type Flake struct {
	Subject   int64          `json:"s"`
	Predicate int64          `json:"p"`
	Object    any            `json:"o"`
	Datatype  int64          `json:"dt,omitempty"`
	T         int64          `json:"t"`
	Op        bool           `json:"op"`
	Meta      map[string]any `json:"m,omitempty"`
}

// Ref points at a tree node, possibly unmaterialized. Tempid distinguishes
// in-memory, not-yet-persisted versions sharing a logical id; once persisted
// it is absent and the id alone identifies the node.
type Ref struct {
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Leaf    bool   `json:"leaf"`
	Tempid  string `json:"tempid,omitempty"`
	Size    int64  `json:"size,omitempty"`
}

// Empty reports whether the reference names the known-empty node.
func (r Ref) Empty() bool { return r.ID == EmptyID || r.ID == "" }

// Key returns the cache key for this reference.
func (r Ref) Key() Key { return Key{ID: r.ID, Tempid: r.Tempid} }

// Node is a materialized tree node. Nodes are immutable once materialized;
// the cache owns them and nothing mutates them afterwards.
type Node struct {
	ID       string  `json:"id"`
	Leaf     bool    `json:"leaf"`
	Index    string  `json:"index,omitempty"` // sort order, e.g. "spot"
	T        int64   `json:"t"`
	Size     int64   `json:"size"`
	First    *Flake  `json:"first,omitempty"`
	Rhs      *Ref    `json:"rhs,omitempty"` // rightmost sibling
	Children []Ref   `json:"children,omitempty"`
	Flakes   []Flake `json:"flakes,omitempty"`
}

// DecodeNode parses a persisted node block.
func DecodeNode(b []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	if n.ID == "" {
		return nil, fmt.Errorf("%w: missing node id", ErrBadEncoding)
	}
	return &n, nil
}

// EmptyNode returns the canonical value for a known-empty node. Resolution
// of an empty reference performs no I/O.
func EmptyNode(leaf bool) *Node {
	return &Node{ID: EmptyID, Leaf: leaf}
}
