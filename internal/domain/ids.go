// Package domain contains pure business types with ZERO infrastructure
// imports. This is the innermost ring of clean architecture — it depends
// on nothing but the standard library and github.com/google/uuid for
// id generation.
package domain

import (
	"sort"

	"github.com/google/uuid"
)

// NodeID identifies a server or client for the lifetime of its process.
// Ordering is lexicographic; this order decides election outcomes and
// ring position, so NodeID values must be globally unique and stable
// once assigned.
type NodeID string

// Less reports whether id sorts before other under the total order
// used by the ring and the election module.
func (id NodeID) Less(other NodeID) bool {
	return id < other
}

// NewNodeID generates a fresh random node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// NewMessageID generates a fresh random message identifier.
func NewMessageID() string {
	return uuid.NewString()
}

// SortNodeIDs returns a new, ascending-sorted copy of ids. Sorting is
// the basis of the deterministic ring ordering (spec P5): any two
// nodes that agree on membership must derive an identical ring.
func SortNodeIDs(ids []NodeID) []NodeID {
	out := make([]NodeID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
