// Package ring derives the deterministic logical ring used by
// election and failure-detector ring-repair (SPEC_FULL.md §4.3).
//
// The ring is simply the lexicographically sorted set of known node
// ids including self — not a consistent-hash ring with virtual nodes.
// Placement isn't the goal here, a single agreed-upon total order is:
// every node that shares the same membership view must derive the
// same neighbours (P5).
package ring

import (
	"sync"

	"github.com/ringmesh/ringchat/internal/domain"
)

// View is the sorted sequence of node ids making up a ring.
type View []domain.NodeID

// IndexOf returns the position of id in the view, or -1.
func (v View) IndexOf(id domain.NodeID) int {
	for i, n := range v {
		if n == id {
			return i
		}
	}
	return -1
}

// Manager holds the current ring view and recomputes it whenever
// membership changes, under its own mutex (spec.md §5's "Ring and
// membership: guarded by a single mutex" rule).
type Manager struct {
	mu   sync.RWMutex
	self domain.NodeID
	view View
}

// NewManager creates a ring manager for self, initially a ring of one.
func NewManager(self domain.NodeID) *Manager {
	return &Manager{self: self, view: View{self}}
}

// Recompute rebuilds the ring from the current peer id set (which
// must include self). Recomputation is idempotent: the same input set
// always yields the same View, because sorting is deterministic.
func (m *Manager) Recompute(ids []domain.NodeID) View {
	sorted := domain.SortNodeIDs(ids)

	m.mu.Lock()
	m.view = sorted
	m.mu.Unlock()

	return sorted
}

// View returns a snapshot of the current ring.
func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(View, len(m.view))
	copy(out, m.view)
	return out
}

// Size returns the number of nodes currently in the ring.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.view)
}

// Neighbours returns self's left and right neighbours in the current
// ring: left is the next id clockwise (index+1 mod N), right is the
// previous (index-1 mod N). A ring of size 1 yields self for both
// (SPEC_FULL.md §4.3) and is not election-eligible.
func (m *Manager) Neighbours() (left, right domain.NodeID, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.view)
	idx := m.view.IndexOf(m.self)
	if idx < 0 {
		return "", "", domain.ErrNotInRing
	}
	if n == 1 {
		return m.self, m.self, nil
	}
	left = m.view[(idx+1)%n]
	right = m.view[(idx-1+n)%n]
	return left, right, nil
}

// Eligible reports whether the current ring is large enough to run an
// election (size > 1); a lone node declares itself leader instead.
func (m *Manager) Eligible() bool {
	return m.Size() > 1
}

// NeighboursOf returns id's left and right neighbours within v, the
// same way Manager.Neighbours computes self's — used by the leader to
// find the two peers that bordered a node that just failed.
func (v View) NeighboursOf(id domain.NodeID) (left, right domain.NodeID, ok bool) {
	n := len(v)
	idx := v.IndexOf(id)
	if idx < 0 {
		return "", "", false
	}
	if n == 1 {
		return id, id, true
	}
	left = v[(idx+1)%n]
	right = v[(idx-1+n)%n]
	return left, right, true
}
