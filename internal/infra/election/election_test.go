package election

import (
	"sync"
	"testing"

	"github.com/ringmesh/ringchat/internal/domain"
	"github.com/ringmesh/ringchat/internal/infra/ring"
)

// fakeBus wires a small set of in-process election modules together
// so HandleMessage can be driven synchronously, the way a simulated
// ring of peer stubs would (SPEC_FULL.md §8 note on election tests).
type fakeBus struct {
	mu       sync.Mutex
	modules  map[domain.NodeID]*Module
	leaderOf map[domain.NodeID]domain.NodeID
	stateOf  map[domain.NodeID]domain.ServerState
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		modules:  map[domain.NodeID]*Module{},
		leaderOf: map[domain.NodeID]domain.NodeID{},
		stateOf:  map[domain.NodeID]domain.ServerState{},
	}
}

type busSender struct {
	bus  *fakeBus
	self domain.NodeID
}

func (s *busSender) SendToPeer(id domain.NodeID, msg domain.Message) error {
	s.bus.mu.Lock()
	target, ok := s.bus.modules[id]
	s.bus.mu.Unlock()
	if !ok {
		return domain.ErrConnectionClosed
	}
	target.HandleMessage(msg, s.self)
	return nil
}

func (s *busSender) PeerIDs() []domain.NodeID {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	ids := make([]domain.NodeID, 0, len(s.bus.modules))
	for id := range s.bus.modules {
		ids = append(ids, id)
	}
	return ids
}

type busLeaderSink struct {
	bus  *fakeBus
	self domain.NodeID
}

func (l *busLeaderSink) SetLeader(id domain.NodeID) {
	l.bus.mu.Lock()
	l.bus.leaderOf[l.self] = id
	l.bus.mu.Unlock()
}

func (l *busLeaderSink) SetState(s domain.ServerState) {
	l.bus.mu.Lock()
	l.bus.stateOf[l.self] = s
	l.bus.mu.Unlock()
}

func (b *fakeBus) add(id domain.NodeID, r *ring.Manager) *Module {
	m := New(id, r, &busSender{bus: b, self: id}, &busLeaderSink{bus: b, self: id})
	b.mu.Lock()
	b.modules[id] = m
	b.mu.Unlock()
	return m
}

func TestElectionTwoNodesHigherIDWins(t *testing.T) {
	bus := newFakeBus()
	ids := []domain.NodeID{"A", "B"}

	ringA := ring.NewManager("A")
	ringA.Recompute(ids)
	ringB := ring.NewManager("B")
	ringB.Recompute(ids)

	modA := bus.add("A", ringA)
	modB := bus.add("B", ringB)

	modA.StartElection(0)
	modB.StartElection(0)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.leaderOf["A"] != "B" || bus.leaderOf["B"] != "B" {
		t.Fatalf("leaders = %v, want both B", bus.leaderOf)
	}
	if bus.stateOf["B"] != domain.Leader {
		t.Fatalf("B state = %v, want Leader", bus.stateOf["B"])
	}
	if bus.stateOf["A"] != domain.Follower {
		t.Fatalf("A state = %v, want Follower", bus.stateOf["A"])
	}
}

func TestElectionThreeNodesMaxIDWins(t *testing.T) {
	bus := newFakeBus()
	ids := []domain.NodeID{"A", "B", "C"}

	rings := map[domain.NodeID]*ring.Manager{}
	for _, id := range ids {
		r := ring.NewManager(id)
		r.Recompute(ids)
		rings[id] = r
	}

	mods := map[domain.NodeID]*Module{}
	for _, id := range ids {
		mods[id] = bus.add(id, rings[id])
	}
	for _, id := range ids {
		mods[id].StartElection(0)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	for _, id := range ids {
		if bus.leaderOf[id] != "C" {
			t.Fatalf("leader seen by %s = %v, want C", id, bus.leaderOf[id])
		}
	}
	if bus.stateOf["C"] != domain.Leader {
		t.Fatalf("C state = %v, want Leader", bus.stateOf["C"])
	}
}

func TestAtMostOneLeaderDeclared(t *testing.T) {
	bus := newFakeBus()
	ids := []domain.NodeID{"A", "B", "C", "D"}

	rings := map[domain.NodeID]*ring.Manager{}
	mods := map[domain.NodeID]*Module{}
	for _, id := range ids {
		r := ring.NewManager(id)
		r.Recompute(ids)
		rings[id] = r
		mods[id] = bus.add(id, r)
	}
	for _, id := range ids {
		mods[id].StartElection(0)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	leaders := 0
	for _, id := range ids {
		if bus.stateOf[id] == domain.Leader {
			leaders++
		}
	}
	if leaders != 1 {
		t.Fatalf("leaders declared = %d, want exactly 1", leaders)
	}
}
