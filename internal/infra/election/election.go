// Package election implements the Hirschberg-Sinclair ring leader
// election algorithm (SPEC_FULL.md §4.4): each candidate probes
// outward in rounds of doubling hop distance k, a probe surviving to
// distance 2^k turns into a reply, a candidate that gets replies back
// from both directions starts round k+1, and a candidate whose own
// probe travels all the way around the ring back to it declares itself
// leader.
package election

import (
	"log"
	"sync"

	"github.com/ringmesh/ringchat/internal/domain"
)

// Kind distinguishes the three election wire messages.
type Kind string

const (
	KindElection           Kind = "Election"
	KindReply              Kind = "Reply"
	KindLeaderAnnouncement Kind = "Leader Announcement"
)

// Payload is the tagged content carried inside a domain.Message of
// type domain.Election, replacing the original's ad-hoc stringified
// dict.
type Payload struct {
	Kind Kind         `json:"kind"`
	MID  domain.NodeID `json:"mid"`
	K    int          `json:"k"`
	D    int          `json:"d"`
}

// neighbourView exposes just enough of the ring to run an election,
// without the module owning a back-reference to the server node.
type neighbourView interface {
	Neighbours() (left, right domain.NodeID, err error)
}

// peerSender delivers an election message to one named peer, and
// separately exposes the full set of known peer ids for the
// leader-announcement fan-out.
type peerSender interface {
	SendToPeer(id domain.NodeID, msg domain.Message) error
	PeerIDs() []domain.NodeID
}

// leaderSetter lets the election module update the node's view of who
// leads, and its state machine, without depending on node's package.
type leaderSetter interface {
	SetLeader(id domain.NodeID)
	SetState(s domain.ServerState)
}

// Module runs one node's share of the election protocol. A Module is
// bound to one ServerNode for its lifetime.
type Module struct {
	mu           sync.Mutex
	self         domain.NodeID
	k            int
	replyCounter int

	ring    neighbourView
	sender  peerSender
	leaders leaderSetter
}

// New builds an election module for self, wired to the given ring
// view, peer sender, and leader-state sink.
func New(self domain.NodeID, ring neighbourView, sender peerSender, leaders leaderSetter) *Module {
	return &Module{self: self, ring: ring, sender: sender, leaders: leaders}
}

func (m *Module) sendTo(id domain.NodeID, p Payload) {
	msg := domain.NewMessage(domain.Election, m.self)
	msg.Content = encode(p)
	if err := m.sender.SendToPeer(id, msg); err != nil {
		log.Printf("[election] send to %s failed: %v", id, err)
	}
}

// StartElection begins (or restarts, at round k) an election by
// probing both ring neighbours at hop distance 1.
func (m *Module) StartElection(k int) {
	m.mu.Lock()
	m.k = k
	m.replyCounter = 0
	m.mu.Unlock()

	m.leaders.SetState(domain.ElectionInProgress)
	m.leaders.SetLeader("")

	left, right, err := m.ring.Neighbours()
	if err != nil {
		log.Printf("[election] cannot start: %v", err)
		return
	}

	p := Payload{Kind: KindElection, MID: m.self, K: k, D: 1}
	m.sendTo(left, p)
	if right != left {
		m.sendTo(right, p)
	}
}

// HandleMessage processes one inbound ELECTION-type message, given
// which neighbour it arrived from.
func (m *Module) HandleMessage(msg domain.Message, from domain.NodeID) {
	p, err := decode(msg.Content)
	if err != nil {
		log.Printf("[election] malformed payload from %s: %v", from, err)
		return
	}

	left, right, err := m.ring.Neighbours()
	if err != nil {
		log.Printf("[election] no ring view: %v", err)
		return
	}

	switch p.Kind {
	case KindElection:
		m.handleElection(p, from, left, right)
	case KindReply:
		m.handleReply(p, from, left, right)
	case KindLeaderAnnouncement:
		m.leaders.SetLeader(p.MID)
		m.leaders.SetState(domain.Follower)
	}
}

func (m *Module) handleElection(p Payload, from, left, right domain.NodeID) {
	switch {
	case m.self < p.MID && p.D < pow2(p.K):
		forward := Payload{Kind: KindElection, MID: p.MID, K: p.K, D: p.D + 1}
		m.forwardAway(from, left, right, forward)

	case m.self < p.MID && p.D == pow2(p.K):
		reply := Payload{Kind: KindReply, MID: p.MID, K: p.K}
		m.sendBackToward(from, left, right, reply)

	case m.self == p.MID:
		m.becomeLeader(left, right)
	}
}

func (m *Module) handleReply(p Payload, from, left, right domain.NodeID) {
	if m.self != p.MID {
		m.forwardAway(from, left, right, p)
		return
	}

	needed := 2
	if left == right {
		// ring of two: the single physical neighbour stands in for
		// both directions, so one reply closes out the round.
		needed = 1
	}

	m.mu.Lock()
	m.replyCounter++
	replies := m.replyCounter
	nextK := p.K + 1
	m.mu.Unlock()

	if replies == needed {
		m.StartElection(nextK)
	}
}

// forwardAway sends p to whichever neighbour the message did NOT
// arrive from (a probe bounces outward, never back the way it came).
func (m *Module) forwardAway(from, left, right domain.NodeID, p Payload) {
	switch from {
	case right:
		m.sendTo(left, p)
	case left:
		m.sendTo(right, p)
	}
}

// sendBackToward sends a reply the same direction the probe came
// from, i.e. back toward the sender.
func (m *Module) sendBackToward(from, left, right domain.NodeID, p Payload) {
	switch from {
	case left:
		m.sendTo(left, p)
	case right:
		m.sendTo(right, p)
	}
}

// becomeLeader declares self leader, announces it to every peer
// connection, and logically removes self from the ring by telling its
// two former neighbours to close the gap between them.
func (m *Module) becomeLeader(left, right domain.NodeID) {
	m.leaders.SetLeader(m.self)
	m.leaders.SetState(domain.Leader)

	announce := Payload{Kind: KindLeaderAnnouncement, MID: m.self}
	for _, id := range m.sender.PeerIDs() {
		if id == m.self {
			continue
		}
		m.sendTo(id, announce)
	}

	if left != m.self {
		m.sendNeighbourUpdate(left, right)
		if right != left {
			m.sendNeighbourUpdate(right, left)
		}
	}
}

func (m *Module) sendNeighbourUpdate(to, newNeighbour domain.NodeID) {
	msg := domain.NewMessage(domain.UpdateNeighbour, m.self)
	msg.Content = string(newNeighbour)
	if err := m.sender.SendToPeer(to, msg); err != nil {
		log.Printf("[election] neighbour update to %s failed: %v", to, err)
	}
}

func pow2(k int) int {
	r := 1
	for i := 0; i < k; i++ {
		r *= 2
	}
	return r
}
