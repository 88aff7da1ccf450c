// Package causal implements per-room causal multicast over vector
// clocks (SPEC_FULL.md §4.6): a CHAT message is delivered to a room's
// members only once every earlier-in-causal-order message has been
// delivered, with out-of-order arrivals held back until they are.
package causal

import (
	"sync"

	"github.com/ringmesh/ringchat/internal/domain"
)

// memberSender fans a delivered message out to one room member's
// client connection. A missing connection is skipped by the caller —
// the member resynchronises on reconnect.
type memberSender interface {
	SendToClient(id domain.NodeID, msg domain.Message) error
}

// Room holds one room's causal state: its member set, its vector
// clock, delivered history, and the hold-back queue for messages that
// arrived before their causal predecessors.
type Room struct {
	mu       sync.Mutex
	id       string
	host     domain.NodeID
	members  map[domain.NodeID]bool
	clock    *domain.VectorClock
	history  []domain.Message
	holdBack []domain.Message
}

// NewRoom creates an empty room hosted by host.
func NewRoom(id string, host domain.NodeID) *Room {
	return &Room{
		id:      id,
		host:    host,
		members: map[domain.NodeID]bool{},
		clock:   domain.NewVectorClock(),
	}
}

// ID returns the room's identifier.
func (r *Room) ID() string { return r.id }

// Join adds a client to the room's member set.
func (r *Room) Join(client domain.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[client] = true
}

// Leave removes a client from the member set.
func (r *Room) Leave(client domain.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, client)
}

// Members returns a snapshot of the current member set.
func (r *Room) Members() []domain.NodeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NodeID, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	return out
}

// History returns a snapshot of delivered messages, in delivery
// order.
func (r *Room) History() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, len(r.history))
	copy(out, r.history)
	return out
}

// HandleChat processes one inbound CHAT message for this room: if it
// is causally ready it is delivered and fanned out immediately, then
// the hold-back queue is drained to a fixed point; otherwise it is
// buffered until its predecessors arrive.
func (r *Room) HandleChat(msg domain.Message, bus memberSender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgClock := msg.Clock()
	if !r.clock.CausallyReady(msgClock, msg.SenderID) {
		r.holdBack = append(r.holdBack, msg)
		return
	}

	r.deliverAndMulticast(msg, msgClock, bus)
	r.drainHoldBack(bus)
}

func (r *Room) deliverAndMulticast(msg domain.Message, msgClock *domain.VectorClock, bus memberSender) {
	r.clock.Merge(msgClock)
	r.history = append(r.history, msg)
	r.multicast(msg, bus)
}

// drainHoldBack repeatedly scans the hold-back queue for a message
// that has become ready, delivering at most one per pass and
// restarting the scan — an iterative rendition of the fixed-point
// drain, never recursive, so an unbounded backlog can't grow the call
// stack.
func (r *Room) drainHoldBack(bus memberSender) {
	for {
		progressed := false
		for i, pending := range r.holdBack {
			pendingClock := pending.Clock()
			if !r.clock.CausallyReady(pendingClock, pending.SenderID) {
				continue
			}
			r.holdBack = append(r.holdBack[:i], r.holdBack[i+1:]...)
			r.deliverAndMulticast(pending, pendingClock, bus)
			progressed = true
			break
		}
		if !progressed {
			return
		}
	}
}

// multicast fans a delivered message out to every current member,
// including the sender (echo), over its server-to-client TCP
// connection. A member with no live connection is skipped.
func (r *Room) multicast(msg domain.Message, bus memberSender) {
	for client := range r.members {
		if err := bus.SendToClient(client, msg); err != nil {
			continue
		}
	}
}
