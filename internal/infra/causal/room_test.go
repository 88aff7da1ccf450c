package causal

import (
	"testing"

	"github.com/ringmesh/ringchat/internal/domain"
)

type fakeBus struct {
	delivered map[domain.NodeID][]domain.Message
	missing   map[domain.NodeID]bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{delivered: map[domain.NodeID][]domain.Message{}}
}

func (b *fakeBus) SendToClient(id domain.NodeID, msg domain.Message) error {
	if b.missing[id] {
		return domain.ErrConnectionClosed
	}
	b.delivered[id] = append(b.delivered[id], msg)
	return nil
}

func chatFrom(sender domain.NodeID, room string, clock map[domain.NodeID]uint64) domain.Message {
	msg := domain.NewMessage(domain.Chat, sender)
	msg.RoomID = room
	msg.VectorClock = clock
	return msg
}

// TestCausalGapThenCatchUp is scenario S2.
func TestCausalGapThenCatchUp(t *testing.T) {
	r := NewRoom("R", "host")
	r.Join("client-1")
	bus := newFakeBus()

	r.HandleChat(chatFrom("A", "R", map[domain.NodeID]uint64{"A": 2}), bus)
	if got := r.clock.At("A"); got != 0 {
		t.Fatalf("clock advanced on an out-of-order message: A=%d", got)
	}
	if len(bus.delivered["client-1"]) != 0 {
		t.Fatalf("message delivered before its causal predecessor arrived")
	}

	r.HandleChat(chatFrom("A", "R", map[domain.NodeID]uint64{"A": 1}), bus)
	if got := r.clock.At("A"); got != 2 {
		t.Fatalf("clock A = %d after drain, want 2", got)
	}
	if len(bus.delivered["client-1"]) != 2 {
		t.Fatalf("delivered %d messages, want 2 (gap-filler then drained)", len(bus.delivered["client-1"]))
	}
}

// TestConcurrentSendersBothDeliverImmediately is scenario S3.
func TestConcurrentSendersBothDeliverImmediately(t *testing.T) {
	r := NewRoom("R", "host")
	r.Join("client-1")
	bus := newFakeBus()

	r.HandleChat(chatFrom("A", "R", map[domain.NodeID]uint64{"A": 1}), bus)
	r.HandleChat(chatFrom("B", "R", map[domain.NodeID]uint64{"B": 1}), bus)

	if len(bus.delivered["client-1"]) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(bus.delivered["client-1"]))
	}
	if r.clock.At("A") != 1 || r.clock.At("B") != 1 {
		t.Fatalf("room clock = %v, want A:1 B:1", r.clock.Snapshot())
	}
}

func TestSenderEchoIncludedInFanout(t *testing.T) {
	r := NewRoom("R", "host")
	r.Join("A")
	r.Join("B")
	bus := newFakeBus()

	r.HandleChat(chatFrom("A", "R", map[domain.NodeID]uint64{"A": 1}), bus)

	if len(bus.delivered["A"]) != 1 {
		t.Fatalf("sender should receive its own message as an echo")
	}
	if len(bus.delivered["B"]) != 1 {
		t.Fatalf("other member should also receive the message")
	}
}

func TestMissingConnectionSkippedNotFatal(t *testing.T) {
	r := NewRoom("R", "host")
	r.Join("ghost")
	bus := &fakeBus{delivered: map[domain.NodeID][]domain.Message{}, missing: map[domain.NodeID]bool{"ghost": true}}

	defer func() {
		if p := recover(); p != nil {
			t.Fatalf("delivering to a member with no live connection panicked: %v", p)
		}
	}()
	r.HandleChat(chatFrom("A", "R", map[domain.NodeID]uint64{"A": 1}), bus)
}
