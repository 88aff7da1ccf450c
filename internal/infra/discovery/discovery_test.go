package discovery

import (
	"testing"

	"github.com/ringmesh/ringchat/internal/domain"
)

type fakePeers struct {
	calls []string
	err   error
}

func (f *fakePeers) ConnectToPeer(ip string, port int, theirID domain.NodeID) error {
	f.calls = append(f.calls, string(theirID))
	return f.err
}

type fakeRing struct {
	notified int
}

func (f *fakeRing) OnMembershipChanged() { f.notified++ }

type fakeRequests struct {
	handled []domain.NodeID
}

func (f *fakeRequests) HandleDiscoveryRequest(msg domain.Message) {
	f.handled = append(f.handled, msg.SenderID)
}

func TestDiscoveryRequestDatagramRoutedToRequestHandler(t *testing.T) {
	requests := &fakeRequests{}
	svc := &Service{self: "B", requests: requests, known: map[domain.NodeID]bool{}}

	msg := domain.NewMessage(domain.DiscoveryRequest, "client-1")
	svc.handleDatagram(msg)

	if len(requests.handled) != 1 || requests.handled[0] != "client-1" {
		t.Fatalf("handled = %v, want [client-1]", requests.handled)
	}
}

func TestSymmetryBreakingOnlyLowerOrEqualIDConnects(t *testing.T) {
	peers := &fakePeers{}
	ring := &fakeRing{}
	svc := &Service{self: "B", peers: peers, ring: ring, known: map[domain.NodeID]bool{}}

	// "A" <= "B": B should dial A.
	msgFromA := domain.NewMessage(domain.ServerDiscovery, "A")
	msgFromA.Content = encodeEndpoint(domain.Endpoint{IP: "10.0.0.1", Port: 9000})
	svc.handleServerDiscovery(msgFromA)

	if len(peers.calls) != 1 || peers.calls[0] != "A" {
		t.Fatalf("calls = %v, want [A]", peers.calls)
	}
	if ring.notified != 1 {
		t.Fatalf("ring notified %d times, want 1", ring.notified)
	}
}

func TestSymmetryBreakingHigherIDDoesNotConnect(t *testing.T) {
	peers := &fakePeers{}
	ring := &fakeRing{}
	svc := &Service{self: "A", peers: peers, ring: ring, known: map[domain.NodeID]bool{}}

	// "C" > "A": A should NOT dial C (C is expected to dial A instead).
	msgFromC := domain.NewMessage(domain.ServerDiscovery, "C")
	msgFromC.Content = encodeEndpoint(domain.Endpoint{IP: "10.0.0.2", Port: 9001})
	svc.handleServerDiscovery(msgFromC)

	if len(peers.calls) != 0 {
		t.Fatalf("calls = %v, want none", peers.calls)
	}
	if ring.notified != 0 {
		t.Fatalf("ring should not be notified without a new connection")
	}
}

func TestKnownPeerIsNotReconnected(t *testing.T) {
	peers := &fakePeers{}
	ring := &fakeRing{}
	svc := &Service{self: "B", peers: peers, ring: ring, known: map[domain.NodeID]bool{"A": true}}

	msgFromA := domain.NewMessage(domain.ServerDiscovery, "A")
	msgFromA.Content = encodeEndpoint(domain.Endpoint{IP: "10.0.0.1", Port: 9000})
	svc.handleServerDiscovery(msgFromA)

	if len(peers.calls) != 0 {
		t.Fatalf("already-known peer should not trigger a reconnect, got %v", peers.calls)
	}
}

func TestAvailableRoomsPayloadRoundTrip(t *testing.T) {
	p := AvailableRoomsPayload{
		Rooms:   map[string]domain.NodeID{"room-1": "B"},
		Servers: map[domain.NodeID]domain.Endpoint{"B": {IP: "10.0.0.1", Port: 9000}},
	}
	got, err := DecodeAvailableRooms(EncodeAvailableRooms(p))
	if err != nil {
		t.Fatalf("DecodeAvailableRooms: %v", err)
	}
	if got.Rooms["room-1"] != "B" || got.Servers["B"].Port != 9000 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
