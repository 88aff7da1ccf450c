// Package discovery implements UDP-based peer and client discovery
// (SPEC_FULL.md §4.2): servers announce themselves on a well-known
// port, and clients broadcast to find any server that can point them
// at the leader's room directory.
package discovery

import (
	"context"
	"log"
	"time"

	"github.com/ringmesh/ringchat/internal/domain"
	"github.com/ringmesh/ringchat/internal/infra/transport"
)

// DefaultPort is the well-known UDP discovery port.
const DefaultPort = 6000

// Config controls discovery parameters; tests may shorten Interval.
type Config struct {
	Port     int
	Interval time.Duration // periodic re-broadcast; 0 disables it
}

// DefaultConfig returns the standard discovery parameters: bind on
// DefaultPort, no periodic gossip beyond the initial broadcast (the
// core protocol only requires an initial broadcast and on-demand
// re-broadcast).
func DefaultConfig() Config {
	return Config{Port: DefaultPort}
}

// peerConnector opens an outbound peer connection and registers it,
// breaking the symmetry of who dials whom.
type peerConnector interface {
	ConnectToPeer(ip string, port int, theirID domain.NodeID) error
}

// ringRecomputer is notified whenever the known peer set changes, so
// it can recompute the ring and trigger a fresh election.
type ringRecomputer interface {
	OnMembershipChanged()
}

// requestHandler answers a client's DISCOVERY_REQUEST with the
// directory, directly or by forwarding to the leader; discovery only
// owns the socket, not directory state.
type requestHandler interface {
	HandleDiscoveryRequest(msg domain.Message)
}

// Service runs the discovery UDP socket and dispatches discovery
// traffic. It holds no business logic of its own beyond what
// SPEC_FULL.md §4.2 assigns to discovery; election, ring, and
// directory are reached through the small interfaces above.
type Service struct {
	self     domain.NodeID
	myAddr   domain.Endpoint
	cfg      Config
	sock     *transport.UDPSocket
	peers    peerConnector
	ring     ringRecomputer
	requests requestHandler
	known    map[domain.NodeID]bool
}

// New creates a discovery service bound to an already-open UDP
// socket.
func New(self domain.NodeID, myAddr domain.Endpoint, cfg Config, sock *transport.UDPSocket, peers peerConnector, ring ringRecomputer, requests requestHandler) *Service {
	return &Service{
		self:     self,
		myAddr:   myAddr,
		cfg:      cfg,
		sock:     sock,
		peers:    peers,
		ring:     ring,
		requests: requests,
		known:    map[domain.NodeID]bool{},
	}
}

// Announce broadcasts one SERVER_DISCOVERY datagram advertising this
// node's endpoint.
func (s *Service) Announce() {
	msg := domain.NewMessage(domain.ServerDiscovery, s.self)
	msg.Content = encodeEndpoint(s.myAddr)
	if err := s.sock.Broadcast(msg, s.cfg.Port); err != nil {
		log.Printf("[discovery] broadcast failed: %v", err)
	}
}

// Rebroadcast re-announces on demand, e.g. after a client asks to
// retry discovery.
func (s *Service) Rebroadcast() { s.Announce() }

// Run starts the UDP receive loop and, if cfg.Interval is non-zero,
// a periodic re-announce loop, until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	go s.sock.ReceiveLoop(ctx, s.handleDatagram)

	if s.cfg.Interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Announce()
			}
		}
	}()
}

func (s *Service) handleDatagram(msg domain.Message) {
	switch msg.Type {
	case domain.ServerDiscovery:
		s.handleServerDiscovery(msg)
	case domain.DiscoveryRequest:
		s.requests.HandleDiscoveryRequest(msg)
	}
}

// handleServerDiscovery implements the symmetry-breaking connect
// rule: on hearing from an unknown peer whose id is smaller-or-equal
// to self, dial them (so exactly one side of every pair initiates).
func (s *Service) handleServerDiscovery(msg domain.Message) {
	if s.known[msg.SenderID] || msg.SenderID == s.self {
		return
	}
	s.known[msg.SenderID] = true

	if !(msg.SenderID <= s.self) {
		return
	}
	ep, err := decodeEndpoint(msg.Content)
	if err != nil {
		log.Printf("[discovery] malformed SERVER_DISCOVERY from %s: %v", msg.SenderID, err)
		return
	}
	if err := s.peers.ConnectToPeer(ep.IP, ep.Port, msg.SenderID); err != nil {
		log.Printf("[discovery] connect to %s failed: %v", msg.SenderID, err)
		return
	}
	s.ring.OnMembershipChanged()
}
