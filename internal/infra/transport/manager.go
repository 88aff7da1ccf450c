package transport

import (
	"fmt"
	"net"
	"sync"

	"github.com/ringmesh/ringchat/internal/domain"
)

// Manager owns the two connection maps described in SPEC_FULL.md
// §4.1 — peer↔peer and server→client — behind a single mutex. Only
// map mutations take the lock; I/O through an already-looked-up Conn
// happens outside it (spec.md §5's lock-order discipline).
type Manager struct {
	mu      sync.Mutex
	self    domain.NodeID
	peers   map[domain.NodeID]*Conn
	clients map[domain.NodeID]*Conn
}

// NewManager creates a Manager for a node identified by self.
func NewManager(self domain.NodeID) *Manager {
	return &Manager{
		self:    self,
		peers:   make(map[domain.NodeID]*Conn),
		clients: make(map[domain.NodeID]*Conn),
	}
}

// ConnectTo dials a peer at ip:port. The caller is responsible for
// sending the SERVER_JOIN handshake and calling AddPeer once the
// remote id is known.
func ConnectTo(ip string, port int) (net.Conn, error) {
	return net.Dial("tcp", fmt.Sprintf("%s:%d", ip, port))
}

// AddPeer registers a peer connection, enforcing at-most-one
// connection per peer id in this direction. If both sides dialed each
// other simultaneously, the lower-id side yields: when self < id, a
// pre-existing connection for id is kept and the new one is reported
// as a duplicate so the caller can close it.
func (m *Manager) AddPeer(id domain.NodeID, c *Conn) (kept *Conn, duplicate bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.peers[id]; ok {
		if m.self.Less(id) {
			return existing, true
		}
		m.peers[id] = c
		return c, false
	}
	m.peers[id] = c
	return c, false
}

// RemovePeer drops a peer's connection (failure detection or leader
// removal from the ring) and returns it, if present.
func (m *Manager) RemovePeer(id domain.NodeID) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.peers[id]
	delete(m.peers, id)
	return c
}

// Peer returns the connection to peer id, if any.
func (m *Manager) Peer(id domain.NodeID) (*Conn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.peers[id]
	return c, ok
}

// PeerIDs returns a snapshot of currently connected peer ids,
// including self (the ring is defined over self plus known peers).
func (m *Manager) PeerIDs() []domain.NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]domain.NodeID, 0, len(m.peers)+1)
	ids = append(ids, m.self)
	for id := range m.peers {
		ids = append(ids, id)
	}
	return ids
}

// AddClient registers a client connection.
func (m *Manager) AddClient(id domain.NodeID, c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[id] = c
}

// RemoveClient drops a client's connection.
func (m *Manager) RemoveClient(id domain.NodeID) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.clients[id]
	delete(m.clients, id)
	return c
}

// Client returns the connection to client id, if any.
func (m *Manager) Client(id domain.NodeID) (*Conn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	return c, ok
}

// SendToPeer sends msg to peer id. A missing connection is reported
// to the caller rather than silently dropped, so callers can decide
// whether that is expected (e.g. a peer mid-failure-detection).
func (m *Manager) SendToPeer(id domain.NodeID, msg domain.Message) error {
	c, ok := m.Peer(id)
	if !ok {
		return fmt.Errorf("send to peer %s: %w", id, domain.ErrConnectionClosed)
	}
	return c.Send(msg)
}

// SendToClient sends msg to client id. A missing connection is
// skipped per SPEC_FULL.md §4.6 fan-out semantics — the caller treats
// the error as "skip, they'll resync on reconnect".
func (m *Manager) SendToClient(id domain.NodeID, msg domain.Message) error {
	c, ok := m.Client(id)
	if !ok {
		return fmt.Errorf("send to client %s: %w", id, domain.ErrConnectionClosed)
	}
	return c.Send(msg)
}

// BroadcastToPeers sends msg to every currently connected peer.
func (m *Manager) BroadcastToPeers(msg domain.Message) {
	m.mu.Lock()
	conns := make([]*Conn, 0, len(m.peers))
	for _, c := range m.peers {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		_ = c.Send(msg)
	}
}

// PeerConns returns a snapshot of (id, connection) pairs for callers
// that need to iterate all peers.
func (m *Manager) PeerConns() map[domain.NodeID]*Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.NodeID]*Conn, len(m.peers))
	for id, c := range m.peers {
		out[id] = c
	}
	return out
}
