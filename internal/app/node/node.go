// Package node wires the transport, ring, election, failure-detector,
// causal-multicast, directory, and discovery components into a single
// running server (SPEC_FULL.md §4.8): one node per process, exactly
// one TCP listener, one UDP discovery socket, one heartbeat loop.
package node

import (
	"context"
	"log"
	"net"
	"sync"

	"github.com/ringmesh/ringchat/internal/daemon"
	"github.com/ringmesh/ringchat/internal/domain"
	"github.com/ringmesh/ringchat/internal/infra/causal"
	"github.com/ringmesh/ringchat/internal/infra/directory"
	"github.com/ringmesh/ringchat/internal/infra/discovery"
	"github.com/ringmesh/ringchat/internal/infra/election"
	"github.com/ringmesh/ringchat/internal/infra/failuredetector"
	"github.com/ringmesh/ringchat/internal/infra/observability"
	"github.com/ringmesh/ringchat/internal/infra/ring"
	"github.com/ringmesh/ringchat/internal/infra/transport"
)

// ServerNode is the composition root: it owns one instance of every
// subsystem and routes inbound messages between them. No subsystem
// holds a back-reference to ServerNode — each is handed only the
// small interface it needs.
type ServerNode struct {
	mu       sync.RWMutex
	self     domain.NodeID
	addr     domain.Endpoint
	cfg      daemon.Config
	state    domain.ServerState
	leaderID domain.NodeID

	ctx    context.Context
	cancel context.CancelFunc

	conns   *transport.Manager
	ringMgr *ring.Manager
	elec    *election.Module
	fd      *failuredetector.Detector
	rooms   *causal.RoomStore
	dirStore *directory.Store
	dirLeader *directory.Leader
	dirFollower *directory.Follower
	disc    *discovery.Service
	udpSock *transport.UDPSocket
}

// New constructs a ServerNode bound to self with a fresh UDP
// discovery socket already listening on cfg.Network.DiscoveryPort.
func New(self domain.NodeID, addr domain.Endpoint, cfg daemon.Config) (*ServerNode, error) {
	udpSock, err := transport.ListenUDP(cfg.Network.DiscoveryPort)
	if err != nil {
		return nil, err
	}

	n := &ServerNode{
		self:     self,
		addr:     addr,
		cfg:      cfg,
		state:    domain.Looking,
		conns:    transport.NewManager(self),
		ringMgr:  ring.NewManager(self),
		rooms:    causal.NewRoomStore(),
		dirStore: directory.NewStore(),
		udpSock:  udpSock,
	}

	n.elec = election.New(self, n.ringMgr, n.conns, n)
	n.fd = failuredetector.New(
		fdConfig(cfg),
		n.onPeerFailure,
		n.onClientFailure,
	)
	n.dirLeader = directory.NewLeader(self, n.dirStore, n.conns)
	n.dirFollower = directory.NewFollower(self, n.dirStore)
	n.disc = discovery.New(self, addr, discovery.Config{Port: cfg.Network.DiscoveryPort}, udpSock, n, n, n)

	return n, nil
}

func fdConfig(cfg daemon.Config) failuredetector.Config {
	return failuredetector.Config{
		Period:  cfg.FailureDetector.Period(),
		Timeout: cfg.FailureDetector.Timeout(),
	}
}

// SetLeader implements election.leaderSetter.
func (n *ServerNode) SetLeader(id domain.NodeID) {
	n.mu.Lock()
	changed := n.leaderID != id
	n.leaderID = id
	n.mu.Unlock()
	if changed && id != "" {
		observability.ElectionLeaderChanges.Inc()
	}
}

// SetState implements election.leaderSetter. Heartbeats are suspended
// while a re-election is in flight and resumed once the node settles
// into LEADER or FOLLOWER (spec.md §4.5).
func (n *ServerNode) SetState(s domain.ServerState) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()

	switch s {
	case domain.ElectionInProgress, domain.Looking:
		n.fd.Suspend(true)
	case domain.Leader, domain.Follower:
		n.fd.Suspend(false)
		n.reseedTimers()
	}
}

func (n *ServerNode) reseedTimers() {
	n.mu.RLock()
	state := n.state
	leader := n.leaderID
	n.mu.RUnlock()

	peers := n.conns.PeerIDs()
	monitored := make([]domain.NodeID, 0, len(peers))
	if state == domain.Leader {
		for _, id := range peers {
			if id != n.self {
				monitored = append(monitored, id)
			}
		}
	} else {
		left, right, err := n.ringMgr.Neighbours()
		if err == nil {
			if left != n.self {
				monitored = append(monitored, left)
			}
			if right != n.self && right != left {
				monitored = append(monitored, right)
			}
		}
		if leader != "" && leader != n.self && leader != left && leader != right {
			monitored = append(monitored, leader)
		}
	}
	n.fd.Reseed(monitored, nil)
}

// State returns the current server state.
func (n *ServerNode) State() domain.ServerState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// IsLeader implements discovery's directory-facing capability.
func (n *ServerNode) IsLeader() bool { return n.State() == domain.Leader }

// LeaderID returns the currently known leader, if any.
func (n *ServerNode) LeaderID() domain.NodeID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.leaderID
}

// RingView implements api.StatusSource: a snapshot of the current
// ring membership.
func (n *ServerNode) RingView() []domain.NodeID { return n.ringMgr.View() }

// DirectorySnapshot implements api.StatusSource: the cached room
// directory and its generation counter.
func (n *ServerNode) DirectorySnapshot() (map[string]domain.NodeID, uint64) {
	return n.dirStore.Snapshot()
}

// Self returns this node's id.
func (n *ServerNode) Self() domain.NodeID { return n.self }

// Addr returns this node's advertised endpoint.
func (n *ServerNode) Addr() domain.Endpoint { return n.addr }

// Close releases the node's sockets.
func (n *ServerNode) Close() {
	n.udpSock.Close()
}

func (n *ServerNode) onPeerFailure(id domain.NodeID) {
	observability.PeerTimeouts.Inc()
	log.Printf("[node] peer %s timed out", id)

	wasLeader := n.LeaderID() == id
	oldView := n.ringMgr.View()
	amLeader := n.IsLeader()

	n.conns.RemovePeer(id)
	observability.PeerConnections.Dec()
	n.recomputeRing()

	if wasLeader {
		if n.ringMgr.Eligible() {
			observability.ElectionRoundsStarted.Inc()
			n.elec.StartElection(0)
		} else {
			// Sole survivor: no ring neighbour can ever complete a
			// round, so there's no one left to elect but self.
			n.SetLeader(n.self)
			n.SetState(domain.Leader)
		}
		return
	}
	if amLeader {
		n.repairRingAround(id, oldView)
	}
}

func (n *ServerNode) onClientFailure(id domain.NodeID) {
	observability.ClientTimeouts.Inc()
	n.conns.RemoveClient(id)
	observability.ClientConnections.Dec()
	for _, rid := range n.rooms.IDs() {
		if r, ok := n.rooms.Get(rid); ok {
			r.Leave(id)
		}
	}
}

// repairRingAround rewires the two logical neighbours of a just-failed
// peer to point at each other, leader-side only (spec.md §4.5). oldView
// is the ring as it stood just before the failed node was removed.
func (n *ServerNode) repairRingAround(failed domain.NodeID, oldView ring.View) {
	left, right, ok := oldView.NeighboursOf(failed)
	if !ok || left == failed || right == failed {
		return
	}

	sendUpdate := func(to, newNeighbour domain.NodeID) {
		if to == n.self || to == failed {
			return
		}
		msg := domain.NewMessage(domain.UpdateNeighbour, n.self)
		msg.Content = string(newNeighbour)
		if err := n.conns.SendToPeer(to, msg); err != nil {
			log.Printf("[node] ring repair update to %s failed: %v", to, err)
		}
	}
	sendUpdate(left, right)
	if right != left {
		sendUpdate(right, left)
	}
}

func (n *ServerNode) recomputeRing() {
	ids := n.conns.PeerIDs()
	n.ringMgr.Recompute(ids)
}

// OnMembershipChanged implements discovery.ringRecomputer: a new peer
// connection triggers a ring recompute and a fresh election.
func (n *ServerNode) OnMembershipChanged() {
	n.recomputeRing()
	if n.ringMgr.Eligible() {
		observability.ElectionRoundsStarted.Inc()
		n.elec.StartElection(0)
	} else {
		n.SetLeader(n.self)
		n.SetState(domain.Leader)
	}
}

// ConnectToPeer implements discovery.peerConnector: dial an advertised
// peer, perform the SERVER_JOIN handshake, and register the
// connection and its receive loop.
func (n *ServerNode) ConnectToPeer(ip string, port int, theirID domain.NodeID) error {
	nc, err := transport.ConnectTo(ip, port)
	if err != nil {
		return err
	}
	conn := transport.WrapConn(theirID, nc)

	join := domain.NewMessage(domain.ServerJoin, n.self)
	if err := conn.Send(join); err != nil {
		conn.Close()
		return err
	}

	n.registerPeerConn(theirID, conn)
	n.OnMembershipChanged()
	return nil
}

func (n *ServerNode) registerPeerConn(id domain.NodeID, conn *transport.Conn) {
	kept, dup := n.conns.AddPeer(id, conn)
	if dup {
		log.Printf("[node] %v: %s, keeping existing connection", domain.ErrDuplicatePeer, id)
		conn.Close()
		return
	}
	observability.PeerConnections.Inc()
	n.fd.Monitor(failuredetector.KindServer, id)

	go transport.ReceiveLoop(n.ctx, kept, func(msg domain.Message) {
		n.Dispatch(msg, id)
	}, func() {
		n.onPeerFailure(id)
	})
}

// AcceptPeerOrClient handles one freshly accepted TCP connection: the
// first message on it tells us whether it's a peer or a client.
func (n *ServerNode) AcceptPeerOrClient(nc net.Conn) {
	conn := transport.WrapConn("", nc)
	first, err := conn.Receive()
	if err != nil {
		conn.Close()
		return
	}

	switch first.Type {
	case domain.ServerJoin:
		conn.SetID(first.SenderID)
		n.registerPeerConn(first.SenderID, conn)
		n.OnMembershipChanged()
	case domain.ClientJoin:
		conn.SetID(first.SenderID)
		n.conns.AddClient(first.SenderID, conn)
		observability.ClientConnections.Inc()
		n.fd.Monitor(failuredetector.KindClient, first.SenderID)
		go transport.ReceiveLoop(n.ctx, conn, func(msg domain.Message) {
			n.Dispatch(msg, first.SenderID)
		}, func() {
			n.onClientFailure(first.SenderID)
		})
	default:
		n.Dispatch(first, first.SenderID)
		go transport.ReceiveLoop(n.ctx, conn, func(msg domain.Message) {
			n.Dispatch(msg, first.SenderID)
		}, func() {})
	}
}
