package node

import (
	"log"
	"net"

	"github.com/ringmesh/ringchat/internal/domain"
	"github.com/ringmesh/ringchat/internal/infra/directory"
	"github.com/ringmesh/ringchat/internal/infra/discovery"
	"github.com/ringmesh/ringchat/internal/infra/failuredetector"
	"github.com/ringmesh/ringchat/internal/infra/observability"
)

// Dispatch routes one inbound message to the subsystem responsible
// for its type (spec.md §4.8). from is the peer or client id the
// message's connection is registered under, used for heartbeat resets
// and as the election/ring neighbour identity.
func (n *ServerNode) Dispatch(msg domain.Message, from domain.NodeID) {
	switch msg.Type {
	case domain.Chat:
		n.handleChat(msg)
	case domain.JoinRoom:
		n.handleJoinRoom(msg)
	case domain.LeaveRoom:
		n.handleLeaveRoom(msg)
	case domain.ServerJoin, domain.ClientJoin:
		// handled inline in AcceptPeerOrClient/ConnectToPeer for the
		// first message on a new connection; nothing to do later.
	case domain.Election:
		n.elec.HandleMessage(msg, from)
	case domain.Heartbeat:
		n.handleHeartbeat(msg, from)
	case domain.MetadataUpdate:
		n.handleMetadataUpdate(msg)
	case domain.UpdateNeighbour:
		n.handleUpdateNeighbour(msg)
	case domain.DiscoveryRequest:
		n.HandleDiscoveryRequest(msg)
	case domain.AvailableRooms:
		n.handleForwardedDiscovery(msg)
	case domain.ServerDiscovery:
		// owned entirely by the discovery service's UDP receive loop.
	default:
		log.Printf("[node] %v: %q from %s, discarding", domain.ErrUnknownMessageType, msg.Type, msg.SenderID)
	}
}

func (n *ServerNode) handleChat(msg domain.Message) {
	if msg.RoomID == "" {
		log.Printf("[node] CHAT from %s: %v, discarding", msg.SenderID, domain.ErrMissingRoomID)
		return
	}
	r, ok := n.rooms.Get(msg.RoomID)
	if !ok {
		log.Printf("[node] CHAT for room %s: %v, discarding", msg.RoomID, domain.ErrRoomUnhosted)
		return
	}
	r.HandleChat(msg, n.conns)
	observability.MessagesDelivered.WithLabelValues(msg.RoomID).Inc()
}

func (n *ServerNode) handleJoinRoom(msg domain.Message) {
	if msg.RoomID == "" {
		log.Printf("[node] JOIN_ROOM from %s: %v, discarding", msg.SenderID, domain.ErrMissingRoomID)
		return
	}
	r, existed := n.rooms.Get(msg.RoomID)
	if !existed {
		r = n.rooms.CreateRoom(msg.RoomID, n.self)
		if n.IsLeader() {
			n.dirStore.Upsert(msg.RoomID, n.self)
		} else {
			n.dirFollower.RecordLocalRoom(msg.RoomID, n.sendToLeader)
		}
	}
	r.Join(msg.SenderID)
}

func (n *ServerNode) handleLeaveRoom(msg domain.Message) {
	if r, ok := n.rooms.Get(msg.RoomID); ok {
		r.Leave(msg.SenderID)
	}
}

func (n *ServerNode) handleHeartbeat(msg domain.Message, from domain.NodeID) {
	if _, isClient := n.conns.Client(from); isClient {
		n.fd.Reset(failuredetector.KindClient, from)
		return
	}
	n.fd.Reset(failuredetector.KindServer, from)
}

func (n *ServerNode) handleMetadataUpdate(msg domain.Message) {
	p, err := directory.Decode(msg.Content)
	if err != nil {
		log.Printf("[node] malformed METADATA_UPDATE from %s: %v", msg.SenderID, err)
		return
	}
	switch p.Kind {
	case directory.KindUpdateRoom:
		if n.IsLeader() {
			n.dirLeader.HandleUpdateRoom(p)
		}
	case directory.KindSyncRooms:
		n.dirFollower.HandleSync(p)
	}
	snapshot, _ := n.dirStore.Snapshot()
	observability.DirectorySize.Set(float64(len(snapshot)))
}

func (n *ServerNode) handleUpdateNeighbour(msg domain.Message) {
	log.Printf("[node] ring repair notice from %s: new neighbour %s", msg.SenderID, msg.Content)
	n.recomputeRing()
	if n.ringMgr.Eligible() {
		observability.ElectionRoundsStarted.Inc()
		n.elec.StartElection(0)
	}
}

func (n *ServerNode) sendToLeader(msg domain.Message) error {
	leader := n.LeaderID()
	if leader == "" {
		return domain.ErrLeaderUnknown
	}
	return n.conns.SendToPeer(leader, msg)
}

// HandleDiscoveryRequest implements discovery.requestHandler and the
// client-facing side of §4.2: if this node is the leader, reply
// directly over UDP with the directory; otherwise forward the
// client's return address to the leader over TCP.
func (n *ServerNode) HandleDiscoveryRequest(msg domain.Message) {
	if n.IsLeader() {
		n.replyAvailableRooms(msg.SenderAddr)
		return
	}
	if msg.SenderAddr == nil {
		return
	}
	if n.LeaderID() == "" {
		log.Printf("[node] discovery request from %s: %v", msg.SenderID, domain.ErrLeaderUnknown)
		return
	}
	fwd := domain.NewMessage(domain.AvailableRooms, n.self)
	fwd.Content = discovery.EncodeClientDiscoveryForward(msg.SenderAddr.IP.String(), msg.SenderAddr.Port)
	if err := n.conns.SendToPeer(n.LeaderID(), fwd); err != nil {
		log.Printf("[node] forward discovery request to leader failed: %v", err)
	}
}

// handleForwardedDiscovery is the leader's side of a follower's
// forwarded client discovery request.
func (n *ServerNode) handleForwardedDiscovery(msg domain.Message) {
	if !n.IsLeader() {
		return
	}
	f, err := discovery.DecodeClientDiscoveryForward(msg.Content)
	if err != nil {
		log.Printf("[node] malformed forwarded discovery from %s: %v", msg.SenderID, err)
		return
	}
	n.replyAvailableRoomsTo(f.ClientIP, f.ClientPort)
}

// replyAvailableRooms answers a client's UDP DISCOVERY_REQUEST
// directly, using its return address.
func (n *ServerNode) replyAvailableRooms(clientAddr *net.UDPAddr) {
	if clientAddr == nil {
		return
	}
	n.replyAvailableRoomsTo(clientAddr.IP.String(), clientAddr.Port)
}

func (n *ServerNode) replyAvailableRoomsTo(ip string, port int) {
	rooms, _ := n.dirStore.Snapshot()
	servers := n.knownServerEndpoints()

	msg := domain.NewMessage(domain.AvailableRooms, n.self)
	msg.Content = discovery.EncodeAvailableRooms(discovery.AvailableRoomsPayload{Rooms: rooms, Servers: servers})

	if err := n.udpSock.SendTo(msg, &net.UDPAddr{IP: net.ParseIP(ip), Port: port}); err != nil {
		log.Printf("[node] reply AVAILABLE_ROOMS to %s:%d failed: %v", ip, port, err)
	}
}

// knownServerEndpoints reports only this node's own advertised
// endpoint. Discovery does not retain peers' advertised endpoints, so
// rooms hosted on other servers get no endpoint entry here.
func (n *ServerNode) knownServerEndpoints() map[domain.NodeID]domain.Endpoint {
	return map[domain.NodeID]domain.Endpoint{n.self: n.addr}
}
