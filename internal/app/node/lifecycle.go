package node

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/ringmesh/ringchat/internal/domain"
	"github.com/ringmesh/ringchat/internal/infra/observability"
	"github.com/ringmesh/ringchat/internal/infra/transport"
)

// Start brings a constructed ServerNode fully online: it binds the TCP
// listener, launches the accept loop, the discovery service, the
// failure-detector's heartbeat loop, and the leader's directory sync
// loop, creates the configured number of rooms, and announces itself
// on the discovery socket. It returns once the TCP listener is bound;
// everything else runs on background goroutines until ctx is
// cancelled.
func (n *ServerNode) Start(ctx context.Context) error {
	n.ctx, n.cancel = context.WithCancel(ctx)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", n.cfg.Network.TCPPort))
	if err != nil {
		return fmt.Errorf("listen tcp :%d: %w", n.cfg.Network.TCPPort, err)
	}

	for i := 0; i < n.cfg.Rooms.NumRooms; i++ {
		roomID := fmt.Sprintf("room-%d", i)
		n.rooms.CreateRoom(roomID, n.self)
		if n.IsLeader() {
			n.dirStore.Upsert(roomID, n.self)
		} else {
			n.dirFollower.RecordLocalRoom(roomID, n.sendToLeader)
		}
	}

	go transport.AcceptLoop(n.ctx, ln, n.AcceptPeerOrClient)
	go n.disc.Run(n.ctx)
	go n.fd.Run(n.ctx, n.sendHeartbeats)
	go n.runDirectorySync(n.ctx)

	n.disc.Announce()
	return nil
}

// Stop cancels every background loop and releases the node's sockets.
func (n *ServerNode) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	n.Close()
}

// sendHeartbeats implements the fan-out rule of spec.md §4.5: a
// follower heartbeats its two ring neighbours plus the leader: the
// leader heartbeats every connected peer directly, since it has no
// ring neighbours to rely on for timely failure detection.
func (n *ServerNode) sendHeartbeats() {
	hb := domain.NewMessage(domain.Heartbeat, n.self)

	if n.IsLeader() {
		n.conns.BroadcastToPeers(hb)
		observability.HeartbeatsSent.WithLabelValues("leader_broadcast").Inc()
		return
	}

	targets := map[domain.NodeID]bool{}
	if left, right, err := n.ringMgr.Neighbours(); err == nil {
		if left != n.self {
			targets[left] = true
		}
		if right != n.self {
			targets[right] = true
		}
	}
	if leader := n.LeaderID(); leader != "" && leader != n.self {
		targets[leader] = true
	}
	for id := range targets {
		if err := n.conns.SendToPeer(id, hb); err != nil {
			log.Printf("[node] heartbeat to %s failed: %v", id, err)
			continue
		}
		observability.HeartbeatsSent.WithLabelValues("follower").Inc()
	}
}

// runDirectorySync drives the leader's periodic SYNC_ROOMS push. It
// checks IsLeader on every tick, so that a node which loses leadership
// mid-run stops pushing instead of broadcasting a stale directory as
// if authoritative.
func (n *ServerNode) runDirectorySync(ctx context.Context) {
	interval := n.cfg.Directory.SyncInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n.IsLeader() {
				n.dirLeader.PushIfChanged()
				observability.DirectorySyncsPushed.Inc()
			}
		}
	}
}
