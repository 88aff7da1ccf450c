package directory

import (
	"log"
	"time"

	"github.com/ringmesh/ringchat/internal/domain"
)

// DefaultSyncInterval is the leader's periodic SYNC_ROOMS cadence.
const DefaultSyncInterval = 10 * time.Second

// broadcaster is the minimal capability the sync loop needs: send a
// directory message to every follower.
type broadcaster interface {
	BroadcastToPeers(msg domain.Message)
}

// Leader drives the leader side of directory replication: apply
// incoming UPDATE_ROOM writes and periodically (or on demand) push
// SYNC_ROOMS to followers, skipping pushes when nothing changed since
// the last one.
type Leader struct {
	self       domain.NodeID
	store      *Store
	bus        broadcaster
	lastPushed uint64
}

// NewLeader wires a directory store to the peer broadcast channel for
// leader-side replication.
func NewLeader(self domain.NodeID, store *Store, bus broadcaster) *Leader {
	return &Leader{self: self, store: store, bus: bus}
}

// HandleUpdateRoom applies a follower's UPDATE_ROOM write.
func (l *Leader) HandleUpdateRoom(p Payload) {
	l.store.Upsert(p.RoomID, p.ServerID)
}

// PushIfChanged sends SYNC_ROOMS to all peers unless the directory is
// unchanged since the last push.
func (l *Leader) PushIfChanged() {
	snapshot, gen := l.store.Snapshot()
	if gen == l.lastPushed {
		return
	}
	l.lastPushed = gen

	msg := domain.NewMessage(domain.MetadataUpdate, l.self)
	msg.Content = Encode(Payload{Kind: KindSyncRooms, Snapshot: snapshot, Generation: gen})
	l.bus.BroadcastToPeers(msg)
}

// Follower applies writes locally and forwards them to the leader,
// and replaces its cache wholesale on SYNC_ROOMS.
type Follower struct {
	self  domain.NodeID
	store *Store
}

// NewFollower wires a directory store for follower-side replication.
func NewFollower(self domain.NodeID, store *Store) *Follower {
	return &Follower{self: self, store: store}
}

// sendToLeader is supplied by the node dispatcher, which knows the
// current leader id and how to reach it over TCP.
type sendToLeader func(msg domain.Message) error

// RecordLocalRoom sets the local cache entry for a room this node
// hosts and, since it isn't the leader, forwards the write upstream.
func (f *Follower) RecordLocalRoom(roomID string, toLeader sendToLeader) {
	f.store.Upsert(roomID, f.self)
	msg := domain.NewMessage(domain.MetadataUpdate, f.self)
	msg.Content = Encode(Payload{Kind: KindUpdateRoom, RoomID: roomID, ServerID: f.self})
	if err := toLeader(msg); err != nil {
		log.Printf("[directory] forward UPDATE_ROOM to leader failed: %v", err)
	}
}

// HandleSync replaces the local cache with the leader's pushed
// snapshot.
func (f *Follower) HandleSync(p Payload) {
	f.store.Replace(p.Snapshot)
}
