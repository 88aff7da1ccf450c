// Package directory maintains the room-id to hosting-server-id map
// with eventual consistency across the cluster (SPEC_FULL.md §4.7):
// writes flow to the leader, the leader periodically and on-demand
// pushes a full snapshot to followers.
package directory

import (
	"encoding/json"
	"sync"

	"github.com/ringmesh/ringchat/internal/domain"
)

// Kind tags the two METADATA_UPDATE wire variants, replacing the
// original's "Update Room <id>" / "Sync Room<json>" string splitting.
type Kind string

const (
	KindUpdateRoom Kind = "UPDATE_ROOM"
	KindSyncRooms  Kind = "SYNC_ROOMS"
)

// Payload is the tagged content carried inside a domain.Message of
// type domain.MetadataUpdate.
type Payload struct {
	Kind       Kind                     `json:"kind"`
	RoomID     string                   `json:"room_id,omitempty"`
	ServerID   domain.NodeID            `json:"server_id,omitempty"`
	Generation uint64                   `json:"generation,omitempty"`
	Snapshot   map[string]domain.NodeID `json:"snapshot,omitempty"`
}

// Encode/Decode marshal a Payload to/from the Message.Content string.
func Encode(p Payload) string {
	b, _ := json.Marshal(p)
	return string(b)
}

func Decode(s string) (Payload, error) {
	var p Payload
	err := json.Unmarshal([]byte(s), &p)
	return p, err
}

// Store is the in-memory room-id -> server-id map. It carries no
// durability: a node that restarts starts with an empty directory and
// waits for a SYNC (non-goal: persistence across crashes).
type Store struct {
	mu         sync.RWMutex
	entries    map[string]domain.NodeID
	generation uint64
}

// NewStore returns an empty directory.
func NewStore() *Store {
	return &Store{entries: map[string]domain.NodeID{}}
}

// Upsert records (or overwrites) the host of a room, last-write-wins,
// and bumps the generation counter so a pending sync isn't skipped as
// a no-op.
func (s *Store) Upsert(roomID string, server domain.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[roomID] = server
	s.generation++
}

// Get returns the hosting server for a room, if known.
func (s *Store) Get(roomID string) (domain.NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.entries[roomID]
	return id, ok
}

// Snapshot returns a defensive copy of the full directory and the
// generation it was taken at.
func (s *Store) Snapshot() (map[string]domain.NodeID, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.NodeID, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, s.generation
}

// Replace overwrites the entire directory, as a follower does when it
// receives a SYNC_ROOMS push. No reconciliation: the pushed snapshot
// always wins.
func (s *Store) Replace(snapshot map[string]domain.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.NodeID, len(snapshot))
	for k, v := range snapshot {
		s.entries[k] = v
	}
	s.generation++
}

// Generation reports the current write generation, used by the
// leader's sync loop to skip pushing an unchanged snapshot.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
