package domain

import "net"

// MessageType is the closed set of wire message tags (SPEC_FULL.md §6).
type MessageType string

const (
	ClientJoin        MessageType = "CLIENT_JOIN"
	ServerJoin        MessageType = "SERVER_JOIN"
	JoinRoom          MessageType = "JOIN_ROOM"
	LeaveRoom         MessageType = "LEAVE_ROOM"
	Chat              MessageType = "CHAT"
	DiscoveryRequest  MessageType = "DISCOVERY_REQUEST"
	DiscoveryResponse MessageType = "DISCOVERY_RESPONSE"
	ServerDiscovery   MessageType = "SERVER_DISCOVERY"
	AvailableRooms    MessageType = "AVAILABLE_ROOMS"
	Election          MessageType = "ELECTION"
	Heartbeat         MessageType = "HEARTBEAT"
	MetadataUpdate    MessageType = "METADATA_UPDATE"
	UpdateNeighbour   MessageType = "UPDATE_NEIGHBOUR"
)

// Message is the tagged union carried over both TCP and UDP. Every
// variant in MessageType reuses this single struct; unused fields are
// left zero and omitted from the wire form.
type Message struct {
	Type        MessageType      `json:"type"`
	MessageID   string           `json:"message_id"`
	Content     string           `json:"content,omitempty"`
	SenderID    NodeID           `json:"sender_id"`
	RoomID      string           `json:"room_id,omitempty"`
	VectorClock map[NodeID]uint64 `json:"vector_clock,omitempty"`

	// SenderAddr is populated by the UDP transport on receive so a
	// handler can reply directly; it never round-trips through JSON.
	SenderAddr *net.UDPAddr `json:"-"`
}

// NewMessage builds a Message with a fresh message id.
func NewMessage(t MessageType, sender NodeID) Message {
	return Message{Type: t, MessageID: NewMessageID(), SenderID: sender}
}

// Clock returns the message's vector clock as a *VectorClock, treating
// a missing clock as empty.
func (m Message) Clock() *VectorClock {
	return VectorClockFrom(m.VectorClock)
}

// WithClock attaches a snapshot of vc to the message and returns it.
func (m Message) WithClock(vc *VectorClock) Message {
	m.VectorClock = vc.Snapshot()
	return m
}
