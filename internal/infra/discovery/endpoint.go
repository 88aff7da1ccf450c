package discovery

import (
	"encoding/json"

	"github.com/ringmesh/ringchat/internal/domain"
)

func encodeEndpoint(ep domain.Endpoint) string {
	b, _ := json.Marshal(ep)
	return string(b)
}

func decodeEndpoint(s string) (domain.Endpoint, error) {
	var ep domain.Endpoint
	err := json.Unmarshal([]byte(s), &ep)
	return ep, err
}

// AvailableRoomsPayload is the content of an AVAILABLE_ROOMS message:
// the leader's room directory plus a server-id to endpoint address
// book. The node fills Servers with its own endpoint only, so a room
// hosted on another server has no matching Servers entry.
type AvailableRoomsPayload struct {
	Rooms   map[string]domain.NodeID      `json:"rooms"`
	Servers map[domain.NodeID]domain.Endpoint `json:"servers"`
}

func EncodeAvailableRooms(p AvailableRoomsPayload) string {
	b, _ := json.Marshal(p)
	return string(b)
}

func DecodeAvailableRooms(s string) (AvailableRoomsPayload, error) {
	var p AvailableRoomsPayload
	err := json.Unmarshal([]byte(s), &p)
	return p, err
}

// ClientDiscoveryForward is what a non-leader server sends over TCP
// to the leader when it hears a client's DISCOVERY_REQUEST: the
// client's UDP return address, so the leader can reply directly.
type ClientDiscoveryForward struct {
	ClientIP   string `json:"client_ip"`
	ClientPort int    `json:"client_port"`
}

func EncodeClientDiscoveryForward(ip string, port int) string {
	b, _ := json.Marshal(ClientDiscoveryForward{ClientIP: ip, ClientPort: port})
	return string(b)
}

func DecodeClientDiscoveryForward(s string) (ClientDiscoveryForward, error) {
	var f ClientDiscoveryForward
	err := json.Unmarshal([]byte(s), &f)
	return f, err
}
