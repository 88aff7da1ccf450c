package transport

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/ringmesh/ringchat/internal/domain"
)

// UDPSocket wraps a net.UDPConn for the discovery protocol's
// best-effort broadcast/unicast traffic (SPEC_FULL.md §4.1).
type UDPSocket struct {
	conn *net.UDPConn
	port int
}

// ListenUDP binds a UDP socket on port (0 lets the OS choose).
func ListenUDP(port int) (*UDPSocket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", port, err)
	}
	return &UDPSocket{conn: conn, port: conn.LocalAddr().(*net.UDPAddr).Port}, nil
}

// Port returns the bound local port.
func (s *UDPSocket) Port() int { return s.port }

// Close releases the socket.
func (s *UDPSocket) Close() error { return s.conn.Close() }

// Broadcast sends msg to the LAN broadcast address on the given port.
func (s *UDPSocket) Broadcast(msg domain.Message, port int) error {
	data, err := EncodeUDP(msg)
	if err != nil {
		return err
	}
	addr := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	_, err = s.conn.WriteToUDP(data, addr)
	return err
}

// SendTo unicasts msg to a specific address (used for the leader's
// direct AVAILABLE_ROOMS reply).
func (s *UDPSocket) SendTo(msg domain.Message, addr *net.UDPAddr) error {
	data, err := EncodeUDP(msg)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(data, addr)
	return err
}

// ReceiveLoop runs the UDP receive loop until ctx is cancelled,
// dispatching each decoded Message to onMessage. Malformed datagrams
// are logged and skipped, matching the ProtocolError policy of
// SPEC_FULL.md §7 ("log and drop").
func (s *UDPSocket) ReceiveLoop(ctx context.Context, onMessage func(domain.Message)) {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, MaxUDPDatagram)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				return
			}
		}
		msg, err := DecodeUDP(buf[:n], from)
		if err != nil {
			log.Printf("[transport] dropping datagram from %s: %v", from, err)
			continue
		}
		onMessage(msg)
	}
}
