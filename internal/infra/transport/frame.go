// Package transport implements the wire-level I/O primitives: 4-byte
// big-endian length-prefixed JSON frames over TCP, and one-JSON-object-
// per-datagram UDP messaging (SPEC_FULL.md §4.1).
package transport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/ringmesh/ringchat/internal/domain"
)

// MaxUDPDatagram is the ceiling enforced on outbound UDP payloads.
const MaxUDPDatagram = 4096

// WriteFrame encodes msg as JSON and writes it to w prefixed by its
// 4-byte big-endian length.
func WriteFrame(w io.Writer, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadFrame blocks until a full length-prefixed frame has arrived on
// r, accumulating partial reads, and decodes it into a Message. A
// stream closed before a header surfaces as io.EOF (io.ErrUnexpectedEOF
// if it closes mid-frame) and a zero-length frame as ErrMalformedFrame;
// the receive loop treats any of these as peer loss per SPEC_FULL.md §4.1.
func ReadFrame(r io.Reader) (domain.Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return domain.Message{}, err
	}

	n := binary.BigEndian.Uint32(header[:])
	if n == 0 {
		return domain.Message{}, domain.ErrMalformedFrame
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	return msg, nil
}

// EncodeUDP marshals msg for a single datagram, rejecting payloads
// that would exceed MaxUDPDatagram.
func EncodeUDP(msg domain.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode datagram: %w", err)
	}
	if len(data) > MaxUDPDatagram {
		return nil, domain.ErrFrameTooLarge
	}
	return data, nil
}

// DecodeUDP parses a single received datagram into a Message and
// stamps it with the sender's address.
func DecodeUDP(data []byte, from *net.UDPAddr) (domain.Message, error) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	msg.SenderAddr = from
	return msg, nil
}
