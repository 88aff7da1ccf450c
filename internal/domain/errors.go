package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Grouped by the
// error taxonomy in SPEC_FULL.md §7.

var (
	// Transport errors: socket send/recv failure.
	ErrMalformedFrame  = errors.New("transport: malformed length-prefixed frame")
	ErrFrameTooLarge   = errors.New("transport: udp datagram exceeds 4096 bytes")
	ErrConnectionClosed = errors.New("transport: connection closed by peer")

	// Protocol errors: malformed JSON, unknown type, missing field.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	ErrMissingRoomID      = errors.New("protocol: message is missing room_id")

	// Membership errors: duplicate peer-id or conflicting endpoint.
	ErrDuplicatePeer = errors.New("membership: peer already connected")

	// Election errors: message with out-of-range k or d.
	ErrElectionOutOfRange = errors.New("election: round or distance out of range")

	// Directory / room errors.
	ErrRoomUnhosted  = errors.New("directory: room has no known host")
	ErrLeaderUnknown = errors.New("directory: no leader elected yet")

	// Ring errors.
	ErrNotInRing = errors.New("ring: self is not a member of the current ring")
)
