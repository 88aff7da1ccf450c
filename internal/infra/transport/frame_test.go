package transport

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/ringmesh/ringchat/internal/domain"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := domain.NewMessage(domain.Chat, "A")
	msg.RoomID = "R"
	msg.Content = "hi"

	if err := WriteFrame(&buf, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Type != msg.Type || got.RoomID != msg.RoomID || got.Content != msg.Content {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
	}
}

func TestReadFramePartialThenFull(t *testing.T) {
	var buf bytes.Buffer
	msg := domain.NewMessage(domain.Heartbeat, "A")
	if err := WriteFrame(&buf, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	full := buf.Bytes()

	// Feed the frame one byte at a time so ReadFrame has to accumulate
	// partial reads of both the header and the body.
	r := iotest.OneByteReader(bytes.NewReader(full))
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.SenderID != "A" {
		t.Fatalf("SenderID = %q, want A", got.SenderID)
	}
}

func TestReadFrameClosedStream(t *testing.T) {
	r := bytes.NewReader(nil)
	_, err := ReadFrame(r)
	if err != io.EOF {
		t.Fatalf("ReadFrame on empty stream = %v, want io.EOF", err)
	}
}

func TestEncodeUDPRejectsOversizedPayload(t *testing.T) {
	msg := domain.NewMessage(domain.Chat, "A")
	msg.Content = string(make([]byte, MaxUDPDatagram+1))
	if _, err := EncodeUDP(msg); err != domain.ErrFrameTooLarge {
		t.Fatalf("EncodeUDP error = %v, want ErrFrameTooLarge", err)
	}
}
