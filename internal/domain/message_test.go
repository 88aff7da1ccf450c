package domain

import (
	"encoding/json"
	"testing"
)

// TestMessageRoundTrip covers S6: Message{type=CHAT, sender="A", room="R",
// vc={A:1}, content="hi"} survives a JSON round trip with message_id intact.
func TestMessageRoundTrip(t *testing.T) {
	original := NewMessage(Chat, "A")
	original.RoomID = "R"
	original.Content = "hi"
	original.VectorClock = map[NodeID]uint64{"A": 1}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.Type != original.Type || got.MessageID != original.MessageID ||
		got.Content != original.Content || got.SenderID != original.SenderID ||
		got.RoomID != original.RoomID || got.VectorClock["A"] != 1 {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, original)
	}
}

func TestMessageWithClockAndClockAccessor(t *testing.T) {
	vc := VectorClockFrom(map[NodeID]uint64{"A": 3, "B": 1})
	m := NewMessage(Chat, "A").WithClock(vc)

	if m.Clock().At("A") != 3 || m.Clock().At("B") != 1 {
		t.Fatalf("WithClock/Clock round trip lost data: %+v", m.VectorClock)
	}
}
