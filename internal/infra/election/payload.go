package election

import (
	"encoding/json"

	"github.com/ringmesh/ringchat/internal/domain"
)

// encode/decode carry a Payload inside domain.Message.Content as JSON,
// replacing the original implementation's Python-literal stringified
// dict with something a non-Python reader can parse.
func encode(p Payload) string {
	b, _ := json.Marshal(p)
	return string(b)
}

func decode(s string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Payload{}, err
	}
	if p.K < 0 || p.D < 0 {
		return Payload{}, domain.ErrElectionOutOfRange
	}
	return p, nil
}
