package protocol

import "encoding/json"

// MsgEnvelope frames every message in both directions: a type tag and the
// raw payload, decoded once the handler knows what it is looking at.
type MsgEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
