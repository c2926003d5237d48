package gateway

import (
	"encoding/json"

	"github.com/mathrush/mathrush-go/internal/model"
)

// Envelope is the wire format for every realtime message, both
// directions: an event name plus an event-specific payload
type Envelope struct {
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// encodeEvent marshals an event and its payload into wire bytes
func encodeEvent(event model.EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: data})
}

// decodePayload unmarshals an envelope's payload, mapping malformed
// data to the invalid-payload error
func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return model.ErrInvalidPayload
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return model.ErrInvalidPayload
	}
	return nil
}
