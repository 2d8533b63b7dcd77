package events

import "encoding/json"

// WireEvent is the serialized form of an Event sent to a subscriber over
// whatever transport sits on top of the in-process seam. It matches the
// field names named in the subscription protocol exactly.
type WireEvent struct {
	JobID       string `json:"job_id"`
	AgentKey    string `json:"agent_key"`
	Kind        string `json:"kind"`
	Payload     string `json:"payload,omitempty"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// ToWire converts an Event to its wire representation.
func ToWire(e Event) WireEvent {
	return WireEvent{
		JobID:       e.JobID,
		AgentKey:    e.AgentKey,
		Kind:        string(e.Kind),
		Payload:     e.Payload,
		TimestampMS: e.TimestampMS,
	}
}

// MarshalJSON renders e in its wire form, for transports or logs that
// want JSON lines.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToWire(e))
}
