package actions

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the persisted wire shape of an action. Field names match the
// document the mobile app wrote to device storage, so a queue captured by an
// older client loads unchanged.
type envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
	GPSCoords  *GPSCoords      `json:"gpsCoords,omitempty"`
	RetryCount int             `json:"retryCount"`
	MaxRetries int             `json:"maxRetries"`
}

// MarshalJSON encodes the action as a type-tagged envelope.
func (a Action) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", a.Payload.Kind(), err)
	}
	return json.Marshal(envelope{
		ID:         a.ID,
		Type:       a.Payload.Kind(),
		Payload:    payload,
		Timestamp:  a.Timestamp,
		GPSCoords:  a.GPSCoords,
		RetryCount: a.RetryCount,
		MaxRetries: a.MaxRetries,
	})
}

// UnmarshalJSON decodes a type-tagged envelope back into the matching
// payload struct.
func (a *Action) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	payload, err := ParsePayload(env.Type, env.Payload)
	if err != nil {
		return err
	}

	a.ID = env.ID
	a.Payload = payload
	a.Timestamp = env.Timestamp
	a.GPSCoords = env.GPSCoords
	a.RetryCount = env.RetryCount
	a.MaxRetries = env.MaxRetries
	return nil
}

// ParsePayload decodes a raw JSON payload into the concrete struct for the
// given action type. Unknown types are an error so corrupt documents are
// detected at load time rather than at replay time.
func ParsePayload(typ Type, raw json.RawMessage) (Payload, error) {
	var dst Payload
	switch typ {
	case TypeClockIn:
		dst = &ClockIn{}
	case TypeClockOut:
		dst = &ClockOut{}
	case TypeBreakStart:
		dst = &BreakStart{}
	case TypeBreakEnd:
		dst = &BreakEnd{}
	case TypeStatusUpdate:
		dst = &StatusUpdate{}
	case TypeAddNote:
		dst = &AddNote{}
	case TypeAddPhoto:
		dst = &AddPhoto{}
	default:
		return nil, fmt.Errorf("unknown action type: %q", typ)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", typ, err)
	}
	return deref(dst), nil
}

// deref converts the pointer used for decoding back to the value form the
// rest of the code works with.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *ClockIn:
		return *v
	case *ClockOut:
		return *v
	case *BreakStart:
		return *v
	case *BreakEnd:
		return *v
	case *StatusUpdate:
		return *v
	case *AddNote:
		return *v
	case *AddPhoto:
		return *v
	}
	return p
}
