package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EnvelopeVersion is the envelope layout Emit writes and consumers accept.
const EnvelopeVersion = 1

var errEmptyData = errors.New("envelope data is empty")

// ActorRef names what caused the event: the job-status hook, the sweep, the
// operator CLI or an admin request.
type ActorRef struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// PayloadEnvelope wraps every event body stored in outbox_events.payload.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload and rejects versions newer than
// EnvelopeVersion and envelopes without data.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version > EnvelopeVersion {
		return env, fmt.Errorf("envelope version %d not supported", env.Version)
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env, errEmptyData
	}
	return env, nil
}
