package ports

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrMalformedEnvelope is returned by MessageBus.Receive for a message that
// is not a valid envelope. The bus stays usable.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is one message on a port.
type Envelope struct {
	Port    string          `json:"port"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageBus carries envelopes between the host UI and labelkit.
// Receive returns io.EOF once the host side is closed.
// Send must be safe for concurrent use.
type MessageBus interface {
	Receive(ctx context.Context) (Envelope, error)
	Send(ctx context.Context, env Envelope) error
	Close() error
}

// NewEnvelope marshals payload onto port.
func NewEnvelope(port string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Port: port, Payload: data}, nil
}

// DecodeEnvelope parses one serialized envelope. Failures wrap
// ErrMalformedEnvelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.Join(ErrMalformedEnvelope, err)
	}
	if env.Port == "" {
		return Envelope{}, errors.Join(ErrMalformedEnvelope, errors.New("missing port"))
	}
	return env, nil
}
