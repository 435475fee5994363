// Package probe carries packet observations from the capture process to the
// engine over NATS. The wire format is a gob-encoded envelope; both ends of
// the link are this module, so a self-describing schema buys nothing.
package probe

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"FlowSentry/internal/model"
)

// Envelope is the unit published per captured packet.
type Envelope struct {
	Tuple model.FiveTuple
	Obs   model.PacketObservation
}

// Encode serializes the envelope for publishing.
func Encode(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a published envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return &env, nil
}
