package probe

import (
	"log"

	"github.com/nats-io/nats.go"

	"FlowSentry/internal/config"
)

// EnvelopeHandler processes a received packet envelope.
type EnvelopeHandler func(env *Envelope)

// Subscriber receives packet envelopes from a NATS subject.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber connects to NATS using the probe configuration.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes and hands every decoded envelope to the handler.
// Malformed messages are logged and dropped.
func (s *Subscriber) Start(handler EnvelopeHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		env, err := Decode(msg.Data)
		if err != nil {
			log.Printf("Error decoding envelope: %v", err)
			return
		}
		handler(env)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
