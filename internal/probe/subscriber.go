package probe

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"SerialScope/internal/config"
	"SerialScope/internal/core/model"
)

// RecordHandler processes one received capture record.
type RecordHandler func(rec model.Record)

// Subscriber receives live capture records from a NATS subject.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber connects to the configured NATS server.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes and dispatches each record to the handler.
func (s *Subscriber) Start(handler RecordHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var wire wireRecord
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			log.Printf("Error unmarshalling record: %v", err)
			return
		}
		ch, err := model.ParseChannel(wire.Channel)
		if err != nil {
			log.Printf("Error in received record: %v", err)
			return
		}
		handler(model.Record{
			Channel:   ch,
			Payload:   wire.Payload,
			Timestamp: wire.Timestamp,
		})
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for records...", s.subject)
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
