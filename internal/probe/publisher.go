// Package probe streams flushed capture records over NATS so a session can
// be watched live from another host while the pcap file is being written.
package probe

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"SerialScope/internal/config"
	"SerialScope/internal/core/model"
)

// wireRecord is the JSON shape published per record. Payload is base64 on
// the wire per encoding/json's []byte rules.
type wireRecord struct {
	Channel   string    `json:"channel"`
	Payload   []byte    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes capture records to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server.
func NewPublisher(cfg config.ProbeConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish serializes one record to JSON and publishes it.
func (p *Publisher) Publish(rec model.Record) error {
	data, err := json.Marshal(wireRecord{
		Channel:   rec.Channel.String(),
		Payload:   rec.Payload,
		Timestamp: rec.Timestamp,
	})
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
