// Package events publishes per-dispatch outcome records for downstream
// consumers (delivery dashboards, CRM activity feeds). Publishing is
// best-effort: a broker outage never fails a dispatch.
package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const dispatchQueue = "dispatch_events"

// DispatchEvent records one delivery attempt.
type DispatchEvent struct {
	BatchID string    `json:"batch_id"`
	JobID   *int      `json:"job_id,omitempty"`
	To      string    `json:"to"`
	Status  string    `json:"status"` // sent | failed
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	DispatchAttempted(ev DispatchEvent)
	Close()
}

// New connects to RabbitMQ when a URL is configured, otherwise returns
// a no-op publisher.
func New(amqpURL string, log zerolog.Logger) Publisher {
	if amqpURL == "" {
		log.Debug().Msg("AMQP not configured, dispatch events disabled")
		return &noopPublisher{}
	}
	pub, err := newAMQP(amqpURL, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to AMQP, dispatch events disabled")
		return &noopPublisher{}
	}
	return pub
}

type amqpPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  zerolog.Logger
}

func newAMQP(url string, log zerolog.Logger) (*amqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		dispatchQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &amqpPublisher{conn: conn, ch: ch, log: log}, nil
}

func (p *amqpPublisher) DispatchAttempted(ev DispatchEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to marshal dispatch event")
		return
	}
	err = p.ch.Publish(
		"",
		dispatchQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.log.Warn().Err(err).Str("to", ev.To).Msg("failed to publish dispatch event")
	}
}

func (p *amqpPublisher) Close() {
	p.ch.Close()
	p.conn.Close()
}

type noopPublisher struct{}

func (*noopPublisher) DispatchAttempted(DispatchEvent) {}
func (*noopPublisher) Close()                          {}
