// Package events publishes deployment outcomes to Kafka so downstream
// systems (dashboards, notifiers) can react without polling the history
// store. Publishing is optional; with no brokers configured the orchestrator
// gets a noop publisher.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/altukhov/jarship/internal/lg"
)

// Event is one deployment lifecycle notification.
type Event struct {
	RunID    uuid.UUID `json:"runID"`
	Kind     string    `json:"kind"` // "started", "succeeded", "failed"
	Target   string    `json:"target"`
	Host     string    `json:"host"`
	Artifact string    `json:"artifact"`
	Stage    string    `json:"stage"`
	Reason   string    `json:"reason,omitempty"`
	Time     time.Time `json:"time"`
}

const (
	KindStarted   = "started"
	KindSucceeded = "succeeded"
	KindFailed    = "failed"
)

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per event, keyed by run ID so all
// events of a run land in the same partition.
type KafkaPublisher struct {
	writer messageWriter
	lg     lg.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, logger lg.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			Async:                  false,
			AllowAutoTopicCreation: true,
		},
		lg: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   ev.RunID[:],
		Value: value,
		Time:  ev.Time,
	})
	if err != nil {
		p.lg.Error("failed to publish deployment event",
			lg.String("kind", ev.Kind), lg.Err(err))
	}
	return err
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// Noop is the publisher used when events are not configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
