package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altukhov/jarship/internal/lg"
)

type capturingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *capturingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *capturingWriter) Close() error { return nil }

func TestPublishWritesJSONKeyedByRunID(t *testing.T) {
	writer := &capturingWriter{}
	pub := &KafkaPublisher{writer: writer, lg: lg.Discard}

	runID := uuid.New()
	ev := Event{
		RunID:    runID,
		Kind:     KindFailed,
		Target:   "staging",
		Host:     "10.0.0.5",
		Artifact: "demo.jar",
		Stage:    "process-started",
		Reason:   "port 8070 not listening after 30 attempts",
		Time:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, runID[:], []byte(msg.Key))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestPublishReturnsWriterError(t *testing.T) {
	writer := &capturingWriter{err: fmt.Errorf("broker unreachable")}
	pub := &KafkaPublisher{writer: writer, lg: lg.Discard}

	err := pub.Publish(context.Background(), Event{RunID: uuid.New(), Kind: KindSucceeded})
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = Noop{}

	assert.NoError(t, pub.Publish(context.Background(), Event{}))
	assert.NoError(t, pub.Close())
}
