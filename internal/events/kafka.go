package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards bus events to a kafka topic for analytics.
// Handle never blocks the publisher; events overflowing the buffer are dropped.
type KafkaSink struct {
	writer  messageWriter
	queue   chan record
	timeout time.Duration
}

type record struct {
	deviceID string
	event    Event
}

func NewKafkaSink(topic string, brokers ...string) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaSink(w, 256)
}

func newKafkaSink(w messageWriter, buffer int) *KafkaSink {
	return &KafkaSink{
		writer:  w,
		queue:   make(chan record, buffer),
		timeout: 5 * time.Second,
	}
}

type envelope struct {
	Event      string    `json:"event"`
	DeviceID   string    `json:"device_id,omitempty"`
	Payload    Event     `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *KafkaSink) Handle(e Event) {
	s.enqueue(record{event: e})
}

// ForDevice returns a handler tagging events with the device they came from.
// Messages of one device share a partition key.
func (s *KafkaSink) ForDevice(deviceID string) Handler {
	return func(e Event) {
		s.enqueue(record{deviceID: deviceID, event: e})
	}
}

func (s *KafkaSink) enqueue(r record) {
	select {
	case s.queue <- r:
	default:
		slog.Warn("event sink buffer full, dropping event", "event", r.event.Name(), "device_id", r.deviceID)
	}
}

// Run drains the queue until ctx is done.
func (s *KafkaSink) Run(ctx context.Context) {
	for {
		select {
		case r := <-s.queue:
			s.publish(ctx, r)
		case <-ctx.Done():
			return
		}
	}
}

func (s *KafkaSink) publish(ctx context.Context, r record) {
	e := r.event
	value, err := json.Marshal(envelope{Event: e.Name(), DeviceID: r.deviceID, Payload: e, OccurredAt: time.Now().UTC()})
	if err != nil {
		slog.Error("failed to marshal event", "event", e.Name(), "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	key := r.deviceID
	if key == "" {
		key = e.Name()
	}
	if err := s.writer.WriteMessages(writeCtx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		slog.Error("failed to publish event", "event", e.Name(), "error", err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
