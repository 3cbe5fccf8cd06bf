package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultRetryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Invalidator drops the cached landing page collections whenever the backend
// announces a catalog change on kafka.
type Invalidator struct {
	service    *Service
	reader     messageReader
	retryDelay time.Duration
}

type catalogChange struct {
	Event     string `json:"event"`
	ProductID string `json:"product_id,omitempty"`
}

func NewInvalidator(service *Service, topic, groupID string, brokers ...string) *Invalidator {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Invalidator{service: service, reader: reader, retryDelay: defaultRetryDelay}
}

// Run consumes catalog changes until ctx ends. Read failures are retried
// after a pause.
func (i *Invalidator) Run(ctx context.Context) {
	delay := i.retryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	for {
		if ctx.Err() != nil {
			return
		}
		if err := i.consume(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "failed to read catalog change", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// consume handles one message. Only read errors are returned.
func (i *Invalidator) consume(ctx context.Context) error {
	m, err := i.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	var change catalogChange
	if err := json.Unmarshal(m.Value, &change); err != nil {
		slog.WarnContext(ctx, "ignoring malformed catalog change", "offset", m.Offset, "error", err)
		return nil
	}
	if err := i.service.InvalidateCollections(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to invalidate catalog cache", "event", change.Event, "error", err)
		return nil
	}
	slog.DebugContext(ctx, "catalog cache invalidated", "event", change.Event, "product_id", change.ProductID)
	return nil
}

func (i *Invalidator) Close() error {
	return i.reader.Close()
}
