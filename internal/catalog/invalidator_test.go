package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader replays queued messages, then blocks until the context ends.
type fakeReader struct {
	messages chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

// closedReader fails every read, like a reader closed underneath the loop.
type closedReader struct {
	reads atomic.Int32
}

func (r *closedReader) ReadMessage(context.Context) (kafka.Message, error) {
	r.reads.Add(1)
	return kafka.Message{}, errors.New("kafka: reader closed")
}

func (r *closedReader) Close() error { return nil }

func TestInvalidator_DropsCachedCollections(t *testing.T) {
	m := &mockCatalogAPI{}
	s := NewService(m, NewMemoryCache(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := s.HomeCollections(ctx)
	require.NoError(t, err)

	reader := &fakeReader{messages: make(chan kafka.Message, 2)}
	inv := &Invalidator{service: s, reader: reader}
	go inv.Run(ctx)

	reader.messages <- kafka.Message{Value: []byte("not json")}
	reader.messages <- kafka.Message{Value: []byte(`{"event":"product-updated","product_id":"p1"}`)}

	require.Eventually(t, func() bool {
		_, err := s.cache.Get(ctx)
		return errors.Is(err, ErrCacheMiss)
	}, time.Second, 10*time.Millisecond)

	_, err = s.HomeCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), m.homeCalls.Load())
}

func TestInvalidator_StopsOnCancel(t *testing.T) {
	s := NewService(&mockCatalogAPI{}, NewMemoryCache(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	inv := &Invalidator{service: s, reader: &fakeReader{messages: make(chan kafka.Message)}}

	done := make(chan struct{})
	go func() {
		inv.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("invalidator did not stop")
	}
}

func TestInvalidator_PausesAfterReadError(t *testing.T) {
	s := NewService(&mockCatalogAPI{}, NewMemoryCache(time.Hour))
	reader := &closedReader{}
	inv := &Invalidator{service: s, reader: reader, retryDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	inv.Run(ctx)

	assert.GreaterOrEqual(t, reader.reads.Load(), int32(1))
	assert.LessOrEqual(t, reader.reads.Load(), int32(4))
}
