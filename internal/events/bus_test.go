package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "a:"+e.Name()) })
	bus.Subscribe(func(e Event) { got = append(got, "b:"+e.Name()) })

	bus.Publish(OpenAuthModal{Reason: "wishlist"})

	assert.Equal(t, []string{"a:open-auth-modal", "b:open-auth-modal"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })

	bus.Publish(WishlistUpdated{Count: 1})
	unsubscribe()
	bus.Publish(WishlistUpdated{Count: 2})

	assert.Equal(t, 1, calls)
}

func TestOn_FiltersByType(t *testing.T) {
	bus := NewBus()
	var auth []AuthStateChanged
	On(bus, func(e AuthStateChanged) { auth = append(auth, e) })

	bus.Publish(CartUpdated{Count: 3})
	bus.Publish(AuthStateChanged{Authenticated: true, UserID: "u1"})

	require.Len(t, auth, 1)
	assert.Equal(t, "u1", auth[0].UserID)
}

func TestBus_NilPublishIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Info("hello")) })
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func TestKafkaSink_PublishesEvents(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sink.Run(ctx)

	bus := NewBus()
	bus.Subscribe(sink.Handle)
	bus.Publish(OrderPlaced{Reference: "ref-1", InvoiceNumber: "INV-9", Method: "card"})

	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 10*time.Millisecond)

	w.mu.Lock()
	msg := w.msgs[0]
	w.mu.Unlock()
	assert.Equal(t, "order-placed", string(msg.Key))

	var decoded struct {
		Event   string         `json:"event"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "order-placed", decoded.Event)
	assert.Equal(t, "INV-9", decoded.Payload["invoice_number"])
}

func TestKafkaSink_KeysByDevice(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sink.Run(ctx)

	bus := NewBus()
	bus.Subscribe(sink.ForDevice("device-7"))
	bus.Publish(CartUpdated{Count: 2})

	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 10*time.Millisecond)
	w.mu.Lock()
	msg := w.msgs[0]
	w.mu.Unlock()
	assert.Equal(t, "device-7", string(msg.Key))
	assert.Contains(t, string(msg.Value), `"device_id":"device-7"`)
}

func TestKafkaSink_DropsWhenFull(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := newKafkaSink(w, 1)

	sink.Handle(Info("one"))
	assert.NotPanics(t, func() { sink.Handle(Info("two")) })
	assert.Len(t, sink.queue, 1)
}
