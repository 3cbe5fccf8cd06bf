package storefront

import (
	"sync"

	"github.com/fjod/go_cart/storefront/internal/events"
)

const inboxSize = 50

// Inbox buffers the notifications shown to the shopper until the UI drains
// them. The oldest entries are dropped when the buffer is full.
type Inbox struct {
	mu    sync.Mutex
	items []events.Notification
}

func (i *Inbox) add(n events.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = append(i.items, n)
	if over := len(i.items) - inboxSize; over > 0 {
		i.items = append(i.items[:0:0], i.items[over:]...)
	}
}

// Drain returns and forgets the pending notifications.
func (i *Inbox) Drain() []events.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.items
	if out == nil {
		out = []events.Notification{}
	}
	i.items = nil
	return out
}
