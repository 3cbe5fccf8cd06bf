package checkout

import (
	"context"
	"sync"
	"time"
)

// Countdown is the crypto payment window. While open it loses one tick per
// interval; reaching zero closes it and fires the expiry callback. Closing it
// for any other reason resets it to the full window.
type Countdown struct {
	window   time.Duration
	interval time.Duration

	mu        sync.Mutex
	remaining time.Duration
	open      bool
	onExpire  func()
	cancel    context.CancelFunc
	// identifies the open window a ticker goroutine belongs to
	generation uint64
}

// NewCountdown builds a countdown ticking every interval. A zero interval
// starts no ticker and leaves ticking to the caller.
func NewCountdown(window, interval time.Duration) *Countdown {
	return &Countdown{
		window:    window,
		interval:  interval,
		remaining: window,
	}
}

// Open starts the window from its full length.
func (c *Countdown) Open(onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = c.window
	c.open = true
	c.onExpire = onExpire
	c.generation++
	if c.interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx, c.generation)
}

// Tick advances the countdown by one interval, one second when ticking
// manually. It reports whether this tick expired the window.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	return c.tickLocked()
}

// tickLocked is entered with mu held and releases it.
func (c *Countdown) tickLocked() bool {
	if !c.open {
		c.mu.Unlock()
		return false
	}
	step := c.interval
	if step <= 0 {
		step = time.Second
	}
	c.remaining -= step
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}
	c.remaining = 0
	c.open = false
	onExpire := c.onExpire
	c.onExpire = nil
	c.stopLocked()
	c.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
	return true
}

// Close cancels the window and resets it for the next attempt.
func (c *Countdown) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.open = false
	c.onExpire = nil
	c.remaining = c.window
}

func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Countdown) run(ctx context.Context, generation uint64) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.generation != generation {
				c.mu.Unlock()
				return
			}
			if c.tickLocked() {
				return
			}
		}
	}
}

// stopLocked must be called with mu held.
func (c *Countdown) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
