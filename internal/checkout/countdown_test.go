package checkout

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_ExpiresAfterWindow(t *testing.T) {
	c := NewCountdown(3600*time.Second, 0)
	var expired int
	c.Open(func() { expired++ })

	for i := 0; i < 3599; i++ {
		require.False(t, c.Tick())
	}
	assert.Equal(t, time.Second, c.Remaining())
	assert.True(t, c.IsOpen())

	assert.True(t, c.Tick())
	assert.False(t, c.IsOpen())
	assert.Equal(t, 1, expired)

	assert.False(t, c.Tick())
	assert.Equal(t, 1, expired)
}

func TestCountdown_CloseResetsWindow(t *testing.T) {
	c := NewCountdown(3600*time.Second, 0)
	var expired int
	c.Open(func() { expired++ })
	for i := 0; i < 100; i++ {
		c.Tick()
	}
	c.Close()
	assert.Equal(t, 3600*time.Second, c.Remaining())
	assert.False(t, c.IsOpen())

	c.Open(func() { expired++ })
	assert.Equal(t, 3600*time.Second, c.Remaining())
	assert.Zero(t, expired)
}

func TestCountdown_TickerExpires(t *testing.T) {
	c := NewCountdown(5*time.Millisecond, time.Millisecond)
	var expired atomic.Int32
	c.Open(func() { expired.Add(1) })

	require.Eventually(t, func() bool { return expired.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, c.IsOpen())
}
