package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/config"
)

func TestRegisterAndGet(t *testing.T) {
	h := NewHub()
	c := NewClient("c1", h, nil, config.WebSocketConfig{})

	h.Register(c)
	assert.Equal(t, 1, h.Count())

	got, ok := h.Get("c1")
	require.True(t, ok)
	assert.Same(t, c, got)

	h.Unregister(c)
	assert.Equal(t, 0, h.Count())
	_, ok = h.Get("c1")
	assert.False(t, ok)
}

func TestUnregisterRunsDisconnectCallbackOnce(t *testing.T) {
	h := NewHub()
	calls := 0
	h.OnDisconnect(func(*Client) { calls++ })

	c := NewClient("c1", h, nil, config.WebSocketConfig{})
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)
	assert.Equal(t, 1, calls)
}

func TestPushDuringUnregisterDoesNotPanic(t *testing.T) {
	h := NewHub()
	c := NewClient("c1", h, nil, config.WebSocketConfig{})
	h.Register(c)

	// Drain so pushes never stall on a full buffer.
	done := make(chan struct{})
	go func() {
		for range c.Send {
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Push([]byte(`{"type":"chat_message"}`))
			}
		}()
	}

	h.Unregister(c)
	wg.Wait()
	<-done

	assert.False(t, c.Push([]byte("late")), "push after disconnect must be rejected")
}
