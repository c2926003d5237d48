package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathrush/mathrush-go/internal/testutil"
)

// bareClient builds a client with no websocket connection behind it, so
// the hub's view of subscribers can be tested in isolation
func bareClient(buffer int) *Client {
	return &Client{
		send:        make(chan []byte, buffer),
		logger:      testutil.NopLogger(),
		connectedAt: time.Now(),
	}
}

func receiveMessage(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub("R1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	a := bareClient(4)
	b := bareClient(4)
	hub.Register(a)
	hub.Register(b)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte("hello"))

	assert.Equal(t, []byte("hello"), receiveMessage(t, a))
	assert.Equal(t, []byte("hello"), receiveMessage(t, b))
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub("R1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	a := bareClient(4)
	b := bareClient(4)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Unregister(a)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte("after"))
	assert.Equal(t, []byte("after"), receiveMessage(t, b))
	assert.Empty(t, a.send)
}

func TestHubDropsMessagesForSlowSubscriber(t *testing.T) {
	hub := NewHub("R1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	slow := bareClient(1)
	fast := bareClient(8)
	hub.Register(slow)
	hub.Register(fast)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))

	// The fast subscriber sees both; the slow one keeps the first and
	// loses the second rather than stalling the hub
	assert.Equal(t, []byte("one"), receiveMessage(t, fast))
	assert.Equal(t, []byte("two"), receiveMessage(t, fast))
	assert.Equal(t, []byte("one"), receiveMessage(t, slow))
	assert.Empty(t, slow.send)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub("R1", testutil.NopLogger())
	go hub.Run()

	a := bareClient(4)
	hub.Register(a)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-a.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "client send channel should be closed")

	// Register after close must not block
	done := make(chan struct{})
	go func() {
		hub.Register(bareClient(1))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register blocked on a closed hub")
	}
}

func TestHubManagerReturnsSameHubPerRoom(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())

	h1 := m.GetOrCreateHub("R1")
	h2 := m.GetOrCreateHub("R1")
	other := m.GetOrCreateHub("R2")

	assert.Same(t, h1, h2)
	assert.NotSame(t, h1, other)
	assert.Same(t, h1, m.GetHub("R1"))
	assert.Nil(t, m.GetHub("missing"))
}

func TestHubManagerCleanupRemovesOnlyEmptyHubs(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())

	busy := m.GetOrCreateHub("busy")
	m.GetOrCreateHub("empty")

	c := bareClient(4)
	busy.Register(c)
	require.Eventually(t, func() bool { return busy.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	m.CleanupEmptyHubs()

	assert.NotNil(t, m.GetHub("busy"))
	assert.Nil(t, m.GetHub("empty"))
}
