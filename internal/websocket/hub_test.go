package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/princekumarofficial/stories-client/internal/types"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) *types.Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var event types.Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return &event
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return nil
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := startHub(t)
	a := NewClient(nil, "a", hub)
	b := NewClient(nil, "b", hub)
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	waitFor(t, func() bool { return hub.GetClientCount() == 2 })

	hub.BroadcastAll(types.NewEvent(types.EventStoriesFetched, nil))

	if got := receive(t, a).Type; got != types.EventStoriesFetched {
		t.Fatalf("client a got %s", got)
	}
	if got := receive(t, b).Type; got != types.EventStoriesFetched {
		t.Fatalf("client b got %s", got)
	}
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub := startHub(t)
	a := NewClient(nil, "a", hub)
	b := NewClient(nil, "b", hub)
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	waitFor(t, func() bool { return hub.GetClientCount() == 2 })

	hub.BroadcastToUser("b", types.NewEvent(types.EventStoryViewed, nil))

	if got := receive(t, b).Type; got != types.EventStoryViewed {
		t.Fatalf("client b got %s", got)
	}
	select {
	case <-a.send:
		t.Fatal("client a must not receive b's event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_NewerConnectionReplacesOlder(t *testing.T) {
	hub := startHub(t)
	old := NewClient(nil, "a", hub)
	hub.RegisterClient(old)
	waitFor(t, func() bool { return hub.IsUserConnected("a") })

	fresh := NewClient(nil, "a", hub)
	hub.RegisterClient(fresh)

	select {
	case _, ok := <-old.send:
		if ok {
			t.Fatal("expected old send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("old client was not closed")
	}

	// The old connection unregistering must not evict the new one.
	hub.UnregisterClient(old)
	hub.BroadcastAll(types.NewEvent(types.EventStoryAdded, nil))
	if got := receive(t, fresh).Type; got != types.EventStoryAdded {
		t.Fatalf("fresh client got %s", got)
	}
	if !hub.IsUserConnected("a") {
		t.Fatal("fresh client was evicted")
	}
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := startHub(t)
	slow := NewClient(nil, "slow", hub)
	hub.RegisterClient(slow)
	waitFor(t, func() bool { return hub.IsUserConnected("slow") })

	for i := 0; i < cap(slow.send)+1; i++ {
		hub.BroadcastAll(types.NewEvent(types.EventStoryAdded, i))
		// Let the hub drain its own queue so nothing is dropped there.
		time.Sleep(time.Millisecond)
	}

	waitFor(t, func() bool { return !hub.IsUserConnected("slow") })
}

func TestHub_StopsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := NewClient(nil, "a", hub)
	hub.RegisterClient(c)
	cancel()
	<-stopped

	if hub.RegisterClient(NewClient(nil, "b", hub)) {
		t.Fatal("expected registration to fail after stop")
	}
	hub.UnregisterClient(c) // must not block
}

func TestHub_WithKeepalive(t *testing.T) {
	hub := NewHub().WithKeepalive(Keepalive{PongWait: 10 * time.Second, SendBuffer: 4})

	c := NewClient(nil, "a", hub)
	if cap(c.send) != 4 {
		t.Fatalf("expected send buffer 4, got %d", cap(c.send))
	}
	if c.keepalive.PingPeriod() != 9*time.Second {
		t.Fatalf("expected 9s ping period, got %s", c.keepalive.PingPeriod())
	}
	if c.keepalive.WriteWait != DefaultKeepalive.WriteWait || c.keepalive.MaxMessageSize != DefaultKeepalive.MaxMessageSize {
		t.Fatalf("expected unset fields to keep defaults, got %+v", c.keepalive)
	}

	for i := 0; i < 4; i++ {
		if err := c.SendEvent(types.NewEvent(types.EventStoryAdded, i)); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}
	if err := c.SendEvent(types.NewEvent(types.EventStoryAdded, 4)); err != ErrClientTooSlow {
		t.Fatalf("expected ErrClientTooSlow, got %v", err)
	}
}
