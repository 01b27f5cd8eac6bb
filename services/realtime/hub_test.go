package realtime

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := hub.AddConnection("u1", "t1", "client")

	if !hub.SendToUser("u1", "ping", "hello") {
		t.Fatal("SendToUser() = false, want true")
	}
	msg := <-conn.C
	if msg.Event != "ping" || msg.Data != "hello" {
		t.Fatalf("received %+v", msg)
	}

	if hub.SendToUser("nobody", "ping", nil) {
		t.Error("SendToUser() to unknown user = true, want false")
	}
}

func TestHub_SendToTenantExcludesRoles(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := hub.AddConnection("u1", "t1", "client")
	barber := hub.AddConnection("u2", "t1", "barber")
	other := hub.AddConnection("u3", "t2", "client")

	count := hub.SendToTenant("t1", "update", nil, "barber")
	if count != 1 {
		t.Fatalf("SendToTenant() = %d, want 1", count)
	}
	select {
	case <-client.C:
	default:
		t.Error("client connection received nothing")
	}
	select {
	case <-barber.C:
		t.Error("excluded role received a message")
	default:
	}
	select {
	case <-other.C:
		t.Error("other tenant received a message")
	default:
	}
}

func TestHub_RemoveConnectionIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := hub.AddConnection("u1", "t1", "client")

	hub.RemoveConnection(conn.ID)
	hub.RemoveConnection(conn.ID)

	if hub.ConnectionCount() != 0 {
		t.Fatalf("connection count = %d, want 0", hub.ConnectionCount())
	}
	if _, ok := <-conn.C; ok {
		t.Error("channel not closed after removal")
	}
	if hub.SendToUser("u1", "ping", nil) {
		t.Error("send to removed connection succeeded")
	}
}

func TestHub_FullBufferDropsConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := hub.AddConnection("u1", "t1", "client")

	// Fill the buffer without draining.
	for i := 0; i < cap(conn.C); i++ {
		if !hub.SendToUser("u1", "event", i) {
			t.Fatalf("send %d failed before buffer was full", i)
		}
	}
	if hub.SendToUser("u1", "overflow", nil) {
		t.Error("send succeeded on full buffer")
	}
	if hub.ConnectionCount() != 0 {
		t.Errorf("connection count = %d, want 0 after write failure", hub.ConnectionCount())
	}
}

func TestHub_ConcurrentConnectDisconnectSend(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := hub.AddConnection("u", "t1", "client")
			hub.SendToTenant("t1", "event", nil)
			hub.RemoveConnection(conn.ID)
		}()
	}
	wg.Wait()

	if hub.ConnectionCount() != 0 {
		t.Fatalf("connection count = %d, want 0", hub.ConnectionCount())
	}
}

func TestHub_RemoveUserDropsAllUserConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.AddConnection("u1", "t1", "client")
	hub.AddConnection("u1", "t1", "client")
	hub.AddConnection("u2", "t1", "client")

	hub.RemoveUser("u1")
	if hub.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", hub.ConnectionCount())
	}
}
