package main

import (
	"testing"
)

func testClient(connID string) *Client {
	return &Client{
		send:   make(chan any, 8),
		connID: connID,
	}
}

func TestSendToUnknownConnection(t *testing.T) {
	hub := newWSHub()

	// No client registered; must not panic or block.
	hub.SendTo("nobody", SimpleMessage{Type: "peerLeft"})
}

func TestSendToDelivers(t *testing.T) {
	hub := newWSHub()
	c := testClient("conn-1")
	hub.add(c)

	hub.SendTo("conn-1", SimpleMessage{Type: "incorrect", Message: "nope"})

	select {
	case msg := <-c.send:
		if m, ok := msg.(SimpleMessage); !ok || m.Type != "incorrect" {
			t.Errorf("unexpected message: %+v", msg)
		}
	default:
		t.Fatal("message was not queued")
	}
}

func TestSendToSessionReachesGroupOnly(t *testing.T) {
	hub := newWSHub()
	a := testClient("conn-a")
	b := testClient("conn-b")
	stranger := testClient("conn-c")
	hub.add(a)
	hub.add(b)
	hub.add(stranger)

	hub.Join("ABC123", "conn-a")
	hub.Join("ABC123", "conn-b")

	hub.SendToSession("ABC123", SimpleMessage{Type: "stageClear"})

	for _, c := range []*Client{a, b} {
		select {
		case <-c.send:
		default:
			t.Errorf("member %s did not receive the broadcast", c.connID)
		}
	}
	select {
	case msg := <-stranger.send:
		t.Errorf("non-member received %+v", msg)
	default:
	}
}

func TestLeaveAndDropSession(t *testing.T) {
	hub := newWSHub()
	a := testClient("conn-a")
	b := testClient("conn-b")
	hub.add(a)
	hub.add(b)
	hub.Join("ABC123", "conn-a")
	hub.Join("ABC123", "conn-b")

	hub.Leave("ABC123", "conn-a")
	hub.SendToSession("ABC123", SimpleMessage{Type: "peerLeft"})

	select {
	case <-a.send:
		t.Error("departed member still receives broadcasts")
	default:
	}
	select {
	case <-b.send:
	default:
		t.Error("remaining member missed the broadcast")
	}

	hub.DropSession("ABC123")
	hub.SendToSession("ABC123", SimpleMessage{Type: "gameComplete"})
	select {
	case msg := <-b.send:
		t.Errorf("dropped session still delivers: %+v", msg)
	default:
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	hub := newWSHub()
	c := testClient("conn-1")
	hub.add(c)

	hub.remove(c)
	hub.remove(c) // second call must not close the channel again

	if _, open := <-c.send; open {
		t.Error("send channel should be closed after removal")
	}
}

func TestRemoveOnlyDropsMatchingClient(t *testing.T) {
	hub := newWSHub()
	old := testClient("conn-1")
	hub.add(old)

	// A replacement under the same id must survive removal of the old client.
	fresh := testClient("conn-1")
	hub.add(fresh)

	hub.remove(old)

	hub.SendTo("conn-1", SimpleMessage{Type: "incorrect"})
	select {
	case <-fresh.send:
	default:
		t.Error("fresh client should still be registered")
	}
}
