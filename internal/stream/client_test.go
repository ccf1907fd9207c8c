package stream

import (
	"sync/atomic"
	"testing"
)

func newTestClient(bufSize int) *Client {
	return NewClient(nil, bufSize)
}

func TestSubscribe(t *testing.T) {
	c := newTestClient(10)
	c.Subscribe([]string{"TCS.NS", "INFY.NS"})
	if !c.IsSubscribed("TCS.NS") {
		t.Fatal("should be subscribed to TCS.NS")
	}
	if !c.IsSubscribed("INFY.NS") {
		t.Fatal("should be subscribed to INFY.NS")
	}
	if c.IsSubscribed("WIPRO.NS") {
		t.Fatal("should not be subscribed to WIPRO.NS")
	}
}

func TestSubscribeAll(t *testing.T) {
	c := newTestClient(10)
	c.SubscribeAll()
	if !c.IsSubscribed("TCS.NS") {
		t.Fatal("should be subscribed to any symbol after SubscribeAll")
	}
	if !c.IsSubscribed("^NSEI") {
		t.Fatal("should be subscribed to any symbol after SubscribeAll")
	}
}

func TestUnsubscribe(t *testing.T) {
	c := newTestClient(10)
	c.Subscribe([]string{"TCS.NS", "INFY.NS"})
	c.Unsubscribe([]string{"INFY.NS"})
	if c.IsSubscribed("INFY.NS") {
		t.Fatal("should not be subscribed after unsubscribe")
	}
	if !c.IsSubscribed("TCS.NS") {
		t.Fatal("should still be subscribed to TCS.NS")
	}
}

func TestIsSubscribedDefault(t *testing.T) {
	c := newTestClient(10)
	if c.IsSubscribed("TCS.NS") {
		t.Fatal("new client should not be subscribed to any symbol")
	}
}

func TestSendBufferFull(t *testing.T) {
	c := newTestClient(2)
	ok1 := c.Send([]byte("msg1"))
	ok2 := c.Send([]byte("msg2"))
	ok3 := c.Send([]byte("msg3")) // should be dropped
	if !ok1 || !ok2 {
		t.Fatal("first two sends should succeed")
	}
	if ok3 {
		t.Fatal("third send should fail (buffer full)")
	}
	if dropped := atomic.LoadUint64(&c.Dropped); dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", dropped)
	}
}

func TestSendNotFull(t *testing.T) {
	c := newTestClient(100)
	if !c.Send([]byte("hello")) {
		t.Fatal("Send should succeed with large buffer")
	}
	select {
	case data := <-c.SendCh():
		if string(data) != "hello" {
			t.Fatalf("received %q, want hello", data)
		}
	default:
		t.Fatal("send channel should hold the message")
	}
}

func TestUniqueIDs(t *testing.T) {
	c1 := newTestClient(10)
	c2 := newTestClient(10)
	c3 := newTestClient(10)
	if c1.ID == c2.ID || c2.ID == c3.ID || c1.ID == c3.ID {
		t.Fatalf("client IDs should be unique: %d, %d, %d", c1.ID, c2.ID, c3.ID)
	}
}
