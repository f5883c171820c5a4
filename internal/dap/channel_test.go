package dap

import (
	"sync"
	"testing"
	"time"
)

func TestChannelSendRecvOrder(t *testing.T) {
	c := NewChannel[int](4)
	for i := 0; i < 3; i++ {
		if err := c.Send(i); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		v, ok := c.Recv()
		if !ok || v != i {
			t.Fatalf("Recv() = %v, %v, want %v, true", v, ok, i)
		}
	}
}

func TestChannelSendBlocksWhenFull(t *testing.T) {
	c := NewChannel[int](1)
	if err := c.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	done := make(chan struct{})
	go func() {
		c.Send(2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Send on a full channel returned before room was made")
	case <-time.After(50 * time.Millisecond):
	}

	c.Recv()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send never unblocked after Recv freed a slot")
	}
}

func TestChannelCloseWakesBlockedSendersAndReceivers(t *testing.T) {
	c := NewChannel[int](1)
	if err := c.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var wg sync.WaitGroup
	sendErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sendErr <- c.Send(2) // blocks: buffer full
	}()

	time.Sleep(20 * time.Millisecond)
	c.Close()
	wg.Wait()

	if err := <-sendErr; err != ErrChannelClosed {
		t.Errorf("blocked Send after Close = %v, want ErrChannelClosed", err)
	}
}

func TestChannelRecvDrainsThenReportsClosed(t *testing.T) {
	c := NewChannel[int](2)
	c.Send(1)
	c.Close()

	v, ok := c.Recv()
	if !ok || v != 1 {
		t.Fatalf("Recv() = %v, %v, want 1, true (drain before close)", v, ok)
	}
	_, ok = c.Recv()
	if ok {
		t.Fatal("Recv() on an empty, closed channel should report ok=false")
	}
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	c := NewChannel[int](1)
	c.Close()
	c.Close()
	if !c.Closed() {
		t.Fatal("Closed() should be true after Close")
	}
}

func TestChannelSendOnClosedReturnsError(t *testing.T) {
	c := NewChannel[int](1)
	c.Close()
	if err := c.Send(1); err != ErrChannelClosed {
		t.Errorf("Send on closed channel = %v, want ErrChannelClosed", err)
	}
}
