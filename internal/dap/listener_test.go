package dap

import (
	"bufio"
	"net"
	"testing"
	"time"
)

func TestServerListenerAcceptsAndDispatches(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	handlers := map[string]HandlerFunc{
		"echo": func(s *Session, args any) (any, error) { return map[string]any{"ok": true}, nil },
	}
	l := NewServerListener(ln, handlers, discardLog())
	go l.Serve()
	defer func() {
		l.Stop()
		l.Wait()
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	writeRequest(t, conn, 1, "echo", nil)
	resp := readFrameOrFail(t, bufio.NewReader(conn))
	if resp["success"] != true {
		t.Fatalf("success = %v", resp["success"])
	}
}

func TestServerListenerBroadcastReachesAllSessions(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	l := NewServerListener(ln, map[string]HandlerFunc{}, discardLog())
	go l.Serve()
	defer func() {
		l.Stop()
		l.Wait()
	}()

	var conns []net.Conn
	for i := 0; i < 2; i++ {
		c, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		defer c.Close()
		conns = append(conns, c)
	}

	// Give the accept loop a moment to register both sessions.
	time.Sleep(100 * time.Millisecond)
	l.Broadcast("stopped", map[string]any{"reason": "step"})

	for _, c := range conns {
		m := readFrameOrFail(t, bufio.NewReader(c))
		if m["type"] != "event" || m["event"] != "stopped" {
			t.Fatalf("got %v, want stopped event", m)
		}
	}
}

func TestServerListenerStopThenWaitReturns(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	l := NewServerListener(ln, map[string]HandlerFunc{}, discardLog())

	done := make(chan error, 1)
	go func() { done <- l.Serve() }()

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	l.Wait()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v, want nil after Stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve never returned after Stop")
	}
}

