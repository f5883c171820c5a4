package dap

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ben-clayton/gpudbg/internal/wire"
	"github.com/sirupsen/logrus"
)

// fatalDispatchError marks a dispatch failure as fatal for the connection:
// a protocol-malformed envelope or an unregistered command, both a
// programmer error in the peer rather than something the session can
// recover from. The dispatch thread closes the connection after logging
// one of these, rather than sending a response and waiting for the next
// frame.
type fatalDispatchError struct{ error }

// dispatchQueueCapacity bounds how many decoded-but-not-yet-handled
// frames the receive thread may get ahead of the dispatch thread by,
// per §4.4 — "enqueues a no-argument payload closure onto a bounded
// channel". A slow handler backs up the receive thread's Channel.Send
// rather than letting an unbounded number of frames pile up in memory.
const dispatchQueueCapacity = 64

// HandlerFunc processes one request's Arguments and returns the response
// Body to serialize, or an error (ideally a *Failure, so the dispatcher can
// report a specific code) on failure. Handlers never write to the wire
// themselves — returning is how they respond, which keeps the outbound
// seq counter and send mutex in Session's hands alone.
type HandlerFunc func(s *Session, args any) (any, error)

// Session owns one client connection: the receive thread that frames and
// enqueues requests, the dispatch thread that drains the queue and calls
// handlers, and the write path every response and event funnels through.
// It is the Go shape of the original's Connection::Impl — receive
// goroutine, dispatch goroutine, and a mutex-guarded sender — set up the
// same way go-delve's serveDAPCodec pairs a decode loop with a locked
// io.Writer, generalized here to the two-worker split §4.4 specifies.
type Session struct {
	id   string
	conn net.Conn
	r    *bufio.Reader

	// queue is the handoff between the receive thread (Serve's own
	// goroutine, blocked in ReadFrame) and the dispatch thread (a
	// second goroutine Serve starts), per §4.4: the receive thread's
	// only job is framing and enqueueing a payload closure, so a slow
	// handler stalls reads off the wire only once dispatchQueueCapacity
	// frames are waiting.
	queue *Channel[func()]

	sendMu sync.Mutex
	seq    int64

	handlers map[string]HandlerFunc

	log *logrus.Entry

	attrMu   sync.Mutex
	clientID string
	sanitize bool

	closeOnce sync.Once
	closed    chan struct{}
}

// SetClientID records the initialize request's clientID, used by
// handlers to decide whether to auto-enable name sanitization for
// clients known to mishandle dots in names (§4.8 "Source projection").
func (s *Session) SetClientID(id string) {
	s.attrMu.Lock()
	defer s.attrMu.Unlock()
	s.clientID = id
}

// ClientID returns the clientID recorded by SetClientID, or "" if none.
func (s *Session) ClientID() string {
	s.attrMu.Lock()
	defer s.attrMu.Unlock()
	return s.clientID
}

// SetSanitize toggles "." -> "_" sanitization of names sent to this
// session.
func (s *Session) SetSanitize(v bool) {
	s.attrMu.Lock()
	defer s.attrMu.Unlock()
	s.sanitize = v
}

// Sanitize reports whether this session wants name sanitization.
func (s *Session) Sanitize() bool {
	s.attrMu.Lock()
	defer s.attrMu.Unlock()
	return s.sanitize
}

// NewSession wraps conn and prepares it to run once Serve is called.
// handlers maps a DAP command name ("initialize", "next", ...) to the
// function that implements it; a command with no entry is treated as a
// protocol error and closes the connection rather than getting a response.
func NewSession(id string, conn net.Conn, handlers map[string]HandlerFunc, log *logrus.Entry) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		r:        bufio.NewReader(conn),
		queue:    NewChannel[func()](dispatchQueueCapacity),
		handlers: handlers,
		log:      log.WithField("session", id),
		closed:   make(chan struct{}),
	}
}

// Serve runs the two worker "threads" (goroutines) §4.4 specifies for a
// Session: this call is the receive thread, blocked in ReadFrame and
// otherwise doing nothing but enqueueing a payload closure per message;
// a second goroutine is the dispatch thread, draining s.queue in FIFO
// order so every handler invocation for this connection runs serially
// and in arrival order, with no cross-handler concurrency to reason
// about. It returns the error that ended the receive loop; io.EOF and
// "use of closed network connection" are the ordinary, non-error ways
// this ends. A fatalDispatchError surfaced from the dispatch thread —
// a protocol-malformed envelope or an unknown command — closes the
// connection from there, which unblocks ReadFrame here with the same
// "connection closed" error.
func (s *Session) Serve() error {
	defer s.Close()

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		s.dispatchLoop()
	}()
	// Closing the queue (rather than the connection) unblocks the
	// dispatch thread, mirroring chan.h's close-cascade; draining it
	// first lets any already-enqueued response still reach the wire
	// before Serve's outer defer closes the connection underneath it.
	defer func() {
		s.queue.Close()
		<-dispatchDone
	}()

	for {
		body, err := ReadFrame(s.r)
		if err != nil {
			return err
		}
		if err := s.queue.Send(func() { s.handleFrame(body) }); err != nil {
			return err
		}
	}
}

// dispatchLoop is the dispatch thread's body: dequeue one payload
// closure and run it, until the queue reports closed-and-drained.
func (s *Session) dispatchLoop() {
	for {
		fn, ok := s.queue.Recv()
		if !ok {
			return
		}
		fn()
	}
}

// handleFrame runs on the dispatch thread for one decoded frame. A
// fatalDispatchError closes the connection itself, rather than
// returning the error to the receive thread directly — the two
// goroutines only communicate through the queue and the connection.
func (s *Session) handleFrame(body []byte) {
	if err := s.dispatch(body); err != nil {
		s.log.WithError(err).Error("dap: dispatch failed")
		var fatal fatalDispatchError
		if errors.As(err, &fatal) {
			s.Close()
		}
	}
}

func (s *Session) dispatch(body []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return fatalDispatchError{fmt.Errorf("dap: malformed message: %w", err)}
	}

	var msg ProtocolMessage
	if err := wire.Deserialize(raw, &msg); err != nil {
		return fatalDispatchError{fmt.Errorf("dap: malformed envelope: %w", err)}
	}

	if msg.Type != "request" {
		s.log.WithField("type", msg.Type).Warn("dap: ignoring non-request message from client")
		return nil
	}

	// arguments is optional in DAP: a request that omits it reaches its
	// handler with nil arguments rather than being rejected as malformed.
	if _, ok := raw["arguments"]; !ok {
		raw["arguments"] = nil
	}

	var req Request
	if err := wire.Deserialize(raw, &req); err != nil {
		return fatalDispatchError{fmt.Errorf("dap: malformed request: %w", err)}
	}

	s.log.WithFields(logrus.Fields{"command": req.Command, "seq": req.Seq}).Debug("dap: request")

	handler, ok := s.handlers[req.Command]
	if !ok {
		return fatalDispatchError{fmt.Errorf("dap: unsupported command %q", req.Command)}
	}

	respBody, err := handler(s, req.Arguments)
	if err != nil {
		failure, ok := err.(*Failure)
		if !ok {
			failure = NewFailure(InternalError, err.Error())
		}
		return s.sendErrorResponse(req, failure)
	}

	if err := s.SendResponse(req, respBody); err != nil {
		return err
	}

	// initialize's "initialized" event must follow its response, never
	// precede it, per §4.8 — so this is sequenced here rather than left
	// to the handler.
	if req.Command == "initialize" {
		return s.SendEvent("initialized", nil)
	}
	return nil
}

// SendResponse sends a success response to req carrying body.
func (s *Session) SendResponse(req Request, body any) error {
	return s.send(Response{
		Type:       "response",
		RequestSeq: req.Seq,
		Success:    true,
		Command:    req.Command,
		Body:       body,
	})
}

func (s *Session) sendErrorResponse(req Request, f *Failure) error {
	s.log.WithFields(logrus.Fields{"command": req.Command, "code": f.Code}).Warn("dap: request failed")
	return s.send(ErrorResponse{
		Type:       "response",
		RequestSeq: req.Seq,
		Success:    false,
		Command:    req.Command,
		Message:    f.Message,
	})
}

// SendEvent sends an asynchronous event to the client. Handlers and the
// host model's EventListener both call this, concurrently with the read
// loop and with each other, which is exactly what sendMu serializes.
func (s *Session) SendEvent(event string, body any) error {
	return s.send(Event{
		Type:  "event",
		Event: event,
		Body:  body,
	})
}

// send assigns the next outbound seq, serializes v through the wire
// registry, and writes one framed message. Every path that writes to the
// connection — responses, error responses, events — funnels through here
// so the seq counter and the physical write stay atomic with each other.
func (s *Session) send(v any) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	seq := int(atomic.AddInt64(&s.seq, 1))
	switch m := v.(type) {
	case Response:
		m.Seq = seq
		v = m
	case ErrorResponse:
		m.Seq = seq
		v = m
	case Event:
		m.Seq = seq
		v = m
	}

	tree, err := wire.Serialize(v)
	if err != nil {
		return fmt.Errorf("dap: serialize outbound message: %w", err)
	}
	encoded, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("dap: encode outbound message: %w", err)
	}
	return WriteFrame(s.conn, encoded)
}

// Close shuts down the underlying connection. Safe to call more than once
// and from any goroutine; Serve's deferred call and an external shutdown
// both race to call it harmlessly.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}

// Done reports the channel closed once Close has run, for callers that
// need to observe session teardown without calling Close themselves.
func (s *Session) Done() <-chan struct{} { return s.closed }

var _ io.Closer = (*Session)(nil)
