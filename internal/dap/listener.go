package dap

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// pollInterval is how often Accept's deadline expires so the accept loop
// can notice Stop without blocking on it indefinitely — the Go analogue of
// the original Server::Impl::begin loop's 1-second poll against its
// stop flag.
const pollInterval = time.Second

// ServerListener accepts connections on a net.Listener and runs one
// Session per connection, each in its own goroutine, until Stop is called.
// One debug context is shared across every session it spawns; multiple
// simultaneous client connections are expected (§5 "ServerListener"),
// each getting its own sequence counter and send mutex via its Session.
type ServerListener struct {
	ln       net.Listener
	handlers map[string]HandlerFunc
	log      *logrus.Entry

	mu       sync.Mutex
	sessions map[string]*Session
	stopped  bool

	wg sync.WaitGroup
}

// NewServerListener wraps ln, dispatching every accepted connection's
// requests through handlers.
func NewServerListener(ln net.Listener, handlers map[string]HandlerFunc, log *logrus.Entry) *ServerListener {
	return &ServerListener{
		ln:       ln,
		handlers: handlers,
		log:      log,
		sessions: map[string]*Session{},
	}
}

// Serve runs the accept loop until Stop is called, returning nil in that
// case. Any other Accept error is returned to the caller. Each accepted
// connection gets a new goroutine running a Session to completion; Serve
// itself returns only once accepting has stopped, not once every session
// has finished — call Wait after Serve returns to block for that.
func (l *ServerListener) Serve() error {
	type deadliner interface {
		SetDeadline(time.Time) error
	}
	for {
		if dl, ok := l.ln.(deadliner); ok {
			_ = dl.SetDeadline(time.Now().Add(pollInterval))
		}
		conn, err := l.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				l.mu.Lock()
				stopped := l.stopped
				l.mu.Unlock()
				if stopped {
					return nil
				}
				continue
			}
			l.mu.Lock()
			stopped := l.stopped
			l.mu.Unlock()
			if stopped {
				return nil
			}
			return err
		}
		l.accept(conn)
	}
}

func (l *ServerListener) accept(conn net.Conn) {
	id := uuid.NewString()
	sess := NewSession(id, conn, l.handlers, l.log)

	l.mu.Lock()
	l.sessions[id] = sess
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			l.mu.Lock()
			delete(l.sessions, id)
			l.mu.Unlock()
		}()
		if err := sess.Serve(); err != nil {
			l.log.WithError(err).WithField("session", id).Debug("dap: session ended")
		}
	}()
}

// Broadcast sends an event to every currently connected session, for host
// model events (stopped, thread) that aren't addressed to one request.
func (l *ServerListener) Broadcast(event string, body any) {
	l.mu.Lock()
	sessions := make([]*Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		sessions = append(sessions, s)
	}
	l.mu.Unlock()

	for _, s := range sessions {
		if err := s.SendEvent(event, body); err != nil {
			l.log.WithError(err).WithField("session", s.id).Warn("dap: broadcast failed")
		}
	}
}

// Stop sets the stop flag, then closes the listener and every open
// session and returns; it does not wait for Serve to observe the flag or
// for in-flight handlers to return; call Wait for that.
func (l *ServerListener) Stop() error {
	l.mu.Lock()
	l.stopped = true
	sessions := make([]*Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		sessions = append(sessions, s)
	}
	l.mu.Unlock()

	err := l.ln.Close()
	for _, s := range sessions {
		_ = s.Close()
	}
	return err
}

// Wait blocks until every session spawned by Serve has returned.
func (l *ServerListener) Wait() { l.wg.Wait() }
