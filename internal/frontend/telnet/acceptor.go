package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/config"
)

// FullMessage is sent to a client turned away at the session cap.
const FullMessage = "The table is full. Try again later."

// SessionHandler runs the command loop for one connected client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// ConnObserver is notified as connections open, close or are refused.
type ConnObserver interface {
	SessionOpened()
	SessionClosed()
	SessionRejected()
}

type nopObserver struct{}

func (nopObserver) SessionOpened()   {}
func (nopObserver) SessionClosed()   {}
func (nopObserver) SessionRejected() {}

// AcceptorOption configures an Acceptor.
type AcceptorOption func(*Acceptor)

// WithObserver reports connection events to o. A nil o is ignored.
func WithObserver(o ConnObserver) AcceptorOption {
	return func(a *Acceptor) {
		if o != nil {
			a.observer = o
		}
	}
}

// Acceptor listens for console connections and runs each one through a
// SessionHandler. It implements server.Service.
type Acceptor struct {
	cfg      config.TelnetConfig
	handler  SessionHandler
	logger   *zap.Logger
	observer ConnObserver

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]*Conn
	stopped  bool
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewAcceptor creates an acceptor for cfg.Addr().
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger, opts ...AcceptorOption) *Acceptor {
	a := &Acceptor{
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		observer: nopObserver{},
		conns:    make(map[string]*Conn),
		quit:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start is ListenAndServe under the server.Service name.
func (a *Acceptor) Start() error {
	return a.ListenAndServe()
}

// ListenAndServe accepts connections until Stop is called.
//
// Postcondition: Returns nil after Stop, or the listen error.
func (a *Acceptor) ListenAndServe() error {
	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		listener.Close()
		return nil
	}
	a.listener = listener
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("max_sessions", a.cfg.MaxSessions),
	)

	for {
		raw, err := listener.Accept()
		if err != nil {
			select {
			case <-a.quit:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}

		conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
		if !a.track(conn) {
			a.refuse(conn)
			continue
		}
		a.wg.Add(1)
		go a.serve(conn)
	}
}

// track registers conn unless the acceptor is stopping or full.
func (a *Acceptor) track(conn *Conn) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	if a.cfg.MaxSessions > 0 && len(a.conns) >= a.cfg.MaxSessions {
		return false
	}
	a.conns[conn.ID()] = conn
	return true
}

func (a *Acceptor) untrack(conn *Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conns, conn.ID())
}

func (a *Acceptor) refuse(conn *Conn) {
	defer conn.Close()
	a.observer.SessionRejected()
	a.logger.Warn("connection refused, console full",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("max_sessions", a.cfg.MaxSessions),
	)
	_ = conn.WriteLine(FullMessage)
}

func (a *Acceptor) serve(conn *Conn) {
	defer a.wg.Done()
	defer a.untrack(conn)
	defer conn.Close()

	start := time.Now()
	log := a.logger.With(
		zap.String("conn_id", conn.ID()),
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)
	log.Info("client connected")
	a.observer.SessionOpened()
	defer a.observer.SessionClosed()

	if err := conn.Negotiate(); err != nil {
		log.Warn("telnet negotiation failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := a.handler.HandleSession(ctx, conn)
	log.Info("client disconnected",
		zap.Duration("duration", time.Since(start)),
		zap.NamedError("cause", err),
	)
}

// Stop closes the listener and every open connection, then waits for the
// session goroutines to return. Calling Stop more than once is harmless.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	close(a.quit)
	if a.listener != nil {
		a.listener.Close()
	}
	open := len(a.conns)
	for _, c := range a.conns {
		c.Close()
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("telnet acceptor stopped", zap.Int("closed_sessions", open))
}

// Addr returns the listening address, or "" before the listener is up.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// IsRunning reports whether the acceptor is listening.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener != nil && !a.stopped
}

// Sessions returns the number of open connections.
func (a *Acceptor) Sessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}
