// Package server runs the table server's long-lived components and stops
// them in reverse order on a signal, a failure or context cancellation.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout is the stop budget used when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// Service represents a long-running component that can be started and stopped.
type Service interface {
	// Start runs the service and blocks until it is stopped or fails. A nil
	// return before Stop means the service finished its work.
	Start() error
	// Stop asks a running Start to return.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts registered services together and stops them in reverse
// registration order, giving the whole shutdown a fixed time budget.
type Lifecycle struct {
	logger   *zap.Logger
	timeout  time.Duration
	signals  []os.Signal
	services []namedService
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithShutdownTimeout bounds the time all Stop calls may take together.
// A non-positive d keeps DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(l *Lifecycle) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithSignals replaces the signals that trigger shutdown (SIGINT and SIGTERM).
// Passing none disables signal handling.
func WithSignals(sig ...os.Signal) Option {
	return func(l *Lifecycle) {
		l.signals = sig
	}
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		logger:  logger,
		timeout: DefaultShutdownTimeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers a named service. Services are started in the order added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts all services and blocks until a shutdown signal arrives, a
// service fails, or ctx is cancelled. Services are then stopped in reverse order.
//
// Postcondition: Every service has been asked to stop. The returned error is
// the first service failure, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		ns := ns // per-iteration copy; module targets go 1.21 loop semantics
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
				return
			}
			l.logger.Debug("service returned",
				zap.String("service", ns.name),
				zap.Duration("uptime", time.Since(svcStart)),
			)
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	if len(l.signals) > 0 {
		signal.Notify(sigCh, l.signals...)
		defer signal.Stop(sigCh)
	}

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.shutdown(services)

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

// shutdown stops services last to first. A Stop that outlives the remaining
// budget is abandoned and the next service is stopped.
func (l *Lifecycle) shutdown(services []namedService) {
	shutdownStart := time.Now()
	deadline := time.NewTimer(l.timeout)
	defer deadline.Stop()

	expired := false
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", ns.name))

		done := make(chan struct{})
		go func() {
			defer close(done)
			ns.service.Stop()
		}()

		if expired {
			l.logger.Warn("shutdown budget spent, not waiting for service", zap.String("service", ns.name))
			continue
		}
		select {
		case <-done:
			l.logger.Info("service stopped",
				zap.String("service", ns.name),
				zap.Duration("elapsed", time.Since(svcStart)),
			)
		case <-deadline.C:
			expired = true
			l.logger.Warn("service did not stop within the shutdown budget",
				zap.String("service", ns.name),
				zap.Duration("timeout", l.timeout),
			)
		}
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
