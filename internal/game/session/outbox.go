// Package session tracks users connected to the table console and which
// campaign table each of them sits at.
package session

import (
	"fmt"
	"sync"
)

// Outbox routes messages for one connection to a Go channel drained by
// the connection's writer goroutine.
type Outbox struct {
	id       string
	messages chan string
	mu       sync.Mutex
	closed   bool
}

// NewOutbox creates an Outbox for the connection id.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an Outbox with an open messages channel.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		id:       id,
		messages: make(chan string, bufferSize),
	}
}

// ID returns the connection identifier.
func (o *Outbox) ID() string {
	return o.id
}

// Push enqueues msg without blocking.
//
// Postcondition: msg is enqueued, or an error is returned if the outbox is closed or full.
func (o *Outbox) Push(msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.messages <- msg:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.id)
	}
}

// Messages returns the read-only messages channel.
func (o *Outbox) Messages() <-chan string {
	return o.messages
}

// Close marks the outbox as closed and closes the messages channel.
//
// Postcondition: The messages channel is closed. Further Push calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.messages)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
