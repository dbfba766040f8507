// Package command holds deferred mutations produced outside the frame
// goroutine (path query callbacks) until the frame reaches its sync point.
package command

import "sync"

// Buffer is a goroutine-safe queue of pending mutations. Push may be called
// from any goroutine; Flush runs the queued commands in push order on the
// caller's goroutine. Commands pushed while a Flush is running are kept for
// the next Flush.
type Buffer struct {
	mu      sync.Mutex
	pending []func()
	spare   []func()
}

func NewBuffer() *Buffer {
	return &Buffer{
		pending: make([]func(), 0, 256),
		spare:   make([]func(), 0, 256),
	}
}

func (b *Buffer) Push(cmd func()) {
	b.mu.Lock()
	b.pending = append(b.pending, cmd)
	b.mu.Unlock()
}

// Flush applies every command queued so far and returns how many ran.
func (b *Buffer) Flush() int {
	b.mu.Lock()
	batch := b.pending
	b.pending = b.spare[:0]
	b.mu.Unlock()

	for i, cmd := range batch {
		cmd()
		batch[i] = nil
	}

	b.mu.Lock()
	b.spare = batch[:0]
	b.mu.Unlock()
	return len(batch)
}

// Len reports the number of commands waiting for the next Flush.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
