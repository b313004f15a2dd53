// Package semaphore bounds how many callers run a section at once.
package semaphore

import "context"

// Semaphore is a counting semaphore backed by a buffered channel.
type Semaphore struct {
	ch chan struct{}
}

// New creates a semaphore with the given capacity (minimum 1).
func New(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &Semaphore{
		ch: make(chan struct{}, capacity),
	}
}

// Acquire takes a slot, blocking until one is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (s *Semaphore) Release() {
	<-s.ch
}

// InUse reports how many slots are currently held.
func (s *Semaphore) InUse() int {
	return len(s.ch)
}

// Capacity returns the slot count.
func (s *Semaphore) Capacity() int {
	return cap(s.ch)
}
