package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by Call once the scheduler no longer runs tasks.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler runs submitted tasks one at a time, in submission order, on a
// single goroutine. State touched only from tasks needs no locking.
//
// I/O never happens inside a task. Goroutines doing I/O post their results
// back with Submit or Call.
type Scheduler struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
}

// NewScheduler creates a scheduler. Tasks submitted before Run are queued.
func NewScheduler() *Scheduler {
	return &Scheduler{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled. Queued tasks that have not
// started are discarded.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.stop()

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for i, task := range batch {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			task()
			batch[i] = nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// Done is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Submit queues f without blocking. It reports false if the scheduler has
// stopped, in which case f will never run.
func (s *Scheduler) Submit(f func()) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, f)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Call queues f and waits until it has run.
func (s *Scheduler) Call(ctx context.Context, f func()) error {
	ran := make(chan struct{})
	if !s.Submit(func() {
		defer close(ran)
		f()
	}) {
		return ErrStopped
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		// f may have completed just before the stop.
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// AfterFunc submits f as a task once d has elapsed. Stopping the returned
// timer before it fires prevents f from being queued.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) *time.Timer {
	return time.AfterFunc(d, func() {
		s.Submit(f)
	})
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.mu.Unlock()
	close(s.done)
}
