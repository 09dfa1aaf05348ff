// Package session runs the client side of live queries: a bounded queue fed
// by store callbacks, drained by a transport, torn down exactly once.
package session

import (
	"context"
	"errors"
	"sync"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

// ErrClosed is returned by Send once the session has ended.
var ErrClosed = errors.New("session closed")

// Stream is what a transport sees of a session.
type Stream[T any] interface {
	// Updates is closed when the session ends. Check Err afterwards.
	Updates() <-chan T
	Err() error
	Cancel()
}

type Option func(o *options)

type options struct {
	onClose func(err error)
}

// WithOnClose registers a hook that runs once after the session has released
// its registrations.
func WithOnClose(fn func(err error)) Option {
	return func(o *options) { o.onClose = fn }
}

type Session[T any] struct {
	opts options

	out       chan T
	done      chan struct{}
	sendMu    sync.RWMutex
	outClosed bool

	mu       sync.Mutex
	regs     []docstore.Registration
	released bool
	err      error

	stopOnce    sync.Once
	releaseOnce sync.Once
}

var _ Stream[int] = (*Session[int])(nil)

// Open starts a session whose queue holds up to buffer snapshots. It is
// cancelled when ctx is done.
func Open[T any](ctx context.Context, buffer int, opts ...Option) *Session[T] {
	if buffer < 0 {
		buffer = 0
	}
	s := &Session[T]{
		out:  make(chan T, buffer),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-s.done:
		}
	}()

	return s
}

// Attach hands a store registration to the session. A registration attached
// after the session ended is removed right away.
func (s *Session[T]) Attach(reg docstore.Registration) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		reg.Remove()
		return
	}
	s.regs = append(s.regs, reg)
	s.mu.Unlock()
}

// Send queues v, blocking while the queue is full. It returns ErrClosed once
// the session has ended, and v is then discarded.
func (s *Session[T]) Send(v T) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	if s.outClosed {
		return ErrClosed
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.out <- v:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session[T]) Updates() <-chan T { return s.out }

// Done is closed as soon as the session stops accepting snapshots.
func (s *Session[T]) Done() <-chan struct{} { return s.done }

func (s *Session[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel ends the session without an error. It returns after every
// registration is removed and the Updates channel is closed, so it must not
// be called from a store callback. Calling it again is a no-op.
func (s *Session[T]) Cancel() {
	s.stop(nil)
	s.release()
}

// Fail ends the session with err. It is safe to call from a store callback:
// registrations are released on another goroutine.
func (s *Session[T]) Fail(err error) {
	if s.stop(err) {
		go s.release()
	}
}

func (s *Session[T]) stop(err error) bool {
	stopped := false
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
		stopped = true
	})
	return stopped
}

func (s *Session[T]) release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		regs := s.regs
		s.regs = nil
		s.released = true
		s.mu.Unlock()

		for _, reg := range regs {
			reg.Remove()
		}

		err := s.Err()

		// wait for in-flight Send calls, they return as soon as done is closed
		s.sendMu.Lock()
		if err == nil {
			// a cancelled session delivers nothing more
			drain(s.out)
		}
		s.outClosed = true
		close(s.out)
		s.sendMu.Unlock()

		if s.opts.onClose != nil {
			s.opts.onClose(err)
		}
	})
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
