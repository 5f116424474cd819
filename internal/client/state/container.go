// Package state holds the client-side cached copies of the current user,
// the product list and the wishlist. Every change to a container, whether it
// comes from a fetch, a local write or a live snapshot, is an event applied
// by the container's single goroutine in arrival order.
package state

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Apply once the container is closed.
var ErrClosed = errors.New("state container closed")

// State is the observable value of a container.
type State[T any] struct {
	Value   T
	Loading bool
	// Err describes the last failed operation; empty when it succeeded.
	Err string
	// Revision is the store revision of the last applied live snapshot.
	Revision int64
}

// Reducer computes the next state. It runs on the apply goroutine and must
// not block.
type Reducer[T any] func(State[T]) State[T]

type event[T any] struct {
	reduce Reducer[T]
	done   chan State[T]
}

// Container serialises reducers over one State.
type Container[T any] struct {
	clone func(T) T

	events chan event[T]
	quit   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	state     State[T]
	subs      map[int]chan State[T]
	nextSubID int
	closeOnce sync.Once
}

// NewContainer starts the apply goroutine. clone copies a value before it
// leaves the container so callers never share memory with the cache.
func NewContainer[T any](initial T, clone func(T) T) *Container[T] {
	c := &Container[T]{
		clone:  clone,
		events: make(chan event[T]),
		quit:   make(chan struct{}),
		state:  State[T]{Value: initial},
		subs:   map[int]chan State[T]{},
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Container[T]) run() {
	defer c.wg.Done()
	for {
		select {
		case ev := <-c.events:
			c.mu.Lock()
			next := ev.reduce(c.state)
			c.state = next
			snapshot := c.copyState(next)
			for _, ch := range c.subs {
				publish(ch, c.copyState(next))
			}
			c.mu.Unlock()
			ev.done <- snapshot
		case <-c.quit:
			return
		}
	}
}

// publish replaces whatever the subscriber has not read yet with s.
func publish[T any](ch chan State[T], s State[T]) {
	select {
	case <-ch:
	default:
	}
	ch <- s
}

func (c *Container[T]) copyState(s State[T]) State[T] {
	if c.clone != nil {
		s.Value = c.clone(s.Value)
	}
	return s
}

// Apply queues r and waits until it has been applied. It returns the state
// right after r.
func (c *Container[T]) Apply(ctx context.Context, r Reducer[T]) (State[T], error) {
	ev := event[T]{reduce: r, done: make(chan State[T], 1)}
	select {
	case c.events <- ev:
	case <-c.quit:
		return State[T]{}, ErrClosed
	case <-ctx.Done():
		return State[T]{}, ctx.Err()
	}
	return <-ev.done, nil
}

// Get returns a copy of the current state.
func (c *Container[T]) Get() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState(c.state)
}

// Subscribe returns a channel that receives a copy of the state after every
// applied event. A slow subscriber only sees the latest state. The channel
// is closed by cancel or by Close.
func (c *Container[T]) Subscribe() (<-chan State[T], func()) {
	ch := make(chan State[T], 1)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Close stops the apply goroutine and closes all subscriber channels.
func (c *Container[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.wg.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
	})
}
