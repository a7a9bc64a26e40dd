package state

import (
	"context"
	"sync"
)

// Channel is a latest-value broadcaster of connection states.
type Channel struct {
	mu        sync.Mutex
	current   State
	observers map[int]chan State
	nextID    int
}

// NewChannel creates a channel holding the Init state.
func NewChannel() *Channel {
	return &Channel{
		current:   Init(),
		observers: make(map[int]chan State),
	}
}

// Publish overwrites the current state and wakes all observers.
// Observers that have not consumed the previous value see only the
// latest one.
func (c *Channel) Publish(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = s

	for _, ch := range c.observers {
		// Drain the stale value so the buffered send below cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Current returns the most recently published state.
func (c *Channel) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Observe returns a channel that yields the current state immediately,
// then every subsequent publish in order. The observer is deregistered
// when ctx is cancelled.
func (c *Channel) Observe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = ch
	ch <- c.current
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}()

	return ch
}
