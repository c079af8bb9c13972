package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Ticket is the caller's handle for one enqueued item. It settles exactly
// once: either with the processor's result or with the terminal error.
type Ticket struct {
	id   uuid.UUID
	done chan struct{}

	once   sync.Once
	result any
	err    error
}

func newTicket(id uuid.UUID) *Ticket {
	return &Ticket{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the id of the item this ticket tracks
func (t *Ticket) ID() uuid.UUID {
	return t.id
}

// Done returns a channel closed when the item reaches a terminal status
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Result returns the settled outcome, or ErrNotSettled if the item is
// still in flight
func (t *Ticket) Result() (any, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return nil, ErrNotSettled
	}
}

// Wait blocks until the item settles or ctx is canceled
func (t *Ticket) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle records the outcome and releases waiters. The sync.Once keeps
// the exactly-once contract even under concurrent completion paths.
func (t *Ticket) settle(result any, err error) {
	t.once.Do(func() {
		t.result = result
		t.err = err
		close(t.done)
	})
}
