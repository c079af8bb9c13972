package queue

import "errors"

var (
	// ErrNilProcessor is returned when Enqueue is called without a processor
	ErrNilProcessor = errors.New("processor cannot be nil")

	// ErrItemNotFound is returned when a looked-up item id is no longer present
	ErrItemNotFound = errors.New("item not found")

	// ErrItemEvicted is the rejection delivered to tickets whose item was
	// removed from the queue before reaching a terminal status
	ErrItemEvicted = errors.New("item evicted before completion")

	// ErrNotSettled is returned by Ticket.Result before the outcome is known
	ErrNotSettled = errors.New("item has not settled yet")
)
