package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a work item
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Priority controls admission order: higher values are dispatched first.
// Any integer is accepted; the constants below are the canonical tiers.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 10
	PriorityUrgent Priority = 20
)

// Processor is the caller-supplied function that performs the actual work.
// The context carries the per-item timeout; processors that ignore it can
// occupy a concurrency slot past their deadline.
type Processor func(ctx context.Context, payload any) (any, error)

// Item is the queue's record for one unit of admitted work
type Item struct {
	ID          uuid.UUID         `json:"id"`
	Payload     any               `json:"payload,omitempty"`
	Priority    Priority          `json:"priority"`
	Status      Status            `json:"status"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
	StartedAt   time.Time         `json:"started_at,omitzero"`
	CompletedAt time.Time         `json:"completed_at,omitzero"`
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"max_attempts"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Result      any               `json:"result,omitempty"`
	Err         error             `json:"-"`

	// seq breaks ties between items enqueued at the same instant so
	// equal-priority ordering stays deterministic
	seq       uint64
	processor Processor
	ticket    *Ticket
}

// snapshot returns a detached copy safe to hand to callers
func (it *Item) snapshot() Item {
	cp := *it
	cp.processor = nil
	cp.ticket = nil
	if it.Metadata != nil {
		cp.Metadata = make(map[string]string, len(it.Metadata))
		for k, v := range it.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}
