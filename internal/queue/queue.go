package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const drainPollInterval = 50 * time.Millisecond

// Queue is an in-process asynchronous task queue. It admits work items,
// bounds how many run concurrently, enforces priority and retry policy,
// and reports each item's outcome back through its Ticket.
//
// The queue is memory-resident: unprocessed items are lost on restart.
// Delivery is at-most-one-concurrent-attempt with best-effort retries.
type Queue struct {
	mu       sync.Mutex
	store    *store
	inFlight int
	running  bool
	stopChan chan struct{}
	seq      uint64

	// cumulative terminal counters; terminal items leave the store
	// once their ticket has captured the outcome
	completed uint64
	failed    uint64

	maxConcurrent      int
	pollInterval       time.Duration
	drainTimeout       time.Duration
	defaultMaxAttempts int
	defaultTimeout     time.Duration
	logger             *slog.Logger
}

// New creates a stopped queue; call Start to begin dispatching
func New(opts ...Option) *Queue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Queue{
		store:              newStore(),
		maxConcurrent:      o.maxConcurrent,
		pollInterval:       o.pollInterval,
		drainTimeout:       o.drainTimeout,
		defaultMaxAttempts: o.defaultMaxAttempts,
		defaultTimeout:     o.defaultTimeout,
		logger:             o.logger,
	}
}

// Enqueue admits one unit of work and returns its Ticket. The queue never
// inspects the payload; it is handed to the processor as-is. Items may be
// enqueued while the queue is stopped; they are dispatched after Start.
func (q *Queue) Enqueue(payload any, processor Processor, opts ...EnqueueOption) (*Ticket, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}

	o := &enqueueOptions{
		priority:    PriorityNormal,
		maxAttempts: q.defaultMaxAttempts,
		timeout:     q.defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	it := &Item{
		ID:          uuid.New(),
		Payload:     payload,
		Priority:    o.priority,
		Status:      StatusQueued,
		EnqueuedAt:  time.Now(),
		MaxAttempts: o.maxAttempts,
		Timeout:     o.timeout,
		Metadata:    o.metadata,
		processor:   processor,
	}
	it.ticket = newTicket(it.ID)

	q.mu.Lock()
	it.seq = q.seq
	q.seq++
	q.store.insert(it)
	q.mu.Unlock()

	q.logger.Debug("Item enqueued",
		slog.String("item_id", it.ID.String()),
		slog.Int("priority", int(it.Priority)),
		slog.Int("max_attempts", it.MaxAttempts),
	)

	return it.ticket, nil
}

// Start begins the dispatcher tick. Calling Start on a running queue is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.stopChan = make(chan struct{})
	stop := q.stopChan
	q.mu.Unlock()

	go q.run(stop)

	q.logger.Info("Queue started",
		slog.Int("max_concurrent", q.maxConcurrent),
		slog.Duration("poll_interval", q.pollInterval),
	)
}

// Stop cancels the dispatcher tick and drains in-flight work up to the
// drain timeout. Items already processing are not canceled; queued items
// stay in the store and are dispatched again after a later Start. Calling
// Stop on a stopped queue is a no-op.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopChan)
	q.mu.Unlock()

	q.logger.Info("Queue stopping, draining in-flight items",
		slog.Duration("drain_timeout", q.drainTimeout),
	)

	deadline := time.Now().Add(q.drainTimeout)
	for {
		q.mu.Lock()
		remaining := q.inFlight
		q.mu.Unlock()

		if remaining == 0 {
			q.logger.Info("Queue stopped")
			return
		}

		if time.Now().After(deadline) {
			q.logger.Warn("Queue drain timeout exceeded, abandoning in-flight items",
				slog.Int("abandoned", remaining),
			)
			return
		}

		time.Sleep(drainPollInterval)
	}
}

// run is the dispatcher loop; one per Start/Stop cycle
func (q *Queue) run(stop <-chan struct{}) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			q.safeTick()
		}
	}
}

// safeTick shields the dispatcher loop from a panicking tick: the fault
// is logged and the next interval proceeds normally
func (q *Queue) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Dispatcher tick panicked",
				slog.Any("panic", r),
			)
		}
	}()
	q.tick()
}

// tick fills free concurrency slots with the most eligible queued items.
// It never blocks on the work itself: each item runs on its own goroutine
// and reports back through settle.
func (q *Queue) tick() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.inFlight < q.maxConcurrent {
		it := q.store.next()
		if it == nil {
			return
		}

		it.Status = StatusProcessing
		it.StartedAt = time.Now()
		q.inFlight++

		go q.process(it)
	}
}

func (q *Queue) process(it *Item) {
	result, err := q.invoke(it)
	q.settle(it, result, err)
}

// invoke runs the processor with the item's timeout. A panic is converted
// into an ordinary failure so one bad processor cannot take the queue down.
func (q *Queue) invoke(it *Item) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panicked: %v", r)
		}
	}()

	ctx := context.Background()
	if it.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, it.Timeout)
		defer cancel()
	}

	return it.processor(ctx, it.Payload)
}

// settle applies the outcome of one processing attempt: completion,
// re-admission with an incremented attempt counter, or terminal failure.
// Terminal items settle their ticket first and only then leave the store.
func (q *Queue) settle(it *Item, result any, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.inFlight--

	if err == nil {
		it.Status = StatusCompleted
		it.CompletedAt = time.Now()
		it.Result = result
		q.completed++

		it.ticket.settle(result, nil)
		q.store.remove(it.ID)

		q.logger.Debug("Item completed",
			slog.String("item_id", it.ID.String()),
			slog.Int("attempts", it.Attempts),
			slog.Duration("latency", it.CompletedAt.Sub(it.EnqueuedAt)),
		)
		return
	}

	it.Attempts++

	if it.Attempts < it.MaxAttempts {
		// Back to the store with the original enqueue time, so the retry
		// keeps its FIFO slot within its priority band
		it.Status = StatusQueued
		it.StartedAt = time.Time{}

		q.logger.Warn("Item failed, requeueing",
			slog.String("item_id", it.ID.String()),
			slog.Int("attempts", it.Attempts),
			slog.Int("max_attempts", it.MaxAttempts),
			slog.String("error", err.Error()),
		)
		return
	}

	it.Status = StatusFailed
	it.CompletedAt = time.Now()
	it.Err = err
	q.failed++

	it.ticket.settle(nil, err)
	q.store.remove(it.ID)

	q.logger.Error("Item failed terminally",
		slog.String("item_id", it.ID.String()),
		slog.Int("attempts", it.Attempts),
		slog.String("error", err.Error()),
	)
}

// Find returns a snapshot of the item with the given id
func (q *Queue) Find(id uuid.UUID) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	it := q.store.find(id)
	if it == nil {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it.snapshot(), nil
}

// Items returns snapshots of every item currently held by the queue
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.store.all()
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.snapshot())
	}
	return out
}

// ItemsByStatus returns snapshots of items in the given status
func (q *Queue) ItemsByStatus(status Status) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.store.byStatus(status)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.snapshot())
	}
	return out
}

// Clear purges items from the queue and returns how many were removed.
// With onlyQueued set, processing items are left alone. Purged queued
// items reject their tickets with ErrItemEvicted so no caller hangs.
func (q *Queue) Clear(onlyQueued bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for _, it := range q.store.all() {
		if it.Status == StatusProcessing {
			// The running goroutine still owns this item; evicting it
			// here would race with its settle
			continue
		}
		if onlyQueued && it.Status != StatusQueued {
			continue
		}

		it.ticket.settle(nil, ErrItemEvicted)
		q.store.remove(it.ID)
		removed++
	}

	if removed > 0 {
		q.logger.Info("Queue cleared",
			slog.Int("removed", removed),
			slog.Bool("only_queued", onlyQueued),
		)
	}

	return removed
}

// IsRunning reports whether the dispatcher tick is active
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}
