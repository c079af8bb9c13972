package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, opts ...Option) *Queue {
	t.Helper()

	base := []Option{
		WithPollInterval(5 * time.Millisecond),
		WithDrainTimeout(2 * time.Second),
	}
	q := New(append(base, opts...)...)
	t.Cleanup(q.Stop)
	return q
}

func waitTicket(t *testing.T, ticket *Ticket) (any, error) {
	t.Helper()

	select {
	case <-ticket.Done():
		return ticket.Result()
	case <-time.After(5 * time.Second):
		t.Fatal("ticket did not settle in time")
		return nil, nil
	}
}

func TestQueue_EnqueueValidation(t *testing.T) {
	q := newTestQueue(t)

	ticket, err := q.Enqueue("payload", nil)
	require.ErrorIs(t, err, ErrNilProcessor)
	assert.Nil(t, ticket)
}

func TestQueue_PriorityOrdering(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))

	var mu sync.Mutex
	var order []string

	enqueue := func(name string, p Priority) *Ticket {
		ticket, err := q.Enqueue(name, func(ctx context.Context, payload any) (any, error) {
			mu.Lock()
			order = append(order, payload.(string))
			mu.Unlock()
			return nil, nil
		}, WithPriority(p))
		require.NoError(t, err)
		return ticket
	}

	// Admitted before the dispatcher starts, so eligibility is decided
	// purely by priority
	tickets := []*Ticket{
		enqueue("low", PriorityLow),
		enqueue("urgent", PriorityUrgent),
		enqueue("normal", PriorityNormal),
	}

	q.Start()
	for _, ticket := range tickets {
		_, err := waitTicket(t, ticket)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"urgent", "normal", "low"}, order)
}

func TestQueue_FIFOWithinPriority(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))

	var mu sync.Mutex
	var order []int

	var tickets []*Ticket
	for i := 0; i < 5; i++ {
		ticket, err := q.Enqueue(i, func(ctx context.Context, payload any) (any, error) {
			mu.Lock()
			order = append(order, payload.(int))
			mu.Unlock()
			return nil, nil
		})
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	q.Start()
	for _, ticket := range tickets {
		_, err := waitTicket(t, ticket)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestQueue_ConcurrencyCap(t *testing.T) {
	const maxConcurrent = 2

	q := newTestQueue(t, WithMaxConcurrent(maxConcurrent))
	q.Start()

	var current, peak atomic.Int64

	var tickets []*Ticket
	for i := 0; i < 10; i++ {
		ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			current.Add(-1)
			return nil, nil
		})
		require.NoError(t, err)
		tickets = append(tickets, ticket)

		stats := q.Stats()
		assert.LessOrEqual(t, stats.InFlight, maxConcurrent)
	}

	for _, ticket := range tickets {
		_, err := waitTicket(t, ticket)
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, peak.Load(), int64(maxConcurrent))
	assert.Equal(t, uint64(10), q.Stats().ByStatus.Completed)
}

func TestQueue_RetryThenSucceed(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))
	q.Start()

	var calls atomic.Int32
	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		if calls.Add(1) <= 2 {
			return nil, errors.New("transient failure")
		}
		return "done", nil
	}, WithMaxAttempts(3))
	require.NoError(t, err)

	result, err := waitTicket(t, ticket)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	// Two failed attempts before the third run succeeded
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueue_RetryExhaustion(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))
	q.Start()

	t.Run("single attempt", func(t *testing.T) {
		var calls atomic.Int32
		ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
			calls.Add(1)
			return nil, errors.New("boom")
		}, WithMaxAttempts(1))
		require.NoError(t, err)

		_, err = waitTicket(t, ticket)
		require.Error(t, err)
		assert.Equal(t, "boom", err.Error())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("budget of three", func(t *testing.T) {
		var calls atomic.Int32
		ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
			return nil, fmt.Errorf("attempt %d failed", calls.Add(1))
		}, WithMaxAttempts(3))
		require.NoError(t, err)

		_, err = waitTicket(t, ticket)
		require.Error(t, err)
		// The rejection carries the last observed error
		assert.Equal(t, "attempt 3 failed", err.Error())
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestQueue_ProcessorPanic(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))
	q.Start()

	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		panic("unexpected state")
	}, WithMaxAttempts(1))
	require.NoError(t, err)

	_, err = waitTicket(t, ticket)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor panicked")
	assert.Contains(t, err.Error(), "unexpected state")
}

func TestQueue_Timeout(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))
	q.Start()

	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, WithMaxAttempts(1), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = waitTicket(t, ticket)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ExactlyOnceSettlement(t *testing.T) {
	const n = 20

	q := newTestQueue(t, WithMaxConcurrent(4))
	q.Start()

	var tickets []*Ticket
	for i := 0; i < n; i++ {
		fail := i%2 == 0
		ticket, err := q.Enqueue(i, func(ctx context.Context, payload any) (any, error) {
			if fail {
				return nil, errors.New("even items fail")
			}
			return payload, nil
		}, WithMaxAttempts(2))
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	resolved, rejected := 0, 0
	for i, ticket := range tickets {
		result, err := waitTicket(t, ticket)
		if err != nil {
			rejected++
		} else {
			resolved++
			assert.Equal(t, i, result)
		}

		// The outcome must be stable across repeated reads
		again, errAgain := ticket.Result()
		assert.Equal(t, result, again)
		assert.Equal(t, err, errAgain)
	}

	assert.Equal(t, n/2, resolved)
	assert.Equal(t, n/2, rejected)

	stats := q.Stats()
	assert.Equal(t, uint64(n/2), stats.ByStatus.Completed)
	assert.Equal(t, uint64(n/2), stats.ByStatus.Failed)
}

func TestQueue_DrainOnStop(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(2))
	q.Start()

	var tickets []*Ticket
	for i := 0; i < 6; i++ {
		ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return nil, nil
		})
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	for _, ticket := range tickets {
		_, err := waitTicket(t, ticket)
		require.NoError(t, err)
	}

	q.Stop()

	stats := q.Stats()
	assert.False(t, stats.IsRunning)
	assert.Equal(t, 0, stats.InFlight)
	assert.Empty(t, q.ItemsByStatus(StatusProcessing))
}

func TestQueue_StopStartRestart(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))

	var calls atomic.Int32
	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		calls.Add(1)
		return "restarted", nil
	})
	require.NoError(t, err)

	// Stopped queue admits work but never dispatches it
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 1, q.Stats().QueueLength)

	q.Start()
	q.Stop()
	q.Start()

	result, err := waitTicket(t, ticket)
	require.NoError(t, err)
	assert.Equal(t, "restarted", result)
}

func TestQueue_StartStopIdempotent(t *testing.T) {
	q := newTestQueue(t)

	q.Start()
	q.Start()
	assert.True(t, q.IsRunning())

	q.Stop()
	q.Stop()
	assert.False(t, q.IsRunning())
}

func TestQueue_FindAndIntrospection(t *testing.T) {
	q := newTestQueue(t)

	ticket, err := q.Enqueue("hello", func(ctx context.Context, payload any) (any, error) {
		return nil, nil
	}, WithPriority(PriorityHigh), WithMetadata(map[string]string{"source": "test"}))
	require.NoError(t, err)

	it, err := q.Find(ticket.ID())
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, it.Status)
	assert.Equal(t, PriorityHigh, it.Priority)
	assert.Equal(t, "test", it.Metadata["source"])
	assert.False(t, it.EnqueuedAt.IsZero())

	assert.Len(t, q.Items(), 1)
	assert.Len(t, q.ItemsByStatus(StatusQueued), 1)

	_, err = q.Find(uuid.New())
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestQueue_LookupAfterCompletion(t *testing.T) {
	q := newTestQueue(t, WithMaxConcurrent(1))
	q.Start()

	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	_, err = waitTicket(t, ticket)
	require.NoError(t, err)

	// Terminal items are evicted once their outcome is delivered
	_, err = q.Find(ticket.ID())
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestQueue_Clear(t *testing.T) {
	q := newTestQueue(t)

	var tickets []*Ticket
	for i := 0; i < 3; i++ {
		ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
			return nil, nil
		})
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	removed := q.Clear(true)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, q.Stats().QueueLength)

	// Evicted items reject instead of hanging their callers
	for _, ticket := range tickets {
		_, err := ticket.Wait(context.Background())
		require.ErrorIs(t, err, ErrItemEvicted)
	}
}

func TestTicket_ResultBeforeSettlement(t *testing.T) {
	q := newTestQueue(t)

	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	_, err = ticket.Result()
	require.ErrorIs(t, err, ErrNotSettled)
}

func TestTicket_WaitContextCanceled(t *testing.T) {
	q := newTestQueue(t)

	ticket, err := q.Enqueue(nil, func(ctx context.Context, payload any) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ticket.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
