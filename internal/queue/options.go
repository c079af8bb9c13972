package queue

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Queue
type Option func(*options)

type options struct {
	maxConcurrent      int
	pollInterval       time.Duration
	drainTimeout       time.Duration
	defaultMaxAttempts int
	defaultTimeout     time.Duration
	logger             *slog.Logger
}

func defaultOptions() *options {
	return &options{
		maxConcurrent:      1,
		pollInterval:       100 * time.Millisecond,
		drainTimeout:       5 * time.Second,
		defaultMaxAttempts: 3,
		defaultTimeout:     0, // no timeout unless the caller asks for one
		logger:             slog.Default(),
	}
}

// WithMaxConcurrent sets the cap on simultaneously processing items
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithPollInterval sets the dispatcher tick interval
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithDrainTimeout bounds how long Stop waits for in-flight items
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.drainTimeout = d
		}
	}
}

// WithDefaultMaxAttempts sets the retry budget applied when an enqueue
// call does not specify its own
func WithDefaultMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.defaultMaxAttempts = n
		}
	}
}

// WithDefaultTimeout sets the processing timeout applied when an enqueue
// call does not specify its own
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

// WithLogger sets the queue's logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// EnqueueOption is a functional option for a single Enqueue call
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	priority    Priority
	maxAttempts int
	timeout     time.Duration
	metadata    map[string]string
}

// WithPriority sets the item's priority
func WithPriority(p Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

// WithMaxAttempts overrides the queue's default retry budget for this item
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithTimeout overrides the queue's default processing timeout for this item
func WithTimeout(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMetadata attaches caller metadata to the item
func WithMetadata(md map[string]string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.metadata = md
	}
}
