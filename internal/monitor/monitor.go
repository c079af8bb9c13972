package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thanhpq/chatbot-be/internal/queue"
)

const (
	// EventQueueStats is the periodic metrics snapshot
	EventQueueStats = "queue_stats"
	// EventQueueFailures is emitted when terminal failures grew since
	// the previous sample
	EventQueueFailures = "queue_failures"

	publishTimeout = 5 * time.Second
)

// StatsSource is the queue introspection surface the monitor polls
type StatsSource interface {
	Stats() queue.Stats
}

// Publisher pushes serialized events to the message broker
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Event is the wire shape republished to the metrics exchange
type Event struct {
	Type        string      `json:"type"`
	Service     string      `json:"service"`
	Timestamp   time.Time   `json:"timestamp"`
	Stats       queue.Stats `json:"stats"`
	NewFailures uint64      `json:"new_failures,omitempty"`
}

// Config holds monitor configuration
type Config struct {
	Logger    *slog.Logger
	Service   string
	Interval  time.Duration
	Source    StatsSource
	Publisher Publisher
}

// Monitor polls queue stats on a fixed interval and republishes them as
// metrics events. Publish failures are logged and skipped; monitoring
// must never disturb the queue itself.
type Monitor struct {
	logger    *slog.Logger
	service   string
	interval  time.Duration
	source    StatsSource
	publisher Publisher

	mu         sync.Mutex
	running    bool
	stopChan   chan struct{}
	doneChan   chan struct{}
	lastFailed uint64
}

// New creates a stopped monitor
func New(cfg *Config) (*Monitor, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("stats source is required")
	}
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &Monitor{
		logger:    cfg.Logger,
		service:   cfg.Service,
		interval:  interval,
		source:    cfg.Source,
		publisher: cfg.Publisher,
	}, nil
}

// Start begins the sampling loop; idempotent
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	stop, done := m.stopChan, m.doneChan
	m.mu.Unlock()

	go m.run(stop, done)

	m.logger.Info("Queue monitor started",
		slog.Duration("interval", m.interval),
	)
}

// Stop halts the sampling loop and waits for the current sample; idempotent
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	done := m.doneChan
	m.mu.Unlock()

	<-done
	m.logger.Info("Queue monitor stopped")
}

func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample takes one stats snapshot and republishes it
func (m *Monitor) sample() {
	stats := m.source.Stats()
	now := time.Now()

	m.publish(Event{
		Type:      EventQueueStats,
		Service:   m.service,
		Timestamp: now,
		Stats:     stats,
	})

	m.mu.Lock()
	newFailures := stats.ByStatus.Failed - m.lastFailed
	m.lastFailed = stats.ByStatus.Failed
	m.mu.Unlock()

	if newFailures > 0 {
		m.logger.Warn("Queue items failed terminally since last sample",
			slog.Uint64("new_failures", newFailures),
			slog.Uint64("total_failures", stats.ByStatus.Failed),
		)

		m.publish(Event{
			Type:        EventQueueFailures,
			Service:     m.service,
			Timestamp:   now,
			Stats:       stats,
			NewFailures: newFailures,
		})
	}
}

func (m *Monitor) publish(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Failed to marshal monitor event",
			slog.String("type", event.Type),
			slog.Any("error", err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := m.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		m.logger.Error("Failed to publish monitor event",
			slog.String("type", event.Type),
			slog.Any("error", err),
		)
	}
}
