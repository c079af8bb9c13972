package queue

// Stats is the queue's monitoring snapshot. Downstream monitoring polls
// it on a fixed interval and republishes it as metrics, so this shape is
// a contract.
type Stats struct {
	QueueLength int          `json:"queue_length"`
	InFlight    int          `json:"in_flight"`
	IsRunning   bool         `json:"is_running"`
	ByStatus    StatusCounts `json:"by_status"`
}

// StatusCounts breaks the snapshot down per status. Queued and Processing
// are live store counts; Completed and Failed are cumulative, since
// terminal items are evicted once their ticket observes the outcome.
type StatusCounts struct {
	Queued     int    `json:"queued"`
	Processing int    `json:"processing"`
	Completed  uint64 `json:"completed"`
	Failed     uint64 `json:"failed"`
}

// Stats returns a consistent snapshot of the queue's state
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		QueueLength: q.store.countByStatus(StatusQueued),
		InFlight:    q.inFlight,
		IsRunning:   q.running,
		ByStatus: StatusCounts{
			Queued:     q.store.countByStatus(StatusQueued),
			Processing: q.store.countByStatus(StatusProcessing),
			Completed:  q.completed,
			Failed:     q.failed,
		},
	}
}
