// Package queue carries seating domain events over RabbitMQ: the payload
// published after every committed automatic run, its publisher and the
// background consumer that records runs in logs/seating.log.
package queue

// SeatingAssignedEvent is published after an automatic seating run has
// been committed.  It carries enough for downstream consumers to log,
// notify or aggregate without querying the primary database.
type SeatingAssignedEvent struct {
	RunID        string         `json:"run_id"`
	EventID      uint64         `json:"event_id"`
	KeepExisting bool           `json:"keep_existing"`
	Assigned     int            `json:"assigned"`
	Unassigned   int            `json:"unassigned"`
	Status       string         `json:"status"`       // "full" or "partial"
	TableCounts  map[string]int `json:"table_counts"` // table id -> guests placed in this run
	FinishedAt   string         `json:"finished_at"`  // RFC 3339, UTC
}
