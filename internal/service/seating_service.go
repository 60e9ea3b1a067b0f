// Package service orchestrates seating runs: per-event locking, snapshot
// loading, allocation, the transactional write and the side effects that
// follow a committed run.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seating/internal/lock"
	"github.com/iliyamo/event-seating/internal/metrics"
	"github.com/iliyamo/event-seating/internal/queue"
	"github.com/iliyamo/event-seating/internal/repository"
	"github.com/iliyamo/event-seating/internal/seating"
)

// ErrSeatingBusy is returned when another run or move holds the event lock.
var ErrSeatingBusy = errors.New("seating run already in progress")

// SeatingStore is the persistence the service needs.
type SeatingStore interface {
	LoadSnapshot(ctx context.Context, eventID uint64) (*repository.Snapshot, error)
	ApplyAutoAssign(ctx context.Context, eventID uint64, keepExisting bool, assignments []seating.Assignment) error
	MoveGuests(ctx context.Context, eventID uint64, moves []repository.GuestMove) error
}

// EventPublisher announces committed runs.
type EventPublisher interface {
	PublishSeatingAssigned(ctx context.Context, ev queue.SeatingAssignedEvent) error
}

// CacheInvalidator drops cached views of an event.
type CacheInvalidator interface {
	InvalidateEvent(ctx context.Context, eventID uint64) error
}

// Options configures a SeatingService.  Zero values fall back to defaults
// and nil collaborators are replaced by no-ops.
type Options struct {
	LockTTL    time.Duration
	LockPrefix string
	RunTimeout time.Duration
	Publisher  EventPublisher
	Cache      CacheInvalidator
	Metrics    metrics.Recorder
	Logger     *zap.Logger
}

// SeatingService runs automatic and manual seating for events.
type SeatingService struct {
	store   SeatingStore
	locker  lock.Locker
	pub     EventPublisher
	cache   CacheInvalidator
	metrics metrics.Recorder
	log     *zap.Logger

	lockTTL    time.Duration
	lockPrefix string
	runTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// NewSeatingService wires a service around store and locker.
func NewSeatingService(store SeatingStore, locker lock.Locker, opts Options) *SeatingService {
	s := &SeatingService{
		store:      store,
		locker:     locker,
		pub:        opts.Publisher,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		lockTTL:    opts.LockTTL,
		lockPrefix: opts.LockPrefix,
		runTimeout: opts.RunTimeout,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.runTimeout <= 0 {
		s.runTimeout = 15 * time.Second
	}
	if s.lockTTL < s.runTimeout {
		s.lockTTL = 2 * s.runTimeout
	}
	if s.lockPrefix == "" {
		s.lockPrefix = "lock:seating"
	}
	return s
}

// RunSummary is the response of an automatic run.
type RunSummary struct {
	RunID         string               `json:"run_id"`
	EventID       uint64               `json:"event_id"`
	KeepExisting  bool                 `json:"keep_existing"`
	Assigned      int                  `json:"assigned"`
	Unassigned    int                  `json:"unassigned"`
	Status        seating.Outcome      `json:"status"`
	Assignments   []seating.Assignment `json:"assignments"`
	UnassignedIDs []uint64             `json:"unassigned_ids"`
	TableCounts   map[uint64]int       `json:"table_counts"`
	SplitClusters int                  `json:"split_clusters"`
}

func (s *SeatingService) lockKey(eventID uint64) string {
	return s.lockPrefix + ":" + strconv.FormatUint(eventID, 10)
}

func (s *SeatingService) acquire(ctx context.Context, eventID uint64) (lock.Lease, error) {
	lease, err := s.locker.Acquire(ctx, s.lockKey(eventID), s.lockTTL)
	if errors.Is(err, lock.ErrLocked) {
		return nil, ErrSeatingBusy
	}
	if err != nil {
		return nil, fmt.Errorf("acquire seating lock: %w", err)
	}
	return lease, nil
}

func (s *SeatingService) release(lease lock.Lease, eventID uint64) {
	// The request context may already be cancelled; release on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lease.Release(ctx); err != nil {
		s.log.Warn("release seating lock failed", zap.Uint64("event_id", eventID), zap.Error(err))
	}
}

// AutoAssign runs the allocator for an event and commits the result.  It
// returns ErrSeatingBusy when the event is locked, seating.ErrNoTables when
// the event has no usable table and repository.ErrConflict when guests
// changed between snapshot and write.  Publishing and cache invalidation
// failures are logged and never fail the run.
func (s *SeatingService) AutoAssign(ctx context.Context, eventID uint64, keepExisting bool) (*RunSummary, error) {
	started := s.now()
	runID := s.newID()
	log := s.log.With(zap.String("run_id", runID), zap.Uint64("event_id", eventID), zap.Bool("keep_existing", keepExisting))

	lease, err := s.acquire(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrSeatingBusy) {
			s.metrics.RecordRun(metrics.OutcomeBusy, 0, 0, s.now().Sub(started))
		}
		return nil, err
	}
	defer s.release(lease, eventID)

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	summary, err := s.run(runCtx, eventID, keepExisting, log)
	elapsed := s.now().Sub(started)
	if err != nil {
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(err, seating.ErrNoTables):
			outcome = metrics.OutcomeNoTables
		case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrOverCapacity):
			outcome = metrics.OutcomeConflict
		}
		s.metrics.RecordRun(outcome, 0, 0, elapsed)
		log.Warn("seating run failed", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}
	summary.RunID = runID
	s.metrics.RecordRun(string(summary.Status), summary.Assigned, summary.Unassigned, elapsed)
	log.Info("seating run committed",
		zap.Int("assigned", summary.Assigned),
		zap.Int("unassigned", summary.Unassigned),
		zap.String("status", string(summary.Status)),
		zap.Duration("elapsed", elapsed),
	)

	s.invalidate(ctx, eventID)
	if s.pub != nil {
		ev := queue.SeatingAssignedEvent{
			RunID:        runID,
			EventID:      eventID,
			KeepExisting: keepExisting,
			Assigned:     summary.Assigned,
			Unassigned:   summary.Unassigned,
			Status:       string(summary.Status),
			TableCounts:  tableCounts(summary.TableCounts),
			FinishedAt:   s.now().UTC().Format(time.RFC3339),
		}
		if err := s.pub.PublishSeatingAssigned(ctx, ev); err != nil {
			log.Warn("seating event not published", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *SeatingService) run(ctx context.Context, eventID uint64, keepExisting bool, log *zap.Logger) (*RunSummary, error) {
	snap, err := s.store.LoadSnapshot(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	res, err := seating.Allocate(seating.Request{
		EventID:      eventID,
		KeepExisting: keepExisting,
		Guests:       snap.Guests,
		Tables:       snap.Tables,
	}, seating.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.ApplyAutoAssign(ctx, eventID, keepExisting, res.Assignments); err != nil {
		return nil, fmt.Errorf("apply assignments: %w", err)
	}
	assignments := res.Assignments
	if assignments == nil {
		assignments = []seating.Assignment{}
	}
	unassigned := res.Unassigned
	if unassigned == nil {
		unassigned = []uint64{}
	}
	return &RunSummary{
		EventID:       eventID,
		KeepExisting:  keepExisting,
		Assigned:      res.AssignedCount,
		Unassigned:    len(res.Unassigned),
		Status:        res.Outcome(),
		Assignments:   assignments,
		UnassignedIDs: unassigned,
		TableCounts:   res.TableCounts(),
		SplitClusters: res.SplitClusters,
	}, nil
}

// Move applies manual seating changes under the event lock so they never
// interleave with an automatic run.
func (s *SeatingService) Move(ctx context.Context, eventID uint64, moves []repository.GuestMove) error {
	lease, err := s.acquire(ctx, eventID)
	if err != nil {
		return err
	}
	defer s.release(lease, eventID)

	if err := s.store.MoveGuests(ctx, eventID, moves); err != nil {
		return err
	}
	s.log.Info("guests moved", zap.Uint64("event_id", eventID), zap.Int("moves", len(moves)))
	s.invalidate(ctx, eventID)
	return nil
}

func (s *SeatingService) invalidate(ctx context.Context, eventID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
		s.log.Warn("cache invalidation failed", zap.Uint64("event_id", eventID), zap.Error(err))
	}
}

func tableCounts(counts map[uint64]int) map[string]int {
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[strconv.FormatUint(id, 10)] = n
	}
	return out
}
