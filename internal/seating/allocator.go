package seating

import (
	"errors"
	"sort"

	"go.uber.org/zap"
)

// ErrNoTables is returned when a request has no table with a positive
// capacity.  It is the only hard failure of Allocate; running out of seats is
// reported through Result.Unassigned instead.
var ErrNoTables = errors.New("seating: no usable tables")

const (
	reasonMissingID    = "missing guest id"
	reasonDuplicateID  = "duplicate guest id"
	reasonBadCapacity  = "capacity must be positive"
	reasonDuplicateTbl = "duplicate table id"
)

type options struct {
	log *zap.Logger
}

// Option configures Allocate.
type Option func(*options)

// WithLogger sets the logger used to report rejected input records.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Allocate computes table and seat assignments for the eligible guests of
// req.  With KeepExisting, guests that already have a table are left alone
// and each table's Occupancy is a floor; otherwise every guest is placed
// and all tables are treated as empty.
//
// Allocate never mutates req and keeps no state between calls.
func Allocate(req Request, opts ...Option) (*Result, error) {
	o := options{log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	log := o.log.With(zap.Uint64("event_id", req.EventID), zap.Bool("keep_existing", req.KeepExisting))

	res := &Result{}
	tables, start, taken := prepareTables(req, res, log)
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	guests := eligibleGuests(req, res, log)

	clusters := OrderClusters(BuildClusters(guests))
	fit := fitClusters(clusters, tables)

	res.Clusters = clusters
	res.Assignments = numberSeats(fit.placements, tables, start, taken)
	res.AssignedCount = len(res.Assignments)
	res.Unassigned = fit.unassigned
	res.SplitClusters = fit.splits

	log.Debug("seating allocation finished",
		zap.Int("eligible", len(guests)),
		zap.Int("clusters", len(clusters)),
		zap.Int("assigned", res.AssignedCount),
		zap.Int("unassigned", len(res.Unassigned)),
		zap.Int("split_clusters", res.SplitClusters),
	)
	return res, nil
}

// prepareTables validates the tables and returns the working state in name,
// id order together with the seat numbering start and taken seats per table.
func prepareTables(req Request, res *Result, log *zap.Logger) ([]tableState, map[uint64]int, map[uint64][]int) {
	valid := make([]Table, 0, len(req.Tables))
	seen := make(map[uint64]bool, len(req.Tables))
	for _, t := range req.Tables {
		reason := ""
		switch {
		case t.Capacity <= 0:
			reason = reasonBadCapacity
		case seen[t.ID]:
			reason = reasonDuplicateTbl
		}
		if reason != "" {
			log.Warn("table rejected", zap.Uint64("table_id", t.ID), zap.String("name", t.Name),
				zap.Int("capacity", t.Capacity), zap.String("reason", reason))
			res.RejectedTables = append(res.RejectedTables, RejectedTable{ID: t.ID, Name: t.Name, Reason: reason})
			continue
		}
		seen[t.ID] = true
		valid = append(valid, t)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Name != valid[j].Name {
			return valid[i].Name < valid[j].Name
		}
		return valid[i].ID < valid[j].ID
	})

	states := make([]tableState, 0, len(valid))
	start := make(map[uint64]int, len(valid))
	taken := make(map[uint64][]int)
	for _, t := range valid {
		used := 0
		if req.KeepExisting {
			used = t.Occupancy
			if used < 0 {
				used = 0
			}
			taken[t.ID] = t.SeatedNumbers
		}
		start[t.ID] = used
		states = append(states, tableState{id: t.ID, capacity: t.Capacity, used: used})
	}
	return states, start, taken
}

// eligibleGuests drops malformed and duplicate records and, for incremental
// runs, guests that are already seated.
func eligibleGuests(req Request, res *Result, log *zap.Logger) []Guest {
	out := make([]Guest, 0, len(req.Guests))
	seen := make(map[uint64]bool, len(req.Guests))
	for i, g := range req.Guests {
		reason := ""
		switch {
		case g.ID == 0:
			reason = reasonMissingID
		case seen[g.ID]:
			reason = reasonDuplicateID
		}
		if reason != "" {
			log.Warn("guest skipped", zap.Int("index", i), zap.Uint64("guest_id", g.ID), zap.String("reason", reason))
			res.SkippedGuests = append(res.SkippedGuests, SkippedGuest{Index: i, ID: g.ID, Reason: reason})
			continue
		}
		seen[g.ID] = true
		if req.KeepExisting && g.TableID != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}
