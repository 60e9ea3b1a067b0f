package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/event-seating/internal/model"
	"github.com/iliyamo/event-seating/internal/seating"
)

// Snapshot is the allocator input loaded for one event.
type Snapshot struct {
	Tables []seating.Table
	Guests []seating.Guest
}

// GuestMove is one manual seating change.  A nil TableID unseats the guest.
type GuestMove struct {
	GuestID uint64  `json:"guest_id"`
	TableID *uint64 `json:"table_id"`
}

// SeatingRepo implements the read and write paths of seating runs.  Both
// write paths run in a single transaction and lock the event's table rows
// so capacity checks cannot race with each other.
type SeatingRepo struct {
	db *sql.DB
}

// NewSeatingRepo constructs a SeatingRepo with the given DB handle.
func NewSeatingRepo(db *sql.DB) *SeatingRepo {
	return &SeatingRepo{db: db}
}

// LoadSnapshot reads the tables of an event in name,id order together with
// their occupancy and taken seat numbers, and every guest that has not
// declined in full_name,id order.  A guest without a group tag inherits
// the tag of its household.
func (r *SeatingRepo) LoadSnapshot(ctx context.Context, eventID uint64) (*Snapshot, error) {
	snap := &Snapshot{Tables: []seating.Table{}, Guests: []seating.Guest{}}

	index, err := r.loadTables(ctx, eventID, snap)
	if err != nil {
		return nil, err
	}
	if err := r.loadSeatNumbers(ctx, eventID, snap, index); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.full_name, COALESCE(g.group_tag, h.group_tag, ''), g.household_id, g.table_id
		   FROM guests g
		   LEFT JOIN households h ON h.id = g.household_id
		  WHERE g.event_id = ? AND g.rsvp_status <> ?
		  ORDER BY g.full_name, g.id`, eventID, model.RSVPDeclined)
	if err != nil {
		return nil, fmt.Errorf("load guests: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var g seating.Guest
		if err := rows.Scan(&g.ID, &g.FullName, &g.Group, &g.HouseholdID, &g.TableID); err != nil {
			return nil, err
		}
		snap.Guests = append(snap.Guests, g)
	}
	return snap, rows.Err()
}

func (r *SeatingRepo) loadTables(ctx context.Context, eventID uint64, snap *Snapshot) (map[uint64]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.capacity, COUNT(g.id)
		   FROM seating_tables t
		   LEFT JOIN guests g ON g.table_id = t.id
		  WHERE t.event_id = ?
		  GROUP BY t.id, t.name, t.capacity
		  ORDER BY t.name, t.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	defer rows.Close()
	index := map[uint64]int{}
	for rows.Next() {
		var t seating.Table
		if err := rows.Scan(&t.ID, &t.Name, &t.Capacity, &t.Occupancy); err != nil {
			return nil, err
		}
		index[t.ID] = len(snap.Tables)
		snap.Tables = append(snap.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return index, nil
}

func (r *SeatingRepo) loadSeatNumbers(ctx context.Context, eventID uint64, snap *Snapshot, index map[uint64]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT table_id, seat_number FROM guests
		  WHERE event_id = ? AND table_id IS NOT NULL AND seat_number IS NOT NULL
		  ORDER BY table_id, seat_number`, eventID)
	if err != nil {
		return fmt.Errorf("load seat numbers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tableID uint64
		var seat int
		if err := rows.Scan(&tableID, &seat); err != nil {
			return err
		}
		if i, ok := index[tableID]; ok {
			snap.Tables[i].SeatedNumbers = append(snap.Tables[i].SeatedNumbers, seat)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load seat numbers: %w", err)
	}
	return nil
}

// lockTables takes row locks on the event's tables and returns their
// capacities.
func lockTables(ctx context.Context, tx *sql.Tx, eventID uint64) (map[uint64]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, capacity FROM seating_tables WHERE event_id = ? FOR UPDATE`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	caps := map[uint64]int{}
	for rows.Next() {
		var id uint64
		var c int
		if err := rows.Scan(&id, &c); err != nil {
			return nil, err
		}
		caps[id] = c
	}
	return caps, rows.Err()
}

// checkCapacity fails with ErrOverCapacity when any of the given tables
// now seats more guests than its capacity.
func checkCapacity(ctx context.Context, tx *sql.Tx, caps map[uint64]int, tableIDs []uint64) error {
	for _, id := range tableIDs {
		var seated int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guests WHERE table_id = ?`, id).Scan(&seated); err != nil {
			return err
		}
		if seated > caps[id] {
			return fmt.Errorf("table %d seats %d of %d: %w", id, seated, caps[id], ErrOverCapacity)
		}
	}
	return nil
}

// ApplyAutoAssign persists the assignments of one allocator run.  In reset
// mode every seat of the event is cleared first.  Each update only touches
// a guest that is still unseated and has not declined, so a guest seated or
// declined by a concurrent writer aborts the whole run with ErrConflict and
// nothing is written.
func (r *SeatingRepo) ApplyAutoAssign(ctx context.Context, eventID uint64, keepExisting bool, assignments []seating.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	caps, err := lockTables(ctx, tx, eventID)
	if err != nil {
		return err
	}
	if !keepExisting {
		if _, err := tx.ExecContext(ctx,
			`UPDATE guests SET table_id = NULL, seat_number = NULL WHERE event_id = ?`, eventID); err != nil {
			return err
		}
	}

	touched := []uint64{}
	seen := map[uint64]bool{}
	for _, a := range assignments {
		if _, ok := caps[a.TableID]; !ok {
			return fmt.Errorf("table %d is gone: %w", a.TableID, ErrConflict)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE guests SET table_id = ?, seat_number = ?
			  WHERE id = ? AND event_id = ? AND table_id IS NULL AND rsvp_status <> ?`,
			a.TableID, a.SeatNumber, a.GuestID, eventID, model.RSVPDeclined)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("guest %d changed during run: %w", a.GuestID, ErrConflict)
		}
		if !seen[a.TableID] {
			seen[a.TableID] = true
			touched = append(touched, a.TableID)
		}
	}
	if err := checkCapacity(ctx, tx, caps, touched); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// MoveGuests applies manual seating changes.  Moved guests lose their seat
// number.  Unknown guests or tables fail the whole batch, as does a move
// that would overflow a table.  When a guest appears more than once the
// last move wins.
func (r *SeatingRepo) MoveGuests(ctx context.Context, eventID uint64, moves []GuestMove) error {
	if len(moves) == 0 {
		return nil
	}
	final := map[uint64]*uint64{}
	order := []uint64{}
	for _, m := range moves {
		if _, ok := final[m.GuestID]; !ok {
			order = append(order, m.GuestID)
		}
		final[m.GuestID] = m.TableID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	caps, err := lockTables(ctx, tx, eventID)
	if err != nil {
		return err
	}

	args := append([]interface{}{eventID}, uint64Args(order)...)
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM guests WHERE event_id = ? AND id IN (`+placeholders(len(order))+`) FOR UPDATE`, args...)
	if err != nil {
		return err
	}
	found := map[uint64]bool{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		found[id] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	targets := []uint64{}
	seen := map[uint64]bool{}
	for _, gid := range order {
		if !found[gid] {
			return fmt.Errorf("guest %d: %w", gid, ErrGuestNotFound)
		}
		tid := final[gid]
		if tid != nil {
			if _, ok := caps[*tid]; !ok {
				return fmt.Errorf("table %d: %w", *tid, ErrTableNotFound)
			}
			if !seen[*tid] {
				seen[*tid] = true
				targets = append(targets, *tid)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE guests SET table_id = ?, seat_number = NULL WHERE id = ? AND event_id = ?`,
			tid, gid, eventID); err != nil {
			return err
		}
	}
	if err := checkCapacity(ctx, tx, caps, targets); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// IsNotFound reports whether err is one of the repository not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrGuestNotFound) || errors.Is(err, ErrHouseholdNotFound)
}
