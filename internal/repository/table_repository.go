package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-seating/internal/model"
)

// TableRepo provides persistence for the seating tables of an event.
// Occupancy is never stored; every read derives it from the guests table.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

const tableSelect = `
SELECT t.id, t.event_id, t.name, t.capacity,
       (SELECT COUNT(*) FROM guests g WHERE g.table_id = t.id) AS occupancy,
       t.created_at, t.updated_at
FROM seating_tables t`

func scanTable(row interface{ Scan(...interface{}) error }, t *model.Table) error {
	return row.Scan(&t.ID, &t.EventID, &t.Name, &t.Capacity, &t.Occupancy, &t.CreatedAt, &t.UpdatedAt)
}

// ListByEvent returns the tables of an event ordered by name then id, the
// same order the allocator walks them in.
func (r *TableRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, tableSelect+` WHERE t.event_id = ? ORDER BY t.name, t.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Table{}
	for rows.Next() {
		var t model.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByIDAndEvent fetches a table scoped to its event.  ErrTableNotFound is
// returned when the table does not exist or belongs to another event.
func (r *TableRepo) GetByIDAndEvent(ctx context.Context, id, eventID uint64) (*model.Table, error) {
	var t model.Table
	err := scanTable(r.db.QueryRowContext(ctx, tableSelect+` WHERE t.id = ? AND t.event_id = ?`, id, eventID), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a table.  Name and capacity must already be normalised by
// the caller.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seating_tables (event_id, name, capacity) VALUES (?, ?, ?)`,
		t.EventID, t.Name, t.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByIDAndEvent(ctx, uint64(id), t.EventID)
	if err != nil {
		return err
	}
	*t = *got
	return nil
}

// Update renames a table and/or changes its capacity.  Lowering capacity
// below the current occupancy yields ErrOverCapacity; the check and the
// write share a transaction holding a lock on the table row.
func (r *TableRepo) Update(ctx context.Context, id, eventID uint64, name *string, capacity *int) (*model.Table, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var curName string
	var curCap int
	err = tx.QueryRowContext(ctx,
		`SELECT name, capacity FROM seating_tables WHERE id = ? AND event_id = ? FOR UPDATE`,
		id, eventID).Scan(&curName, &curCap)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	if name != nil {
		curName = *name
	}
	if capacity != nil {
		var seated int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guests WHERE table_id = ?`, id).Scan(&seated); err != nil {
			return nil, err
		}
		if *capacity < seated {
			return nil, ErrOverCapacity
		}
		curCap = *capacity
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE seating_tables SET name = ?, capacity = ? WHERE id = ? AND event_id = ?`,
		curName, curCap, id, eventID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByIDAndEvent(ctx, id, eventID)
}

// Delete unseats every guest of the table and removes it in one
// transaction.  It returns the number of guests that were unseated.
func (r *TableRepo) Delete(ctx context.Context, id, eventID uint64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM seating_tables WHERE id = ? AND event_id = ? FOR UPDATE`, id, eventID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTableNotFound
		}
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE guests SET table_id = NULL, seat_number = NULL WHERE table_id = ? AND event_id = ?`, id, eventID)
	if err != nil {
		return 0, err
	}
	unseated, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, `DELETE FROM seating_tables WHERE id = ? AND event_id = ?`, id, eventID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return unseated, nil
}
