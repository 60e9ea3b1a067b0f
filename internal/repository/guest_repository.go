package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-seating/internal/model"
)

// GuestRepo provides persistence for guests.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo constructs a GuestRepo with the given DB handle.
func NewGuestRepo(db *sql.DB) *GuestRepo {
	return &GuestRepo{db: db}
}

const guestColumns = `id, event_id, household_id, full_name, group_tag, rsvp_status, table_id, seat_number, created_at, updated_at`

func scanGuest(row interface{ Scan(...interface{}) error }, g *model.Guest) error {
	return row.Scan(&g.ID, &g.EventID, &g.HouseholdID, &g.FullName, &g.Group, &g.RSVPStatus,
		&g.TableID, &g.SeatNumber, &g.CreatedAt, &g.UpdatedAt)
}

// GuestUpdate carries the optional fields of a partial guest update.  A
// non-nil empty Group clears the tag and a zero HouseholdID clears the link.
type GuestUpdate struct {
	FullName    *string
	Group       *string
	RSVPStatus  *string
	HouseholdID *uint64
}

// ListByEvent returns every guest of an event ordered by name then id.
func (r *GuestRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Guest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE event_id = ? ORDER BY full_name, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Guest{}
	for rows.Next() {
		var g model.Guest
		if err := scanGuest(rows, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByIDAndEvent fetches a guest scoped to its event.
func (r *GuestRepo) GetByIDAndEvent(ctx context.Context, id, eventID uint64) (*model.Guest, error) {
	var g model.Guest
	err := scanGuest(r.db.QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE id = ? AND event_id = ?`, id, eventID), &g)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	return &g, nil
}

// checkHousehold verifies that a household belongs to the event.
func checkHousehold(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}, householdID, eventID uint64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM households WHERE id = ? AND event_id = ?`, householdID, eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrHouseholdNotFound
	}
	return err
}

// Create inserts an unseated guest.  A household link must point at a
// household of the same event.
func (r *GuestRepo) Create(ctx context.Context, g *model.Guest) error {
	if g.HouseholdID != nil {
		if err := checkHousehold(ctx, r.db, *g.HouseholdID, g.EventID); err != nil {
			return err
		}
	}
	if g.RSVPStatus == "" {
		g.RSVPStatus = model.RSVPPending
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (event_id, household_id, full_name, group_tag, rsvp_status) VALUES (?, ?, ?, ?, ?)`,
		g.EventID, g.HouseholdID, g.FullName, g.Group, g.RSVPStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByIDAndEvent(ctx, uint64(id), g.EventID)
	if err != nil {
		return err
	}
	*g = *got
	return nil
}

// Update applies a partial update.  A guest who declines is unseated in the
// same statement.
func (r *GuestRepo) Update(ctx context.Context, id, eventID uint64, u GuestUpdate) (*model.Guest, error) {
	sets := []string{}
	args := []interface{}{}
	if u.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *u.FullName)
	}
	if u.Group != nil {
		sets = append(sets, "group_tag = ?")
		if *u.Group == "" {
			args = append(args, nil)
		} else {
			args = append(args, *u.Group)
		}
	}
	if u.RSVPStatus != nil {
		sets = append(sets, "rsvp_status = ?")
		args = append(args, *u.RSVPStatus)
		if *u.RSVPStatus == model.RSVPDeclined {
			sets = append(sets, "table_id = NULL", "seat_number = NULL")
		}
	}
	if u.HouseholdID != nil {
		sets = append(sets, "household_id = ?")
		if *u.HouseholdID == 0 {
			args = append(args, nil)
		} else {
			if err := checkHousehold(ctx, r.db, *u.HouseholdID, eventID); err != nil {
				return nil, err
			}
			args = append(args, *u.HouseholdID)
		}
	}
	if len(sets) == 0 {
		return r.GetByIDAndEvent(ctx, id, eventID)
	}

	args = append(args, id, eventID)
	if _, err := r.db.ExecContext(ctx,
		`UPDATE guests SET `+strings.Join(sets, ", ")+` WHERE id = ? AND event_id = ?`, args...); err != nil {
		return nil, err
	}
	// MySQL reports 0 affected rows for unchanged values, so existence is
	// settled by the read.
	return r.GetByIDAndEvent(ctx, id, eventID)
}

// Delete removes a guest.
func (r *GuestRepo) Delete(ctx context.Context, id, eventID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = ? AND event_id = ?`, id, eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGuestNotFound
	}
	return nil
}
