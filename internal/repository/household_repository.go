package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-seating/internal/model"
)

// HouseholdRepo provides persistence for households.
type HouseholdRepo struct {
	db *sql.DB
}

// NewHouseholdRepo constructs a HouseholdRepo with the given DB handle.
func NewHouseholdRepo(db *sql.DB) *HouseholdRepo {
	return &HouseholdRepo{db: db}
}

const householdColumns = `id, event_id, name, group_tag, created_at, updated_at`

func scanHousehold(row interface{ Scan(...interface{}) error }, h *model.Household) error {
	return row.Scan(&h.ID, &h.EventID, &h.Name, &h.Group, &h.CreatedAt, &h.UpdatedAt)
}

// Create inserts a household for an event.
func (r *HouseholdRepo) Create(ctx context.Context, h *model.Household) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO households (event_id, name, group_tag) VALUES (?, ?, ?)`,
		h.EventID, h.Name, h.Group)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByIDAndEvent(ctx, uint64(id), h.EventID)
	if err != nil {
		return err
	}
	*h = *got
	return nil
}

// GetByIDAndEvent fetches a household scoped to its event.
func (r *HouseholdRepo) GetByIDAndEvent(ctx context.Context, id, eventID uint64) (*model.Household, error) {
	var h model.Household
	err := scanHousehold(r.db.QueryRowContext(ctx,
		`SELECT `+householdColumns+` FROM households WHERE id = ? AND event_id = ?`, id, eventID), &h)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHouseholdNotFound
		}
		return nil, err
	}
	return &h, nil
}

// ListByEvent returns the households of an event ordered by name.
func (r *HouseholdRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Household, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+householdColumns+` FROM households WHERE event_id = ? ORDER BY name, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Household{}
	for rows.Next() {
		var h model.Household
		if err := scanHousehold(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
