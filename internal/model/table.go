package model

import "time"

// Table is a seating table of an event.  Capacity is the maximum number of
// guests that may be seated at it.  Occupancy is not stored; it is derived
// from the guests whose table_id points at the table.
type Table struct {
	ID        uint64    `json:"id"`         // seating_tables.id
	EventID   uint64    `json:"event_id"`   // seating_tables.event_id
	Name      string    `json:"name"`       // seating_tables.name
	Capacity  int       `json:"capacity"`   // seating_tables.capacity
	Occupancy int       `json:"occupancy"`  // derived: COUNT(guests.table_id)
	CreatedAt time.Time `json:"created_at"` // seating_tables.created_at
	UpdatedAt time.Time `json:"updated_at"` // seating_tables.updated_at
}

const (
	// DefaultTableName is used when a table is created or renamed with a blank name.
	DefaultTableName = "Table"
	// DefaultTableCapacity is used when a table is created without a capacity.
	DefaultTableCapacity = 10
)
