package model

import "time"

// Event is a single celebration whose guests are seated at tables.
// Tables, households and guests all belong to exactly one event.
//
// Fields:
//
//	ID        – primary key identifier.
//	Title     – display title of the event.
//	EventDate – when the event takes place (nil if not scheduled yet).
//	Venue     – optional venue name.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Event struct {
	ID        uint64     `json:"id"`         // events.id
	Title     string     `json:"title"`      // events.title
	EventDate *time.Time `json:"event_date"` // events.event_date (nullable)
	Venue     *string    `json:"venue"`      // events.venue (nullable)
	CreatedAt time.Time  `json:"created_at"` // events.created_at
	UpdatedAt time.Time  `json:"updated_at"` // events.updated_at
}
