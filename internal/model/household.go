package model

import "time"

// Household groups guests who should be seated together, such as a family
// invited on one invitation.  Group is an optional tag (for example the
// side of the family) inherited by members without their own tag.
type Household struct {
	ID        uint64    `json:"id"`         // households.id
	EventID   uint64    `json:"event_id"`   // households.event_id
	Name      string    `json:"name"`       // households.name
	Group     *string   `json:"group"`      // households.group_tag (nullable)
	CreatedAt time.Time `json:"created_at"` // households.created_at
	UpdatedAt time.Time `json:"updated_at"` // households.updated_at
}
