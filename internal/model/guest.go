package model

import "time"

// RSVP states of a guest.
const (
	RSVPPending   = "PENDING"
	RSVPConfirmed = "CONFIRMED"
	RSVPDeclined  = "DECLINED"
)

// ValidRSVP reports whether s is one of the known RSVP states.
func ValidRSVP(s string) bool {
	switch s {
	case RSVPPending, RSVPConfirmed, RSVPDeclined:
		return true
	}
	return false
}

// Guest is an invited person.  TableID and SeatNumber are nil while the
// guest is unseated; a manual move sets TableID and clears SeatNumber.
//
// Fields:
//
//	ID          – primary key identifier.
//	EventID     – event the guest is invited to.
//	HouseholdID – optional household link used to keep families together.
//	FullName    – display name; its last token doubles as the surname.
//	Group       – optional tag such as "bride" or "groom".
//	RSVPStatus  – PENDING, CONFIRMED or DECLINED.
//	TableID     – current table (nullable).
//	SeatNumber  – seat within the table (nullable).
type Guest struct {
	ID          uint64    `json:"id"`           // guests.id
	EventID     uint64    `json:"event_id"`     // guests.event_id
	HouseholdID *uint64   `json:"household_id"` // guests.household_id (nullable)
	FullName    string    `json:"full_name"`    // guests.full_name
	Group       *string   `json:"group"`        // guests.group_tag (nullable)
	RSVPStatus  string    `json:"rsvp_status"`  // guests.rsvp_status
	TableID     *uint64   `json:"table_id"`     // guests.table_id (nullable)
	SeatNumber  *int      `json:"seat_number"`  // guests.seat_number (nullable)
	CreatedAt   time.Time `json:"created_at"`   // guests.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // guests.updated_at
}
