// Package seating implements automatic table assignment for event guests.
//
// The allocator works on an in-memory snapshot: it groups guests into
// cohesion clusters (household, surname+group, surname), orders the clusters
// largest first, packs them into tables with a best-fit-decreasing pass and
// finally numbers seats within each table.  It performs no I/O; callers load
// the snapshot and persist the returned assignments.
package seating

// Guest is an attendee considered for seating.  Only ID is required; an
// empty FullName yields an empty surname.
type Guest struct {
	ID          uint64  // guests.id, must be non-zero
	FullName    string  // used only to derive the surname
	Group       string  // optional tag such as a side of the family
	HouseholdID *uint64 // optional explicit household link
	TableID     *uint64 // current table (nil when unseated)
}

// Table is a seating table with a fixed capacity.  Occupancy and
// SeatedNumbers describe guests already seated there and are only honoured
// for incremental runs.
type Table struct {
	ID            uint64
	Name          string
	Capacity      int
	Occupancy     int
	SeatedNumbers []int
}

// Assignment places one guest on a numbered seat of a table.
type Assignment struct {
	GuestID    uint64 `json:"guest_id"`
	TableID    uint64 `json:"table_id"`
	SeatNumber int    `json:"seat_number"`
}

// Request is the input of a single allocator run.
type Request struct {
	EventID      uint64
	KeepExisting bool
	Guests       []Guest
	Tables       []Table
}

// Outcome summarises how complete a run was.
type Outcome string

const (
	OutcomeFull    Outcome = "full"
	OutcomePartial Outcome = "partial"
)

// SkippedGuest records a guest record that could not be considered.
type SkippedGuest struct {
	Index  int    // position in Request.Guests
	ID     uint64 // zero when the id itself was missing
	Reason string
}

// RejectedTable records a table left out of the run.
type RejectedTable struct {
	ID     uint64
	Name   string
	Reason string
}

// Result is the output of Allocate.
type Result struct {
	Assignments    []Assignment
	AssignedCount  int
	Unassigned     []uint64 // eligible guests that did not fit anywhere
	SkippedGuests  []SkippedGuest
	RejectedTables []RejectedTable
	Clusters       []Cluster // clusters in placement order
	SplitClusters  int       // clusters that had to be spread over several tables
}

// Outcome reports OutcomePartial when any eligible guest is left unassigned.
func (r *Result) Outcome() Outcome {
	if len(r.Unassigned) > 0 {
		return OutcomePartial
	}
	return OutcomeFull
}

// TableCounts returns the number of new assignments per table id.
func (r *Result) TableCounts() map[uint64]int {
	out := make(map[uint64]int)
	for _, a := range r.Assignments {
		out[a.TableID]++
	}
	return out
}
