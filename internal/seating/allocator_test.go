package seating

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func household(ids []uint64, hh uint64, surname string) []Guest {
	out := make([]Guest, 0, len(ids))
	for _, id := range ids {
		out = append(out, Guest{ID: id, FullName: fmt.Sprintf("Guest%d %s", id, surname), HouseholdID: u64(hh)})
	}
	return out
}

func tablesByID(res *Result) map[uint64][]Assignment {
	out := make(map[uint64][]Assignment)
	for _, a := range res.Assignments {
		out[a.TableID] = append(out[a.TableID], a)
	}
	return out
}

func guestIDs(as []Assignment) []uint64 {
	out := make([]uint64, 0, len(as))
	for _, a := range as {
		out = append(out, a.GuestID)
	}
	return out
}

func seatNumbers(as []Assignment) []int {
	out := make([]int, 0, len(as))
	for _, a := range as {
		out = append(out, a.SeatNumber)
	}
	return out
}

func TestAllocate_SplitsLargeHouseholdAndFitsSmallOne(t *testing.T) {
	guests := append(household([]uint64{1, 2, 3, 4, 5}, 100, "Cohen"), household([]uint64{6, 7, 8}, 200, "Levi")...)
	req := Request{
		Guests: guests,
		Tables: []Table{
			{ID: 11, Name: "T1", Capacity: 4},
			{ID: 12, Name: "T2", Capacity: 4},
		},
	}

	res, err := Allocate(req)
	require.NoError(t, err)

	assert.Equal(t, 8, res.AssignedCount)
	assert.Empty(t, res.Unassigned)
	assert.Equal(t, OutcomeFull, res.Outcome())
	assert.Equal(t, 1, res.SplitClusters)

	byTable := tablesByID(res)
	assert.Equal(t, []uint64{1, 2, 3, 4}, guestIDs(byTable[11]))
	assert.Equal(t, []uint64{5, 6, 7, 8}, guestIDs(byTable[12]))
	assert.Equal(t, []int{1, 2, 3, 4}, seatNumbers(byTable[11]))
	assert.Equal(t, []int{1, 2, 3, 4}, seatNumbers(byTable[12]))
}

func TestAllocate_LeavesOverflowUnassigned(t *testing.T) {
	req := Request{
		Guests: []Guest{
			{ID: 1, FullName: "Ann Lee"},
			{ID: 2, FullName: "Bob Kim"},
			{ID: 3, FullName: "Cy Park"},
		},
		Tables: []Table{{ID: 1, Name: "Only", Capacity: 2}},
	}

	res, err := Allocate(req)
	require.NoError(t, err)

	assert.Equal(t, 2, res.AssignedCount)
	assert.Equal(t, []uint64{3}, res.Unassigned)
	assert.Equal(t, OutcomePartial, res.Outcome())
	assert.Equal(t, []int{1, 2}, seatNumbers(res.Assignments))
}

func TestAllocate_KeepExistingContinuesSeatNumbers(t *testing.T) {
	req := Request{
		KeepExisting: true,
		Guests: append([]Guest{
			{ID: 1, FullName: "Old One", TableID: u64(5)},
			{ID: 2, FullName: "Old Two", TableID: u64(5)},
		}, household([]uint64{3, 4}, 9, "New")...),
		Tables: []Table{{ID: 5, Name: "Main", Capacity: 4, Occupancy: 2, SeatedNumbers: []int{1, 2}}},
	}

	res, err := Allocate(req)
	require.NoError(t, err)

	require.Len(t, res.Assignments, 2)
	assert.Equal(t, []uint64{3, 4}, guestIDs(res.Assignments))
	assert.Equal(t, []int{3, 4}, seatNumbers(res.Assignments))
	for _, a := range res.Assignments {
		assert.Equal(t, uint64(5), a.TableID)
	}
}

func TestAllocate_KeepExistingSkipsTakenSeatNumbers(t *testing.T) {
	req := Request{
		KeepExisting: true,
		Guests:       household([]uint64{1, 2}, 1, "X"),
		Tables:       []Table{{ID: 1, Name: "A", Capacity: 6, Occupancy: 2, SeatedNumbers: []int{1, 3}}},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, seatNumbers(res.Assignments))
}

func TestAllocate_KeepExistingFillsHoleWithinCapacity(t *testing.T) {
	req := Request{
		KeepExisting: true,
		Guests:       []Guest{{ID: 9, FullName: "Late Arrival"}},
		Tables:       []Table{{ID: 1, Name: "A", Capacity: 4, Occupancy: 3, SeatedNumbers: []int{1, 3, 4}}},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, 2, res.Assignments[0].SeatNumber)
}

func TestSeatCounter(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		capacity int
		taken    []int
		n        int
		want     []int
	}{
		{"empty table", 0, 3, nil, 3, []int{1, 2, 3}},
		{"continues after start", 2, 4, []int{1, 2}, 2, []int{3, 4}},
		{"skips held above start", 2, 6, []int{1, 3}, 2, []int{4, 5}},
		{"fills hole before passing capacity", 3, 5, []int{1, 3, 4}, 2, []int{5, 2}},
		{"past capacity only when full", 2, 2, []int{1, 2}, 1, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newSeatCounter(tt.start, tt.capacity, tt.taken)
			got := make([]int, 0, tt.n)
			for i := 0; i < tt.n; i++ {
				got = append(got, c.take())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocate_ResetIgnoresOccupancy(t *testing.T) {
	req := Request{
		Guests: []Guest{
			{ID: 1, FullName: "A Smith", TableID: u64(1)},
			{ID: 2, FullName: "B Smith"},
		},
		Tables: []Table{{ID: 1, Name: "A", Capacity: 2, Occupancy: 2, SeatedNumbers: []int{1, 2}}},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, guestIDs(res.Assignments))
	assert.Equal(t, []int{1, 2}, seatNumbers(res.Assignments))
}

func TestAllocate_IdempotentReRun(t *testing.T) {
	guests := append(household([]uint64{1, 2, 3}, 1, "A"), household([]uint64{4, 5, 6, 7}, 2, "B")...)
	guests = append(guests, Guest{ID: 8, FullName: "Solo Person"})
	tables := []Table{
		{ID: 1, Name: "T1", Capacity: 5},
		{ID: 2, Name: "T2", Capacity: 5},
	}

	first, err := Allocate(Request{KeepExisting: true, Guests: guests, Tables: tables})
	require.NoError(t, err)
	require.Equal(t, 8, first.AssignedCount)

	// Write the assignments back the way a persistence layer would.
	seated := make(map[uint64]Assignment)
	for _, a := range first.Assignments {
		seated[a.GuestID] = a
	}
	for i := range guests {
		if a, ok := seated[guests[i].ID]; ok {
			guests[i].TableID = u64(a.TableID)
		}
	}
	for i := range tables {
		for _, a := range first.Assignments {
			if a.TableID == tables[i].ID {
				tables[i].Occupancy++
				tables[i].SeatedNumbers = append(tables[i].SeatedNumbers, a.SeatNumber)
			}
		}
	}

	second, err := Allocate(Request{KeepExisting: true, Guests: guests, Tables: tables})
	require.NoError(t, err)
	assert.Zero(t, second.AssignedCount)
	assert.Empty(t, second.Unassigned)
}

func TestAllocate_WholeClusterPrefersTightestTable(t *testing.T) {
	req := Request{
		Guests: household([]uint64{1, 2, 3}, 1, "A"),
		Tables: []Table{
			{ID: 1, Name: "A", Capacity: 2},
			{ID: 2, Name: "B", Capacity: 5},
			{ID: 3, Name: "C", Capacity: 3},
			{ID: 4, Name: "D", Capacity: 3},
		},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 3)
	for _, a := range res.Assignments {
		assert.Equal(t, uint64(3), a.TableID, "tightest fit, first by name on ties")
	}
	assert.Zero(t, res.SplitClusters)
}

func TestAllocate_SplitUsesMostSpaciousFirst(t *testing.T) {
	req := Request{
		Guests: household([]uint64{1, 2, 3, 4, 5, 6}, 1, "A"),
		Tables: []Table{
			{ID: 1, Name: "Small", Capacity: 3},
			{ID: 2, Name: "Big", Capacity: 4},
		},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	assert.Equal(t, 6, res.AssignedCount)
	assert.Empty(t, res.Unassigned)

	byTable := tablesByID(res)
	assert.Equal(t, []uint64{1, 2, 3, 4}, guestIDs(byTable[2]))
	assert.Equal(t, []uint64{5, 6}, guestIDs(byTable[1]))
}

func TestAllocate_TableOrderIsExplicit(t *testing.T) {
	guests := household([]uint64{1, 2}, 1, "A")
	a := Table{ID: 9, Name: "Alpha", Capacity: 4}
	b := Table{ID: 3, Name: "Beta", Capacity: 4}

	r1, err := Allocate(Request{Guests: guests, Tables: []Table{a, b}})
	require.NoError(t, err)
	r2, err := Allocate(Request{Guests: guests, Tables: []Table{b, a}})
	require.NoError(t, err)

	assert.Equal(t, r1.Assignments, r2.Assignments)
	assert.Equal(t, uint64(9), r1.Assignments[0].TableID)
}

func TestAllocate_RejectsInvalidTables(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	req := Request{
		Guests: []Guest{{ID: 1, FullName: "A B"}},
		Tables: []Table{
			{ID: 1, Name: "Zero", Capacity: 0},
			{ID: 2, Name: "Neg", Capacity: -3},
			{ID: 3, Name: "Ok", Capacity: 2},
			{ID: 3, Name: "Dup", Capacity: 8},
		},
	}

	res, err := Allocate(req, WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Len(t, res.RejectedTables, 3)
	assert.Equal(t, uint64(3), res.Assignments[0].TableID)
	assert.Equal(t, 3, logs.FilterMessage("table rejected").Len())
}

func TestAllocate_NoUsableTables(t *testing.T) {
	_, err := Allocate(Request{Guests: []Guest{{ID: 1, FullName: "A"}}})
	assert.ErrorIs(t, err, ErrNoTables)

	_, err = Allocate(Request{
		Guests: []Guest{{ID: 1, FullName: "A"}},
		Tables: []Table{{ID: 1, Name: "Broken", Capacity: 0}},
	})
	assert.ErrorIs(t, err, ErrNoTables)
}

func TestAllocate_SkipsMalformedGuests(t *testing.T) {
	req := Request{
		Guests: []Guest{
			{ID: 0, FullName: "No Id"},
			{ID: 1, FullName: "Has Id"},
			{ID: 1, FullName: "Again Id"},
			{ID: 2, FullName: "Other Id"},
		},
		Tables: []Table{{ID: 1, Name: "T", Capacity: 10}},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, res.SkippedGuests, 2)
	assert.Equal(t, 0, res.SkippedGuests[0].Index)
	assert.Equal(t, 2, res.SkippedGuests[1].Index)
	assert.ElementsMatch(t, []uint64{1, 2}, guestIDs(res.Assignments))
}

func TestAllocate_OverfullTableCountsAsFull(t *testing.T) {
	req := Request{
		KeepExisting: true,
		Guests:       []Guest{{ID: 1, FullName: "A B"}},
		Tables: []Table{
			{ID: 1, Name: "A", Capacity: 2, Occupancy: 5},
			{ID: 2, Name: "B", Capacity: 2},
		},
	}

	res, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, uint64(2), res.Assignments[0].TableID)
}

func TestAllocate_NoEligibleGuests(t *testing.T) {
	res, err := Allocate(Request{Tables: []Table{{ID: 1, Name: "A", Capacity: 2}}})
	require.NoError(t, err)
	assert.Zero(t, res.AssignedCount)
	assert.Equal(t, OutcomeFull, res.Outcome())
}

func TestAllocate_DoesNotMutateRequest(t *testing.T) {
	tables := []Table{{ID: 2, Name: "B", Capacity: 3}, {ID: 1, Name: "A", Capacity: 3}}
	guests := household([]uint64{1, 2}, 1, "A")

	_, err := Allocate(Request{Guests: guests, Tables: tables})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tables[0].ID)
	assert.Nil(t, guests[0].TableID)
}

func TestAllocate_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	surnames := []string{"Cohen", "Levi", "Mizrahi", "Peretz", "Biton"}
	groups := []string{"", "bride", "groom"}

	for round := 0; round < 50; round++ {
		keep := round%2 == 0
		var tables []Table
		nTables := 1 + rng.Intn(6)
		for i := 0; i < nTables; i++ {
			capacity := 1 + rng.Intn(10)
			occ := 0
			var taken []int
			if keep {
				occ = rng.Intn(capacity + 1)
				for s := 1; s <= occ; s++ {
					taken = append(taken, s)
				}
			}
			tables = append(tables, Table{ID: uint64(i + 1), Name: fmt.Sprintf("T%02d", rng.Intn(5)), Capacity: capacity, Occupancy: occ, SeatedNumbers: taken})
		}
		var guests []Guest
		nGuests := rng.Intn(60)
		for i := 0; i < nGuests; i++ {
			g := Guest{ID: uint64(i + 1), FullName: "First " + surnames[rng.Intn(len(surnames))], Group: groups[rng.Intn(len(groups))]}
			if rng.Intn(3) == 0 {
				g.HouseholdID = u64(uint64(1 + rng.Intn(8)))
			}
			guests = append(guests, g)
		}

		req := Request{KeepExisting: keep, Guests: guests, Tables: tables}
		res, err := Allocate(req)
		require.NoError(t, err)

		again, err := Allocate(req)
		require.NoError(t, err)
		require.Equal(t, res.Assignments, again.Assignments, "round %d not deterministic", round)

		seen := make(map[uint64]bool)
		perTable := make(map[uint64]int)
		seats := make(map[[2]uint64]bool)
		for _, a := range res.Assignments {
			require.False(t, seen[a.GuestID], "round %d guest %d assigned twice", round, a.GuestID)
			seen[a.GuestID] = true
			perTable[a.TableID]++
			key := [2]uint64{a.TableID, uint64(a.SeatNumber)}
			require.False(t, seats[key], "round %d seat reused", round)
			seats[key] = true
		}
		for _, tb := range tables {
			floor := 0
			if keep {
				floor = tb.Occupancy
				for _, s := range tb.SeatedNumbers {
					require.False(t, seats[[2]uint64{tb.ID, uint64(s)}], "round %d existing seat reused", round)
				}
			}
			require.LessOrEqual(t, floor+perTable[tb.ID], tb.Capacity, "round %d table %d over capacity", round, tb.ID)
		}
		require.Equal(t, len(guests), res.AssignedCount+len(res.Unassigned), "round %d lost guests", round)
	}
}
