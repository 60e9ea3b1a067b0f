package seating

// seatCounter hands out seat numbers for one table, skipping numbers that
// are already held.  Numbers after start come first, up to the capacity.
// Once those run out the counter fills free numbers at or below start, and
// only then goes past the capacity.
type seatCounter struct {
	start    int
	capacity int
	next     int
	hole     int
	taken    map[int]struct{}
}

func newSeatCounter(start, capacity int, taken []int) *seatCounter {
	c := &seatCounter{start: start, capacity: capacity, next: start + 1, hole: 1}
	if len(taken) > 0 {
		c.taken = make(map[int]struct{}, len(taken))
		for _, n := range taken {
			c.taken[n] = struct{}{}
		}
	}
	return c
}

// claim marks n as held and reports whether it was free.
func (c *seatCounter) claim(n int) bool {
	if _, held := c.taken[n]; held {
		return false
	}
	c.taken[n] = struct{}{}
	return true
}

func (c *seatCounter) take() int {
	if c.taken == nil {
		c.taken = make(map[int]struct{})
	}
	for c.next <= c.capacity {
		n := c.next
		c.next++
		if c.claim(n) {
			return n
		}
	}
	for c.hole <= c.start && c.hole <= c.capacity {
		n := c.hole
		c.hole++
		if c.claim(n) {
			return n
		}
	}
	for {
		n := c.next
		c.next++
		if c.claim(n) {
			return n
		}
	}
}

// numberSeats turns placements into assignments.  Each table numbers its
// guests in placement order starting after start[tableID].
func numberSeats(placements []placement, tables []tableState, start map[uint64]int, taken map[uint64][]int) []Assignment {
	capacity := make(map[uint64]int, len(tables))
	for _, t := range tables {
		capacity[t.id] = t.capacity
	}
	counters := make(map[uint64]*seatCounter)
	out := make([]Assignment, 0, len(placements))
	for _, p := range placements {
		c, ok := counters[p.tableID]
		if !ok {
			c = newSeatCounter(start[p.tableID], capacity[p.tableID], taken[p.tableID])
			counters[p.tableID] = c
		}
		out = append(out, Assignment{GuestID: p.guestID, TableID: p.tableID, SeatNumber: c.take()})
	}
	return out
}
