package seating

import "sort"

// tableState is the per-run working copy of a table's usage.
type tableState struct {
	id       uint64
	capacity int
	used     int
}

func (t *tableState) free() int {
	if f := t.capacity - t.used; f > 0 {
		return f
	}
	return 0
}

// placement is a guest routed to a table before seat numbering.
type placement struct {
	guestID uint64
	tableID uint64
}

// fitResult collects the fitter output.
type fitResult struct {
	placements []placement
	unassigned []uint64
	splits     int
}

// bestTableFor returns the index of the table whose free capacity exceeds
// size by the smallest margin, or -1.  Ties go to the earlier table.
func bestTableFor(tables []tableState, size int) int {
	best := -1
	bestLeft := 0
	for i := range tables {
		free := tables[i].free()
		if free < size {
			continue
		}
		if left := free - size; best < 0 || left < bestLeft {
			best, bestLeft = i, left
		}
	}
	return best
}

// spaciousOrder returns indexes of tables with free seats, most free first.
// Equal free capacity keeps table order.
func spaciousOrder(tables []tableState) []int {
	order := make([]int, 0, len(tables))
	for i := range tables {
		if tables[i].free() > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tables[order[a]].free() > tables[order[b]].free()
	})
	return order
}

// fitClusters places ordered clusters into tables.  A cluster goes whole into
// its tightest fitting table; when none can hold it, its guests are spread in
// order over the most spacious tables.  Guests that do not fit anywhere are
// reported as unassigned.
func fitClusters(clusters []Cluster, tables []tableState) fitResult {
	var res fitResult
	for _, cl := range clusters {
		size := cl.Size()
		if size == 0 {
			continue
		}
		if idx := bestTableFor(tables, size); idx >= 0 {
			for _, gid := range cl.GuestIDs {
				res.placements = append(res.placements, placement{guestID: gid, tableID: tables[idx].id})
			}
			tables[idx].used += size
			continue
		}

		pos := 0
		used := 0
		for _, idx := range spaciousOrder(tables) {
			if pos >= size {
				break
			}
			n := tables[idx].free()
			if n > size-pos {
				n = size - pos
			}
			for _, gid := range cl.GuestIDs[pos : pos+n] {
				res.placements = append(res.placements, placement{guestID: gid, tableID: tables[idx].id})
			}
			tables[idx].used += n
			pos += n
			used++
		}
		if used > 1 {
			res.splits++
		}
		res.unassigned = append(res.unassigned, cl.GuestIDs[pos:]...)
	}
	return res
}
