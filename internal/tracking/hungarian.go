package tracking

import "math"

// forbidden marks a detection/slot pairing that must never be chosen, such as
// a track outside the search range.
const forbidden = 1e18

// assign gives every detection (row of cost) its own slot (column) so that
// the summed cost is minimal. matchFrame lays the slots out as the live
// tracks followed by one "new track" slot per detection, so there are never
// fewer slots than detections; narrower matrices are widened with forbidden
// slots.
//
// result[k] is the slot chosen for detection k, or -1 when the only slot left
// for it is forbidden.
//
// # Algorithm
//
// Detections are inserted one at a time. Each insertion follows the cheapest
// augmenting path through the slots already taken, found Dijkstra-style on
// reduced costs, then shifts every slot on the path to its new owner. The
// detection and slot prices keep reduced costs non-negative between
// insertions. O(n²·m) for n detections and m slots.
func assign(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	if len(cost[0]) < n {
		cost = widen(cost, n)
	}
	m := len(cost[0])

	// Slot 0 is a placeholder owned by the detection being inserted; owners
	// are 1-based so 0 means free.
	detPrice := make([]float64, n+1)
	slotPrice := make([]float64, m+1)
	owner := make([]int, m+1)
	via := make([]int, m+1)
	slack := make([]float64, m+1)
	reached := make([]bool, m+1)

	for det := 1; det <= n; det++ {
		owner[0] = det
		for s := range slack {
			slack[s] = math.Inf(1)
			reached[s] = false
		}

		slot := 0
		for {
			reached[slot] = true
			from := owner[slot]

			step, next := math.Inf(1), 0
			for s := 1; s <= m; s++ {
				if reached[s] {
					continue
				}
				if r := cost[from-1][s-1] - detPrice[from] - slotPrice[s]; r < slack[s] {
					slack[s], via[s] = r, slot
				}
				if slack[s] < step {
					step, next = slack[s], s
				}
			}

			for s := 0; s <= m; s++ {
				if reached[s] {
					detPrice[owner[s]] += step
					slotPrice[s] -= step
				} else {
					slack[s] -= step
				}
			}
			slot = next
			if owner[slot] == 0 {
				break
			}
		}

		// Hand each slot on the path to the detection that reached it.
		for slot != 0 {
			owner[slot] = owner[via[slot]]
			slot = via[slot]
		}
	}

	result := make([]int, n)
	for k := range result {
		result[k] = -1
	}
	for s := 1; s <= m; s++ {
		if det := owner[s]; det > 0 && cost[det-1][s-1] < forbidden {
			result[det-1] = s - 1
		}
	}
	return result
}

// widen returns a copy of cost padded with forbidden slots to width columns.
func widen(cost [][]float64, width int) [][]float64 {
	out := make([][]float64, len(cost))
	for i, row := range cost {
		out[i] = make([]float64, width)
		copy(out[i], row)
		for j := len(row); j < width; j++ {
			out[i][j] = forbidden
		}
	}
	return out
}
