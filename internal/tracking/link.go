package tracking

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/organoid-tracker/internal/results"
)

// Default linking parameters.
const (
	DefaultSearchRange = 20.0
	DefaultMemory      = 2
	DefaultMinPresence = 0.5
)

// Options controls Link.
type Options struct {
	// SearchRange is the largest centre displacement, in pixels, allowed
	// between consecutive observations of one particle.
	SearchRange float64

	// Memory is how many consecutive time points a particle may go unobserved
	// and still be linked when it reappears. Time points with no detections
	// in the well count too.
	Memory int
}

// DefaultOptions returns the default linking parameters.
func DefaultOptions() Options {
	return Options{SearchRange: DefaultSearchRange, Memory: DefaultMemory}
}

// track is a live particle during linking.
type track struct {
	id    int
	x, y  float64
	lastT int
}

// Link assigns a particle identity to every row.
//
// The returned rows are copies of the input in the same order, with X and Y
// set to the box centre and Particle set. Particle ids start at 0 in each
// well and are assigned in order of first appearance.
func Link(rows []results.Record, opts Options) ([]results.Record, error) {
	if opts.SearchRange <= 0 {
		return nil, fmt.Errorf("search range must be positive, got %g", opts.SearchRange)
	}
	if opts.Memory < 0 {
		return nil, fmt.Errorf("memory must not be negative, got %d", opts.Memory)
	}

	out := make([]results.Record, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].X, out[i].Y = out[i].Centre()
	}

	for _, well := range wells(out) {
		linkWell(out, well.indices, opts)
	}
	return out, nil
}

type wellRows struct {
	name    string
	indices []int
}

// wells groups row indices by well, wells sorted by name.
func wells(rows []results.Record) []wellRows {
	byWell := make(map[string][]int)
	for i, r := range rows {
		byWell[r.Well] = append(byWell[r.Well], i)
	}

	out := make([]wellRows, 0, len(byWell))
	for name, idx := range byWell {
		out = append(out, wellRows{name: name, indices: idx})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// linkWell links the rows at indices, which all belong to one well.
func linkWell(rows []results.Record, indices []int, opts Options) {
	// Frames in ascending t; rows within a frame keep input order.
	byT := make(map[int][]int)
	for _, i := range indices {
		byT[rows[i].T] = append(byT[rows[i].T], i)
	}
	times := make([]int, 0, len(byT))
	for t := range byT {
		times = append(times, t)
	}
	sort.Ints(times)

	var live []*track
	nextID := 0

	for _, t := range times {
		members := byT[t]

		// Retire tracks missing for more than Memory time points.
		kept := live[:0]
		for _, tr := range live {
			if t-tr.lastT-1 <= opts.Memory {
				kept = append(kept, tr)
			}
		}
		live = kept

		assigned := matchFrame(rows, members, live, opts.SearchRange)

		for k, i := range members {
			var tr *track
			if j := assigned[k]; j >= 0 {
				tr = live[j]
			} else {
				tr = &track{id: nextID}
				nextID++
				live = append(live, tr)
			}
			tr.x, tr.y = rows[i].X, rows[i].Y
			tr.lastT = t
			rows[i].Particle = tr.id
		}
	}
}

// matchFrame returns, for each member detection, the index into live of the
// track it continues, or -1.
//
// The cost matrix has one row per detection and one column per live track,
// followed by one "new track" column per detection. Linking costs the squared
// displacement; starting a new track costs just over SearchRange squared, so
// a link exactly at the search range is still preferred.
func matchFrame(rows []results.Record, members []int, live []*track, searchRange float64) []int {
	n, m := len(members), len(live)
	assigned := make([]int, n)
	for k := range assigned {
		assigned[k] = -1
	}
	if m == 0 {
		return assigned
	}

	pts := make(centres, n)
	for k, i := range members {
		pts[k] = centre{x: rows[i].X, y: rows[i].Y, idx: k}
	}
	index := newNeighbourIndex(pts, searchRange)

	cost := make([][]float64, n)
	for k := range cost {
		cost[k] = make([]float64, m+n)
		for j := range cost[k] {
			cost[k][j] = forbidden
		}
		cost[k][m+k] = math.Nextafter(searchRange*searchRange, math.Inf(1))
	}

	candidates := 0
	for j, tr := range live {
		idx, dist2 := index.within(tr.x, tr.y)
		for c, k := range idx {
			cost[k][j] = dist2[c]
			candidates++
		}
	}
	if candidates == 0 {
		return assigned
	}

	for k, col := range assign(cost) {
		if col >= 0 && col < m {
			assigned[k] = col
		}
	}
	return assigned
}

// Filter keeps the rows of (well, particle) groups observed at no fewer than
// maxT*minPresence distinct time points, where maxT is the largest t in rows.
// Surviving rows keep their input order.
func Filter(rows []results.Record, minPresence float64) []results.Record {
	if len(rows) == 0 {
		return []results.Record{}
	}

	maxT := rows[0].T
	seen := make(map[trackKey]map[int]struct{})
	for _, r := range rows {
		maxT = max(maxT, r.T)
		key := trackKey{r.Well, r.Particle}
		if seen[key] == nil {
			seen[key] = make(map[int]struct{})
		}
		seen[key][r.T] = struct{}{}
	}

	threshold := float64(maxT) * minPresence
	out := make([]results.Record, 0, len(rows))
	for _, r := range rows {
		if float64(len(seen[trackKey{r.Well, r.Particle}])) >= threshold {
			out = append(out, r)
		}
	}
	return out
}

type trackKey struct {
	well     string
	particle int
}
