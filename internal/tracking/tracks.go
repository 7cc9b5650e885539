package tracking

import (
	"sort"

	"github.com/ironsheep/organoid-tracker/internal/results"
)

// Track is the time-ordered observations of one particle.
type Track struct {
	Well     string
	Particle int
	Points   []results.Record
}

// Group collects linked rows into tracks, ordered by well then particle.
// Points within a track are ordered by t.
func Group(rows []results.Record) []Track {
	index := make(map[trackKey]int)
	var tracks []Track
	for _, r := range rows {
		key := trackKey{r.Well, r.Particle}
		i, ok := index[key]
		if !ok {
			i = len(tracks)
			index[key] = i
			tracks = append(tracks, Track{Well: r.Well, Particle: r.Particle})
		}
		tracks[i].Points = append(tracks[i].Points, r)
	}

	for i := range tracks {
		pts := tracks[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].T < pts[b].T })
	}
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].Well != tracks[j].Well {
			return tracks[i].Well < tracks[j].Well
		}
		return tracks[i].Particle < tracks[j].Particle
	})
	return tracks
}

// Wells returns the distinct wells in tracks, in order.
func Wells(tracks []Track) []string {
	var out []string
	for _, tr := range tracks {
		if len(out) == 0 || out[len(out)-1] != tr.Well {
			out = append(out, tr.Well)
		}
	}
	return out
}
