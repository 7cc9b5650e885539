package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/organoid-tracker/internal/results"
)

func TestGroup(t *testing.T) {
	rows := []results.Record{
		{Well: "B1", Particle: 0, T: 1},
		{Well: "A1", Particle: 1, T: 0},
		{Well: "A1", Particle: 0, T: 2},
		{Well: "A1", Particle: 0, T: 0},
	}

	tracks := Group(rows)
	require.Len(t, tracks, 3)

	assert.Equal(t, "A1", tracks[0].Well)
	assert.Equal(t, 0, tracks[0].Particle)
	require.Len(t, tracks[0].Points, 2)
	assert.Equal(t, 0, tracks[0].Points[0].T)
	assert.Equal(t, 2, tracks[0].Points[1].T)

	assert.Equal(t, 1, tracks[1].Particle)
	assert.Equal(t, "B1", tracks[2].Well)

	assert.Equal(t, []string{"A1", "B1"}, Wells(tracks))
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, Group(nil))
	assert.Empty(t, Wells(nil))
}

func TestNeighbourIndex_Within(t *testing.T) {
	pts := centres{
		{x: 0, y: 0, idx: 0},
		{x: 3, y: 4, idx: 1}, // distance 5
		{x: 6, y: 8, idx: 2}, // distance 10
		{x: -1, y: 0, idx: 3},
	}
	index := newNeighbourIndex(pts, 5)

	idx, dist2 := index.within(0, 0)
	assert.Equal(t, []int{0, 3, 1}, idx, "ascending by distance, boundary included")
	assert.Equal(t, []float64{0, 1, 25}, dist2)
}
