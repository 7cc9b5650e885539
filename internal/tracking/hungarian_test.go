package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func totalCost(cost [][]float64, result []int) float64 {
	total := 0.0
	for k, s := range result {
		if s >= 0 {
			total += cost[k][s]
		}
	}
	return total
}

func TestAssign_Empty(t *testing.T) {
	assert.Nil(t, assign(nil))
}

func TestAssign_NoSlots(t *testing.T) {
	assert.Equal(t, []int{-1, -1}, assign([][]float64{{}, {}}))
}

func TestAssign_MinimalTotal(t *testing.T) {
	// Cheapest per row would pick slot 0 twice; the optimum is 1 + 4 + 5.
	cost := [][]float64{
		{1, 2, 3},
		{4, 4, 6},
		{9, 8, 5},
	}
	result := assign(cost)
	assert.NotContains(t, result, -1)
	assert.Equal(t, 10.0, totalCost(cost, result))
}

func TestAssign_TracksThenNewTrackSlots(t *testing.T) {
	// Two live tracks and one new-track slot per detection, as matchFrame
	// builds it. Detection 1 is out of range of both tracks.
	newTrack := 400.0
	cost := [][]float64{
		{9, forbidden, newTrack, forbidden, forbidden},
		{forbidden, forbidden, forbidden, newTrack, forbidden},
		{forbidden, 16, forbidden, forbidden, newTrack},
	}
	assert.Equal(t, []int{0, 3, 1}, assign(cost))
}

func TestAssign_ForbiddenRowUnassigned(t *testing.T) {
	cost := [][]float64{
		{1, 2},
		{forbidden, forbidden},
	}
	result := assign(cost)
	assert.GreaterOrEqual(t, result[0], 0)
	assert.Equal(t, -1, result[1])
}

func TestAssign_FewerSlotsThanDetections(t *testing.T) {
	cost := [][]float64{
		{1, 10},
		{10, 1},
		{5, 5},
	}
	assert.Equal(t, []int{0, 1, -1}, assign(cost))
}

func TestAssign_SingleDetection(t *testing.T) {
	assert.Equal(t, []int{3}, assign([][]float64{{7, 3, 9, 1}}))
}

func TestAssign_DoesNotModifyInput(t *testing.T) {
	cost := [][]float64{{1}, {2}}
	assign(cost)
	assert.Equal(t, [][]float64{{1}, {2}}, cost)
}
