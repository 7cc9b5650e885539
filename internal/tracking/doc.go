// Package tracking links per-image detections into particle tracks.
//
// Link works well by well. Within a well, each distinct time index is one
// frame. For every frame the detections are matched to the tracks that are
// still alive, minimising the total squared displacement. A detection may
// only join a track whose last position lies within the search range. A
// track survives up to Memory consecutive time points without a detection
// before it is retired; time points where the well has no detections at all
// count as missed. Detections that join no track start a new one.
//
// Filter then drops tracks observed in fewer than a fraction of the time
// points, measured against the largest time index in the whole table.
package tracking
