package results

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/ironsheep/organoid-tracker/internal/config"
	"github.com/ironsheep/organoid-tracker/internal/detection"
	"github.com/ironsheep/organoid-tracker/internal/timeutil"
)

// ErrNoMatch is returned when an image name does not match the configured
// pattern or its time group is not an integer.
var ErrNoMatch = errors.New("image name does not match pattern")

// Record is one retained detection. X, Y and Particle are zero until the
// record has been through tracking.
type Record struct {
	X1                  int
	Y1                  int
	X2                  int
	Y2                  int
	Score               float32
	Diameter1           int
	Diameter2           int
	Surface             float64
	Image               string
	Well                string
	T                   int
	ProcessingTimestamp int64
	X                   float64
	Y                   float64
	Particle            int
}

// Centre returns the midpoint of the box.
func (r Record) Centre() (x, y float64) {
	return float64(r.X1+r.X2) / 2, float64(r.Y1+r.Y2) / 2
}

// Table accumulates records across images.
type Table struct {
	rows []Record
}

// Append adds records to the end of the table.
func (t *Table) Append(rows ...Record) {
	t.rows = append(t.rows, rows...)
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of the records in append order.
func (t *Table) Rows() []Record {
	out := make([]Record, len(t.rows))
	copy(out, t.rows)
	return out
}

// Aggregator builds Records for one image at a time.
type Aggregator struct {
	pattern *regexp.Regexp
	clock   timeutil.Clock
}

// NewAggregator creates an Aggregator. pattern must contain the named groups
// config.GroupWell and config.GroupTime.
func NewAggregator(pattern *regexp.Regexp, clock timeutil.Clock) *Aggregator {
	return &Aggregator{pattern: pattern, clock: clock}
}

// ParseName extracts the well and time index from an image base name.
func (a *Aggregator) ParseName(name string) (string, int, error) {
	m := a.pattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, fmt.Errorf("%w: %q", ErrNoMatch, name)
	}

	well := m[a.pattern.SubexpIndex(config.GroupWell)]
	raw := m[a.pattern.SubexpIndex(config.GroupTime)]
	t, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q has non-integer %s group %q", ErrNoMatch, name, config.GroupTime, raw)
	}
	return well, t, nil
}

// Aggregate converts the retained boxes of one image into Records.
//
// Parameters:
//   - name: Image base name; must match the pattern even when boxes is empty.
//   - boxes: Boxes in original-image coordinates.
//   - scores: Scores parallel to boxes.
//
// Returns:
//   - []Record: One record per box, all sharing one processing timestamp.
//   - error: ErrNoMatch (wrapped) when the name cannot be parsed.
func (a *Aggregator) Aggregate(name string, boxes []detection.Box, scores []float32) ([]Record, error) {
	if len(boxes) != len(scores) {
		return nil, fmt.Errorf("got %d boxes but %d scores", len(boxes), len(scores))
	}

	well, t, err := a.ParseName(name)
	if err != nil {
		return nil, err
	}

	stamp := a.clock.Now().Unix()
	rows := make([]Record, 0, len(boxes))
	for i, b := range boxes {
		r := Record{
			X1:                  int(b.X1),
			Y1:                  int(b.Y1),
			X2:                  int(b.X2),
			Y2:                  int(b.Y2),
			Score:               scores[i],
			Image:               name,
			Well:                well,
			T:                   t,
			ProcessingTimestamp: stamp,
		}
		r.Diameter1 = r.X2 - r.X1
		r.Diameter2 = r.Y2 - r.Y1
		r.Surface = math.Pi * float64(r.Diameter1) / 2 * float64(r.Diameter2) / 2
		rows = append(rows, r)
	}
	return rows, nil
}
