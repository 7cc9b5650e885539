package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/organoid-tracker/internal/results"
	"github.com/ironsheep/organoid-tracker/internal/tracking"
)

// PlotFileName returns the chart file name for a well.
func PlotFileName(well string) string {
	return fmt.Sprintf("tracks_%s.png", well)
}

// PlotTracks writes one trajectory chart per well into dir and returns the
// paths written. Each surviving particle is drawn as a line through its
// centres in time order.
func PlotTracks(dir string, rows []results.Record) ([]string, error) {
	tracks := tracking.Group(rows)
	if len(tracks) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	byWell := make(map[string][]tracking.Track)
	for _, tr := range tracks {
		byWell[tr.Well] = append(byWell[tr.Well], tr)
	}

	var paths []string
	for _, well := range tracking.Wells(tracks) {
		path := filepath.Join(dir, PlotFileName(well))
		if err := plotWell(path, well, byWell[well]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func plotWell(path, well string, tracks []tracking.Track) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Well %s - Organoid Trajectories", well)
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"

	colors := palette(len(tracks))
	for i, tr := range tracks {
		pts := make(plotter.XYs, len(tr.Points))
		for j, r := range tr.Points {
			pts[j] = plotter.XY{X: r.X, Y: r.Y}
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("failed to plot particle %d: %w", tr.Particle, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		points.Color = colors[i]

		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("particle %d", tr.Particle), line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// palette returns n evenly spaced hues.
func palette(n int) []colorful.Color {
	colors := make([]colorful.Color, n)
	for i := range colors {
		colors[i] = colorful.Hsv(360*float64(i)/float64(max(n, 1)), 0.75, 0.85)
	}
	return colors
}
