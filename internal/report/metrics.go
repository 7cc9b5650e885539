package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"gonum.org/v1/gonum/stat"
	"google.golang.org/protobuf/proto"

	"github.com/ironsheep/organoid-tracker/internal/results"
	"github.com/ironsheep/organoid-tracker/internal/tracking"
)

// MetricsFileName is the textfile written inside the results directory.
const MetricsFileName = "metrics.prom"

// metricPrefix namespaces every exported metric.
const metricPrefix = "organoid_tracker_"

// Run is what the exports need to know about a finished run.
type Run struct {
	ID         string
	InputDir   string
	Images     int
	Detections int
	Duration   time.Duration
	FinishedAt time.Time
	Rows       []results.Record
}

// WriteMetrics writes the run's metrics to path. The file is written to a
// temporary name and renamed so a collector never reads a partial file.
func WriteMetrics(path string, run Run) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".metrics-*.prom")
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeMetrics(tmp, run); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move metrics file into place: %w", err)
	}
	return nil
}

// EncodeMetrics writes the run's metric families in text exposition format.
func EncodeMetrics(w io.Writer, run Run) error {
	for _, mf := range metricFamilies(run) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func metricFamilies(run Run) []*dto.MetricFamily {
	tracks := tracking.Group(run.Rows)
	dir := label("input_dir", run.InputDir)

	families := []*dto.MetricFamily{
		gauge("images_processed", "Images processed in the last run.", float64(run.Images), dir),
		gauge("detections", "Detections at or above the score threshold in the last run.", float64(run.Detections), dir),
		gauge("tracks", "Tracks that survived the presence filter in the last run.", float64(len(tracks)), dir),
		gauge("rows", "Rows written to results.csv in the last run.", float64(len(run.Rows)), dir),
		gauge("run_duration_seconds", "Wall-clock duration of the last run.", run.Duration.Seconds(), dir),
		gauge("last_run_timestamp_seconds", "Unix time the last run finished.", float64(run.FinishedAt.Unix()), dir),
	}

	particles := make(map[string]int)
	surfaces := make(map[string][]float64)
	for _, tr := range tracks {
		particles[tr.Well]++
		for _, p := range tr.Points {
			surfaces[tr.Well] = append(surfaces[tr.Well], p.Surface)
		}
	}

	wells := tracking.Wells(tracks)
	sort.Strings(wells)
	if len(wells) > 0 {
		particleFamily := newFamily("well_particles", "Surviving particles per well.")
		surfaceFamily := newFamily("well_mean_surface_pixels", "Mean organoid surface per well, in square pixels.")
		for _, well := range wells {
			labels := []*dto.LabelPair{label("input_dir", run.InputDir), label("well", well)}
			particleFamily.Metric = append(particleFamily.Metric, gaugeMetric(float64(particles[well]), labels...))
			surfaceFamily.Metric = append(surfaceFamily.Metric, gaugeMetric(stat.Mean(surfaces[well], nil), labels...))
		}
		families = append(families, particleFamily, surfaceFamily)
	}

	return families
}

func newFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(metricPrefix + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(name, help string, value float64, labels ...*dto.LabelPair) *dto.MetricFamily {
	mf := newFamily(name, help)
	mf.Metric = []*dto.Metric{gaugeMetric(value, labels...)}
	return mf
}

func gaugeMetric(value float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(value)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
