package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/organoid-tracker/internal/config"
	"github.com/ironsheep/organoid-tracker/internal/detection"
	"github.com/ironsheep/organoid-tracker/internal/imaging"
	"github.com/ironsheep/organoid-tracker/internal/results"
	"github.com/ironsheep/organoid-tracker/internal/timeutil"
	"github.com/ironsheep/organoid-tracker/internal/tracking"
)

// ResultsDir is the output directory created inside the input directory.
const ResultsDir = "results"

// Summary describes a completed run.
type Summary struct {
	// RunID identifies the run in logs and exports.
	RunID string

	// InputDir is the directory that was processed.
	InputDir string

	// ResultsDir is where outputs were written.
	ResultsDir string

	// Images is the number of images processed.
	Images int

	// Detections is the number of boxes at or above the threshold.
	Detections int

	// Tracks is the number of (well, particle) groups that survived filtering.
	Tracks int

	// Rows holds the final table as written to results.csv.
	Rows []results.Record

	// Started is when the run began.
	Started time.Time

	// Duration is the wall-clock time of the run, excluding exporters.
	Duration time.Duration
}

// Exporter publishes a completed run somewhere beyond results.csv.
type Exporter interface {
	// Name identifies the exporter in logs.
	Name() string

	// Export is called once per successful run.
	Export(ctx context.Context, s *Summary) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc struct {
	ExporterName string
	Fn           func(ctx context.Context, s *Summary) error
}

// Name returns ExporterName.
func (e ExporterFunc) Name() string { return e.ExporterName }

// Export calls Fn.
func (e ExporterFunc) Export(ctx context.Context, s *Summary) error { return e.Fn(ctx, s) }

// Runner executes the job.
type Runner struct {
	Config    *config.Config
	Detector  detection.Detector
	Clock     timeutil.Clock
	Logger    *slog.Logger
	RunID     string
	Exporters []Exporter
}

// Run processes inputDir and returns a summary of the run.
func (r *Runner) Run(ctx context.Context, inputDir string) (*Summary, error) {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	log := r.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cfg := r.Config

	summary := &Summary{
		RunID:      r.RunID,
		InputDir:   inputDir,
		ResultsDir: filepath.Join(inputDir, ResultsDir),
		Started:    clock.Now(),
	}

	if err := os.MkdirAll(summary.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	boxColor, err := imaging.ParseColor(cfg.GetBoxColor())
	if err != nil {
		return nil, err
	}

	paths, err := imaging.Scan(inputDir, cfg.GetInputGlob(), cfg.GetExclude())
	if err != nil {
		return nil, err
	}

	job := &imageJob{
		cfg:        cfg,
		detector:   r.Detector,
		aggregator: results.NewAggregator(cfg.Pattern(), clock),
		boxColor:   boxColor,
		resultsDir: summary.ResultsDir,
		log:        log,
	}

	log.Info("Starting detection", "images", len(paths), "input_dir", inputDir)
	var table results.Table
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled after %d of %d images: %w", i, len(paths), err)
		}

		log.Info(fmt.Sprintf("Analysing image %d of %d", i+1, len(paths)), "image", filepath.Base(path))
		rows, err := job.process(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", path, err)
		}
		table.Append(rows...)
	}
	summary.Images = len(paths)
	summary.Detections = table.Len()
	log.Info("Detection finished", "images", summary.Images, "detections", summary.Detections)

	log.Info("Starting tracking",
		"search_range", cfg.GetSearchRange(),
		"memory", cfg.GetMemory(),
		"min_presence", cfg.GetMinPresence())
	linked, err := tracking.Link(table.Rows(), tracking.Options{
		SearchRange: cfg.GetSearchRange(),
		Memory:      cfg.GetMemory(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link tracks: %w", err)
	}
	summary.Rows = tracking.Filter(linked, cfg.GetMinPresence())
	summary.Tracks = len(tracking.Group(summary.Rows))
	if len(summary.Rows) == 0 {
		log.Warn("No tracks survived filtering; writing an empty table",
			"detections", summary.Detections)
	}
	log.Info("Tracking finished", "tracks", summary.Tracks, "rows", len(summary.Rows))

	csvPath := filepath.Join(summary.ResultsDir, results.FileName)
	if err := results.WriteCSV(csvPath, summary.Rows); err != nil {
		return nil, err
	}
	log.Info("Results written", "path", csvPath)

	summary.Duration = clock.Since(summary.Started)

	for _, e := range r.Exporters {
		if err := e.Export(ctx, summary); err != nil {
			return nil, fmt.Errorf("export %s failed: %w", e.Name(), err)
		}
		log.Info("Export finished", "exporter", e.Name())
	}

	return summary, nil
}

// imageJob holds what processing a single image needs.
type imageJob struct {
	cfg        *config.Config
	detector   detection.Detector
	aggregator *results.Aggregator
	boxColor   color.NRGBA
	resultsDir string
	log        *slog.Logger
}

// process runs one image through detection and returns its records.
func (j *imageJob) process(ctx context.Context, path string) ([]results.Record, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	info := imaging.Info(path, img)

	tensor, err := imaging.Preprocess(img, imaging.PreprocessOptions{
		Contrast:  j.cfg.GetContrast(),
		MinSide:   j.cfg.GetImageSize(),
		MaxSide:   j.cfg.GetMaxSide(),
		MeanPixel: j.cfg.GetMeanPixel(),
	})
	if err != nil {
		return nil, err
	}

	pred, err := j.detector.Detect(ctx, tensor)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	if err := pred.Validate(); err != nil {
		return nil, err
	}
	pred.Rescale(tensor.Scale)
	boxes, scores := pred.Above(j.cfg.GetThreshold())

	rects := make([]image.Rectangle, len(boxes))
	for i, b := range boxes {
		rects[i] = b.Rect()
	}
	annotated := imaging.DrawBoxes(img, rects, j.boxColor)
	out, err := imaging.SaveAnnotated(j.resultsDir, path, annotated)
	if err != nil {
		return nil, err
	}

	j.log.Debug("Image processed",
		"image", info,
		"candidates", pred.Len(),
		"retained", len(boxes),
		"scale", tensor.Scale,
		"annotated", out)

	return j.aggregator.Aggregate(info.Name, boxes, scores)
}
