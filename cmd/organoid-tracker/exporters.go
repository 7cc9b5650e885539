package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ironsheep/organoid-tracker/internal/pipeline"
	"github.com/ironsheep/organoid-tracker/internal/report"
	"github.com/ironsheep/organoid-tracker/internal/store"
)

// exporters returns the optional post-run exports selected on the command line.
func exporters(opts *options, logger *slog.Logger) []pipeline.Exporter {
	var out []pipeline.Exporter

	if opts.sqlite != "" {
		path := opts.sqlite
		out = append(out, pipeline.ExporterFunc{
			ExporterName: "sqlite",
			Fn: func(ctx context.Context, s *pipeline.Summary) error {
				return saveToStore(ctx, path, s, logger)
			},
		})
	}

	if opts.metrics {
		out = append(out, pipeline.ExporterFunc{
			ExporterName: "metrics",
			Fn: func(ctx context.Context, s *pipeline.Summary) error {
				return report.WriteMetrics(filepath.Join(s.ResultsDir, report.MetricsFileName), reportRun(s))
			},
		})
	}

	if opts.plot {
		out = append(out, pipeline.ExporterFunc{
			ExporterName: "plot",
			Fn: func(ctx context.Context, s *pipeline.Summary) error {
				paths, err := report.PlotTracks(s.ResultsDir, s.Rows)
				if err != nil {
					return err
				}
				logger.Debug("Trajectory charts written", "count", len(paths))
				return nil
			},
		})
	}

	return out
}

func saveToStore(ctx context.Context, path string, s *pipeline.Summary, logger *slog.Logger) error {
	db, err := store.Open(path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	run := store.Run{
		ID:         s.RunID,
		InputDir:   s.InputDir,
		StartedAt:  s.Started,
		FinishedAt: s.Started.Add(s.Duration),
		Images:     s.Images,
		Detections: s.Detections,
		Tracks:     s.Tracks,
	}
	if err := db.SaveRun(ctx, run, s.Rows); err != nil {
		return fmt.Errorf("failed to store run %s: %w", s.RunID, err)
	}
	return nil
}

func reportRun(s *pipeline.Summary) report.Run {
	return report.Run{
		ID:         s.RunID,
		InputDir:   s.InputDir,
		Images:     s.Images,
		Detections: s.Detections,
		Duration:   s.Duration,
		FinishedAt: s.Started.Add(s.Duration),
		Rows:       s.Rows,
	}
}
