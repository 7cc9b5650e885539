package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/organoid-tracker/internal/config"
	"github.com/ironsheep/organoid-tracker/internal/detection"
	"github.com/ironsheep/organoid-tracker/internal/detection/dnn"
	"github.com/ironsheep/organoid-tracker/internal/logging"
	"github.com/ironsheep/organoid-tracker/internal/pipeline"
	"github.com/ironsheep/organoid-tracker/internal/timeutil"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("organoid-tracker %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp(os.Stdout)
			return
		}
	}

	os.Exit(run(os.Args[1:], os.Stderr))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "organoid-tracker - detect and track organoids in well-plate time series")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: organoid-tracker [options] <input_dir>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The input directory must contain config.json. Results are written to")
	fmt.Fprintln(w, "<input_dir>/results.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --gpu                Run the detection model on CUDA")
	fmt.Fprintln(w, "  --blob               Use the built-in blob detector instead of the model")
	fmt.Fprintln(w, "  --log-config <path>  YAML logging config (default conf/logging.yaml)")
	fmt.Fprintln(w, "  --log-level <level>  debug, info, warn or error")
	fmt.Fprintln(w, "  --sqlite <path>      Also store the run and its tracks in a SQLite database")
	fmt.Fprintln(w, "  --metrics            Write results/metrics.prom")
	fmt.Fprintln(w, "  --plot               Write one trajectory chart per well")
	fmt.Fprintln(w, "  --version, -v        Print version information")
	fmt.Fprintln(w, "  --help, -h           Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Override the configured log level\n", logging.EnvLevel)
}

// options holds the parsed command line.
type options struct {
	gpu       bool
	blob      bool
	logConfig string
	logLevel  string
	sqlite    string
	metrics   bool
	plot      bool
	inputDir  string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("organoid-tracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printHelp(stderr) }

	opts := &options{}
	fs.BoolVar(&opts.gpu, "gpu", false, "run the detection model on CUDA")
	fs.BoolVar(&opts.blob, "blob", false, "use the built-in blob detector")
	fs.StringVar(&opts.logConfig, "log-config", "", "YAML logging config")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level")
	fs.StringVar(&opts.sqlite, "sqlite", "", "SQLite database for runs and tracks")
	fs.BoolVar(&opts.metrics, "metrics", false, "write results/metrics.prom")
	fs.BoolVar(&opts.plot, "plot", false, "write trajectory charts")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected one input directory, got %d arguments", fs.NArg())
	}
	opts.inputDir = fs.Arg(0)
	return opts, nil
}

// run executes one job and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	start := time.Now()

	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logCfg, err := logging.LoadConfig(opts.logConfig)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		logCfg.Level = opts.logLevel
	}
	logger, closeLog, err := logging.Setup(logCfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Debug("organoid-tracker starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	info, err := os.Stat(opts.inputDir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("not a directory")
		}
		logger.Error("Invalid input directory", "path", opts.inputDir, "error", err)
		return 0
	}

	cfg, err := config.LoadDir(opts.inputDir)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return 1
	}

	detector, err := newDetector(cfg, opts, logger)
	if err != nil {
		logger.Error("Failed to initialise detector", "error", err)
		return 1
	}
	defer func() {
		if err := detector.Close(); err != nil {
			logger.Warn("Failed to release detector", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &pipeline.Runner{
		Config:    cfg,
		Detector:  detector,
		Clock:     timeutil.RealClock{},
		Logger:    logger,
		RunID:     runID,
		Exporters: exporters(opts, logger),
	}
	if _, err := runner.Run(ctx, opts.inputDir); err != nil {
		logger.Error("Job failed", "error", err)
		return 1
	}

	elapsed := time.Since(start)
	logger.Info(fmt.Sprintf("Job completed in %s", elapsed.Round(time.Millisecond)),
		"duration_seconds", elapsed.Seconds())
	return 0
}

// newDetector opens the configured model, or the blob detector when --blob
// is given. A model that cannot be loaded ends the run.
func newDetector(cfg *config.Config, opts *options, logger *slog.Logger) (detection.Detector, error) {
	if opts.blob {
		if opts.gpu {
			logger.Warn("--gpu has no effect on the blob detector")
		}
		logger.Info("Blob detector ready", "mean_pixel", cfg.GetMeanPixel())
		return detection.NewBlobDetector(cfg.GetMeanPixel()), nil
	}

	net, err := dnn.Open(dnn.Options{Model: cfg.GetModel(), GPU: opts.gpu})
	if err != nil {
		if errors.Is(err, dnn.ErrUnavailable) {
			return nil, fmt.Errorf("cannot load %s: %w; pass --blob to use the built-in detector", cfg.GetModel(), err)
		}
		return nil, err
	}
	logger.Info("Detection model loaded", "model", cfg.GetModel(), "gpu", opts.gpu)
	return net, nil
}
