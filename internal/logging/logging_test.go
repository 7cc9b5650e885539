package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if err != nil {
				t.Fatalf("ParseLevel(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel should reject unknown levels")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvLevel, "")
	path := filepath.Join(t.TempDir(), "logging.yaml")
	data := "level: debug\nformat: text\nfile: run.log\nno_color: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Level != "debug" || cfg.Format != "text" || cfg.File != "run.log" || !cfg.NoColor {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_ExplicitMissing(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/logging.yaml"); err == nil {
		t.Error("LoadConfig should fail for an explicit missing path")
	}
}

func TestSetup_Console(t *testing.T) {
	var buf bytes.Buffer

	logger, closeFn, err := Setup(Config{Level: "info", NoColor: true}, &buf)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closeFn()

	logger.Debug("hidden")
	logger.Info("Start organoid detection", "images", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, "Start organoid detection") || !strings.Contains(out, "images=3") {
		t.Errorf("unexpected console output: %q", out)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	path := filepath.Join(t.TempDir(), "logging.yaml")
	if err := os.WriteFile(path, []byte("level: error\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Level != "debug" {
		t.Errorf("environment level override not applied: %q", cfg.Level)
	}
}

func TestLoadConfig_DefaultMissing(t *testing.T) {
	t.Setenv(EnvLevel, "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestSetup_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	var console bytes.Buffer

	logger, closeFn, err := Setup(Config{File: path, NoColor: true}, &console)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.With("run_id", "abc").Warn("no particles are detected in >= 50% of the time")
	if err := closeFn(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("file sink is not JSON: %v (%q)", err, data)
	}
	if rec["level"] != "WARN" || rec["run_id"] != "abc" {
		t.Errorf("unexpected record: %v", rec)
	}
	if !strings.Contains(console.String(), "no particles") {
		t.Error("console sink did not receive the record")
	}
}

func TestSetup_BadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if _, _, err := Setup(Config{File: path, Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("Setup should reject unknown formats")
	}
}
