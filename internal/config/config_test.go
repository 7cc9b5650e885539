package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJSON = `{
	"model": "/models/organoids.onnx",
	"image_size": 800,
	"contrast": 1.5,
	"threshold": 0.5,
	"regex": "(?P<WELL>[A-H][0-9]{1,2})_t(?P<T>[0-9]+)"
}`

// writeConfig writes data as config.json into a fresh temp dir and returns the dir.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeConfig(t, validJSON)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if cfg.GetModel() != "/models/organoids.onnx" {
		t.Errorf("model: got %q", cfg.GetModel())
	}
	if cfg.GetImageSize() != 800 {
		t.Errorf("image_size: got %d, want 800", cfg.GetImageSize())
	}
	if cfg.GetContrast() != 1.5 {
		t.Errorf("contrast: got %g, want 1.5", cfg.GetContrast())
	}
	if cfg.GetThreshold() != 0.5 {
		t.Errorf("threshold: got %g, want 0.5", cfg.GetThreshold())
	}
	if cfg.Pattern() == nil {
		t.Fatal("Pattern is nil after a successful load")
	}
	m := cfg.Pattern().FindStringSubmatch("plate1_B7_t12.jpg")
	if m == nil {
		t.Fatal("pattern did not match sample file name")
	}
	if got := m[cfg.Pattern().SubexpIndex(GroupWell)]; got != "B7" {
		t.Errorf("WELL: got %q, want B7", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadDir(writeConfig(t, validJSON))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if cfg.GetMaxSide() != DefaultMaxSide {
		t.Errorf("max_side: got %d, want %d", cfg.GetMaxSide(), DefaultMaxSide)
	}
	if cfg.GetSearchRange() != 20 {
		t.Errorf("search_range: got %g, want 20", cfg.GetSearchRange())
	}
	if cfg.GetMemory() != 2 {
		t.Errorf("memory: got %d, want 2", cfg.GetMemory())
	}
	if cfg.GetMinPresence() != 0.5 {
		t.Errorf("min_presence: got %g, want 0.5", cfg.GetMinPresence())
	}
	if cfg.GetBoxColor() != "#FF00FF" {
		t.Errorf("box_color: got %q", cfg.GetBoxColor())
	}
	if cfg.GetMeanPixel() != [3]float64{103.939, 116.779, 123.68} {
		t.Errorf("mean_pixel: got %v", cfg.GetMeanPixel())
	}
	if cfg.GetInputGlob() != "*.jpg" {
		t.Errorf("input_glob: got %q", cfg.GetInputGlob())
	}
	if len(cfg.GetExclude()) != 1 || cfg.GetExclude()[0] != "_detected" {
		t.Errorf("exclude: got %v", cfg.GetExclude())
	}
}

func TestLoad_Overrides(t *testing.T) {
	data := `{
		"model": "m.pb", "image_size": 512, "contrast": 1, "threshold": 0.3,
		"regex": "(?P<WELL>\\w+)-(?P<T>\\d+)",
		"max_side": 1024, "search_range": 35.5, "memory": 0, "min_presence": 0.75,
		"box_color": "#00ff00", "mean_pixel": [0, 0, 0], "input_glob": "*.png",
		"exclude": ["_detected", "_thumb"]
	}`
	cfg, err := LoadDir(writeConfig(t, data))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if cfg.GetMaxSide() != 1024 {
		t.Errorf("max_side: got %d", cfg.GetMaxSide())
	}
	if cfg.GetSearchRange() != 35.5 {
		t.Errorf("search_range: got %g", cfg.GetSearchRange())
	}
	if cfg.GetMemory() != 0 {
		t.Errorf("memory: got %d, want explicit 0", cfg.GetMemory())
	}
	if cfg.GetMinPresence() != 0.75 {
		t.Errorf("min_presence: got %g", cfg.GetMinPresence())
	}
	if cfg.GetMeanPixel() != [3]float64{} {
		t.Errorf("mean_pixel: got %v", cfg.GetMeanPixel())
	}
	if cfg.GetInputGlob() != "*.png" {
		t.Errorf("input_glob: got %q", cfg.GetInputGlob())
	}
	if len(cfg.GetExclude()) != 2 {
		t.Errorf("exclude: got %v", cfg.GetExclude())
	}
}

func TestLoad_MissingKeys(t *testing.T) {
	keys := []string{"model", "image_size", "contrast", "threshold", "regex"}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			fields := map[string]string{
				"model":      `"model": "m.onnx"`,
				"image_size": `"image_size": 800`,
				"contrast":   `"contrast": 1.0`,
				"threshold":  `"threshold": 0.5`,
				"regex":      `"regex": "(?P<WELL>A1)_(?P<T>\\d+)"`,
			}
			delete(fields, key)
			parts := make([]string, 0, len(fields))
			for _, v := range fields {
				parts = append(parts, v)
			}

			_, err := LoadDir(writeConfig(t, "{"+strings.Join(parts, ",")+"}"))
			if err == nil {
				t.Fatalf("expected error for missing %s", key)
			}
			if !errors.Is(err, ErrMissingKey) {
				t.Errorf("expected ErrMissingKey, got %v", err)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error %q does not name key %s", err, key)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"regex without groups", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(\\w+)_(\\d+)"}`},
		{"regex without T", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>\\w+)"}`},
		{"regex does not compile", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>[A-"}`},
		{"threshold above one", `{"model":"m","image_size":800,"contrast":1,"threshold":1.5,"regex":"(?P<WELL>A)(?P<T>1)"}`},
		{"negative image size", `{"model":"m","image_size":-1,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)"}`},
		{"zero contrast", `{"model":"m","image_size":800,"contrast":0,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)"}`},
		{"empty model", `{"model":"","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)"}`},
		{"max side below image size", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)","max_side":400}`},
		{"short mean pixel", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)","mean_pixel":[1,2]}`},
		{"negative memory", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)","memory":-1}`},
		{"bad glob", `{"model":"m","image_size":800,"contrast":1,"threshold":0.5,"regex":"(?P<WELL>A)(?P<T>1)","input_glob":"["}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadDir(writeConfig(t, tt.data)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad_NonExistent(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	if _, err := LoadDir(writeConfig(t, `{"model": `)); err == nil {
		t.Error("Load should fail for malformed JSON")
	}
}
