package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImage writes a solid-colour JPEG at dir/name and returns its path.
func createTestImage(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	grey := color.RGBA{128, 128, 128, 255}

	createTestImage(t, dir, "A1_t1.jpg", 8, 8, grey)
	createTestImage(t, dir, "A1_t0.jpg", 8, 8, grey)
	createTestImage(t, dir, "sub/B2_t0.jpg", 8, 8, grey)
	createTestImage(t, dir, "A1_t0.jpg_detected.jpg", 8, 8, grey)
	createTestImage(t, dir, "results_detected/C3_t0.jpg", 8, 8, grey)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := Scan(dir, "*.jpg", []string{"_detected"})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "A1_t0.jpg"),
		filepath.Join(dir, "A1_t1.jpg"),
		filepath.Join(dir, "sub", "B2_t0.jpg"),
	}
	if len(paths) != len(want) {
		t.Fatalf("Scan: got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d]: got %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestScan_Empty(t *testing.T) {
	paths, err := Scan(t.TempDir(), "*.jpg", nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}

func TestScan_BadPattern(t *testing.T) {
	if _, err := Scan(t.TempDir(), "[", nil); err == nil {
		t.Error("Scan should fail for a malformed pattern")
	}
}

func TestScan_NonExistent(t *testing.T) {
	if _, err := Scan("/nonexistent/input", "*.jpg", nil); err == nil {
		t.Error("Scan should fail for a missing root")
	}
}

func TestLoad(t *testing.T) {
	path := createTestImage(t, t.TempDir(), "A1_t0.jpg", 120, 80, color.RGBA{255, 0, 0, 255})

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	info := Info(path, img)
	if info.Width != 120 || info.Height != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 120x80", info.Width, info.Height)
	}
	if info.Name != "A1_t0.jpg" {
		t.Errorf("Name: got %s, want A1_t0.jpg", info.Name)
	}
}

func TestImageInfo_LogValue(t *testing.T) {
	info := ImageInfo{Name: "A1_t0.jpg", Width: 120, Height: 80}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("loaded", "image", info)

	out := buf.String()
	for _, want := range []string{"image.name=A1_t0.jpg", "image.width=120", "image.height=80"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLoad_NonExistent(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/image.jpg"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestLoad_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}
