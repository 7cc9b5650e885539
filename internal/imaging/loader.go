package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// Scan returns every file under root whose base name matches pattern and whose
// path contains none of the exclude substrings.
//
// Parameters:
//   - root: Directory to walk recursively.
//   - pattern: filepath.Match pattern applied to the base name (e.g. "*.jpg").
//   - exclude: Substrings that disqualify a path (e.g. "_detected").
//
// Returns:
//   - []string: Matching paths in lexical order.
//   - error: Non-nil if the pattern is malformed or the walk fails.
func Scan(root, pattern string, exclude []string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}
		for _, x := range exclude {
			if x != "" && strings.Contains(path, x) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Load decodes the image at path. EXIF orientation is ignored so that pixel
// coordinates match what the acquisition software wrote.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// ImageInfo identifies a decoded input image in log records.
type ImageInfo struct {
	Name   string
	Width  int
	Height int
}

// Info returns the base name and dimensions of an already decoded image.
func Info(path string, img image.Image) ImageInfo {
	b := img.Bounds()
	return ImageInfo{
		Name:   filepath.Base(path),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

// LogValue implements slog.LogValuer.
func (i ImageInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", i.Name),
		slog.Int("width", i.Width),
		slog.Int("height", i.Height),
	)
}
