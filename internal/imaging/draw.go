package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DetectedSuffix is appended to an input's base name to form its annotated copy.
const DetectedSuffix = "_detected.png"

// BoxThickness is the outline width of drawn boxes in pixels.
const BoxThickness = 2

// ParseColor parses a "#RRGGBB" or "#RGB" colour string.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawBoxes returns a copy of img with the outline of each rectangle drawn in c.
// Rectangles use image.Rectangle semantics; parts outside the image are clipped.
func DrawBoxes(img image.Image, boxes []image.Rectangle, c color.Color) *image.NRGBA {
	dst := imaging.Clone(img)
	offset := img.Bounds().Min

	for _, b := range boxes {
		drawOutline(dst, b.Sub(offset), BoxThickness, c)
	}
	return dst
}

// drawOutline draws the four edges of r, each thickness pixels wide and
// centred on the edge line.
func drawOutline(dst *image.NRGBA, r image.Rectangle, thickness int, c color.Color) {
	r = r.Canon()
	lo := -thickness / 2
	hi := lo + thickness

	for d := lo; d < hi; d++ {
		for x := r.Min.X + lo; x < r.Max.X+hi; x++ {
			setClipped(dst, x, r.Min.Y+d, c)
			setClipped(dst, x, r.Max.Y+d, c)
		}
		for y := r.Min.Y + lo; y < r.Max.Y+hi; y++ {
			setClipped(dst, r.Min.X+d, y, c)
			setClipped(dst, r.Max.X+d, y, c)
		}
	}
}

func setClipped(dst *image.NRGBA, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
		dst.Set(x, y, c)
	}
}

// AnnotatedName returns the file name of the annotated copy of an input.
func AnnotatedName(inputPath string) string {
	return filepath.Base(inputPath) + DetectedSuffix
}

// SaveAnnotated writes img as PNG into dir under AnnotatedName(inputPath),
// overwriting any previous copy. It returns the written path.
func SaveAnnotated(dir, inputPath string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}
	out := filepath.Join(dir, AnnotatedName(inputPath))
	if err := imaging.Save(img, out); err != nil {
		return "", fmt.Errorf("failed to save annotated image: %w", err)
	}
	return out, nil
}
