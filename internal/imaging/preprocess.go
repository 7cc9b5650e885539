package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
)

// Channels is the number of colour channels in a Tensor.
const Channels = 3

// Tensor is a preprocessed network input in HWC layout with BGR channel order.
type Tensor struct {
	// Data holds Height*Width*Channels values, row-major.
	Data []float32

	// Width of the resized image in pixels.
	Width int

	// Height of the resized image in pixels.
	Height int

	// Scale is the factor applied to the original image. Divide predicted
	// coordinates by Scale to map them back.
	Scale float64
}

// At returns the B, G, R values at (x, y).
func (t *Tensor) At(x, y int) (b, g, r float32) {
	i := (y*t.Width + x) * Channels
	return t.Data[i], t.Data[i+1], t.Data[i+2]
}

// PreprocessOptions controls Preprocess.
type PreprocessOptions struct {
	// Contrast is the contrast factor; 1 leaves the image unchanged.
	Contrast float64

	// MinSide is the target size of the shorter side.
	MinSide int

	// MaxSide caps the longer side after scaling.
	MaxSide int

	// MeanPixel is subtracted from each B, G, R value.
	MeanPixel [3]float64
}

// Preprocess adjusts contrast, resizes and normalizes img for inference.
func Preprocess(img image.Image, opts PreprocessOptions) (*Tensor, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot preprocess an empty image")
	}

	adjusted := AdjustContrast(img, opts.Contrast)

	scale := ComputeScale(b.Dx(), b.Dy(), opts.MinSide, opts.MaxSide)
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("scaled size %dx%d is empty (scale %g)", w, h, scale)
	}

	resized := imaging.Resize(adjusted, w, h, imaging.Linear)
	t := Normalize(resized, opts.MeanPixel)
	t.Scale = scale
	return t, nil
}

// ComputeScale returns the factor that maps the shorter side of a width x height
// image to minSide, reduced if needed so the longer side does not exceed maxSide.
func ComputeScale(width, height, minSide, maxSide int) float64 {
	smallest := math.Min(float64(width), float64(height))
	largest := math.Max(float64(width), float64(height))

	scale := float64(minSide) / smallest
	if maxSide > 0 && largest*scale > float64(maxSide) {
		scale = float64(maxSide) / largest
	}
	return scale
}

// AdjustContrast stretches each channel around its mean by factor. Values are
// clipped to [0, 255] and truncated toward zero. Alpha is left untouched. A
// factor of 1 returns an unchanged copy.
func AdjustContrast(img image.Image, factor float64) *image.RGBA {
	if factor == 1 {
		return adjust.Apply(img, func(c color.RGBA) color.RGBA { return c })
	}
	mr, mg, mb := channelMeans(img)

	stretch := func(v uint8, mean float64) uint8 {
		x := (float64(v)-mean)*factor + mean
		if x < 0 {
			return 0
		}
		if x > 255 {
			return 255
		}
		return uint8(x)
	}

	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: stretch(c.R, mr),
			G: stretch(c.G, mg),
			B: stretch(c.B, mb),
			A: c.A,
		}
	})
}

// channelMeans returns the mean 8-bit R, G, B values over the image.
func channelMeans(img image.Image) (r, g, b float64) {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0, 0, 0
	}

	var sr, sg, sb float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			sr += float64(c.R)
			sg += float64(c.G)
			sb += float64(c.B)
		}
	}
	return sr / n, sg / n, sb / n
}

// Normalize converts img to a BGR float32 tensor with meanPixel (B, G, R)
// subtracted. Scale is set to 1.
func Normalize(img image.Image, meanPixel [3]float64) *Tensor {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	t := &Tensor{
		Data:   make([]float32, w*h*Channels),
		Width:  w,
		Height: h,
		Scale:  1,
	}

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			i := (y*w + x) * Channels
			t.Data[i] = float32(float64(p[2]) - meanPixel[0])
			t.Data[i+1] = float32(float64(p[1]) - meanPixel[1])
			t.Data[i+2] = float32(float64(p[0]) - meanPixel[2])
		}
	}
	return t
}
