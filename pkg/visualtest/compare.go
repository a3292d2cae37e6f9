// Package visualtest compares viewport snapshots against reference images.
package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/spf13/afero"
)

// CompareResult contains the results of an image comparison
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest channel difference seen
	// Diff shows matching pixels in grey and mismatches in red. It is only
	// set when CompareOptions.Diff is true.
	Diff *image.RGBA
}

// DifferentPercent is the share of mismatching pixels.
func (r *CompareResult) DifferentPercent() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DifferentPixels) / float64(r.TotalPixels) * 100
}

type CompareOptions struct {
	// Tolerance is the largest per-channel difference (0-255) that still
	// counts as equal.
	Tolerance int

	// FuzzyRadius lets a pixel match any expected pixel within this many
	// pixels. Text shifted by a pixel or two then still matches.
	FuzzyRadius int

	// MaxDifferentPercent passes the comparison when at most this share of
	// pixels differ.
	MaxDifferentPercent float64

	Diff bool
}

func DefaultOptions() CompareOptions {
	return CompareOptions{Tolerance: 2}
}

// Compare checks actual against expected pixel by pixel.
func Compare(actual, expected image.Image, opts CompareOptions) (*CompareResult, error) {
	bounds := actual.Bounds()
	if bounds != expected.Bounds() {
		return &CompareResult{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", bounds, expected.Bounds())
	}

	result := &CompareResult{
		Match:       true,
		TotalPixels: bounds.Dx() * bounds.Dy(),
	}
	if opts.Diff {
		result.Diff = image.NewRGBA(bounds)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			diff := difference(actual.At(x, y), expected.At(x, y))
			result.MaxDifference = max(result.MaxDifference, diff)

			matched := diff <= opts.Tolerance ||
				(opts.FuzzyRadius > 0 && fuzzyMatch(actual, expected, x, y, opts.FuzzyRadius, opts.Tolerance))
			if !matched {
				result.Match = false
				result.DifferentPixels++
			}
			if result.Diff != nil {
				result.Diff.Set(x, y, diffColor(actual.At(x, y), matched))
			}
		}
	}

	if !result.Match && opts.MaxDifferentPercent > 0 && result.DifferentPercent() <= opts.MaxDifferentPercent {
		result.Match = true
	}
	return result, nil
}

// fuzzyMatch checks if the actual pixel at (x, y) matches any expected pixel within radius
func fuzzyMatch(actual, expected image.Image, x, y, radius, tolerance int) bool {
	bounds := expected.Bounds()
	want := actual.At(x, y)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(bounds) {
				continue
			}
			if difference(want, expected.At(p.X, p.Y)) <= tolerance {
				return true
			}
		}
	}
	return false
}

// difference is the largest 8-bit channel difference between a and b.
func difference(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absDiff(ar, br),
		absDiff(ag, bg),
		absDiff(ab, bb),
		absDiff(aa, ba),
	)
}

func absDiff(a, b uint32) int {
	d := int(a>>8) - int(b>>8)
	if d < 0 {
		return -d
	}
	return d
}

func diffColor(c color.Color, matched bool) color.Color {
	if !matched {
		return color.RGBA{255, 0, 0, 255}
	}
	r, _, _, _ := c.RGBA()
	gray := uint8(r >> 8)
	return color.RGBA{gray, gray, gray, 255}
}

// LoadPNG decodes a PNG file from fs.
func LoadPNG(fs afero.Fs, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// SavePNG encodes img to path on fs.
func SavePNG(fs afero.Fs, path string, img image.Image) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
