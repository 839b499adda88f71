// Package vision turns captured frames into contours for the sorting loop.
// The pipeline is a classic threshold-and-trace detector: grayscale via
// decode, Gaussian blur, fixed-level binarisation, connected-component
// boundary extraction. No adaptive thresholding; the cell runs under
// controlled lighting.
package vision

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Options tunes the frame preprocessing stage.
type Options struct {
	// FrameWidth and FrameHeight bound the working resolution. Larger frames
	// are downscaled so area thresholds stay meaningful across sources.
	FrameWidth  int
	FrameHeight int

	// BinaryLevel is the gray cutoff for binarisation.
	BinaryLevel uint8

	// BlurRadius is the Gaussian radius applied before thresholding to knock
	// out sensor noise.
	BlurRadius float64

	// Invert flips the frame before thresholding, for dark parts on a light
	// belt.
	Invert bool
}

func (o Options) withDefaults() Options {
	if o.FrameWidth <= 0 {
		o.FrameWidth = 640
	}
	if o.FrameHeight <= 0 {
		o.FrameHeight = 480
	}
	if o.BinaryLevel == 0 {
		o.BinaryLevel = 128
	}
	if o.BlurRadius <= 0 {
		o.BlurRadius = 1.4
	}
	return o
}

// Binarize reduces a frame to a black-and-white mask where foreground pixels
// are 255. Frames larger than the working resolution are fitted down first.
func Binarize(img image.Image, opts Options) *image.Gray {
	opts = opts.withDefaults()

	if b := img.Bounds(); b.Dx() > opts.FrameWidth || b.Dy() > opts.FrameHeight {
		img = imaging.Fit(img, opts.FrameWidth, opts.FrameHeight, imaging.Lanczos)
	}
	if opts.Invert {
		img = imaging.Invert(img)
	}

	blurred := blur.Gaussian(img, opts.BlurRadius)
	return segment.Threshold(blurred, opts.BinaryLevel)
}
