package geometry

import "math"

// DefaultMinArea is the minimum contour area in square pixels considered a
// real object at the reference 640x480 frame size. Anything smaller is
// speckle noise from thresholding and is reported as degenerate.
const DefaultMinArea = 2500

// approxEpsilonFactor scales the polygon approximation tolerance by the
// contour perimeter. Balanced so that corner vertices survive but sampling
// jitter along straight edges does not.
const approxEpsilonFactor = 0.02

// Descriptors are the scalar shape measurements the classifier operates on.
// All ratios are non-negative; values are undefined when the extraction
// reported degenerate input.
type Descriptors struct {
	Area        float64
	Perimeter   float64
	AspectRatio float64
	Circularity float64
	Extent      float64
	Solidity    float64
	VertexCount int
}

// Extract derives Descriptors from a contour. The second return value is
// false when the contour is degenerate: fewer than three points, zero
// perimeter, a collapsed bounding box, or an area below minArea (pass
// DefaultMinArea unless tuned). Extract never fails otherwise.
func Extract(c Contour, minArea float64) (Descriptors, bool) {
	if len(c) < 3 {
		return Descriptors{}, false
	}

	area := c.Area()
	perimeter := c.Perimeter()
	if perimeter == 0 || area < minArea {
		return Descriptors{}, false
	}

	min, max := c.BoundingBox()
	width := max.X - min.X
	height := max.Y - min.Y
	if width <= 0 || height <= 0 {
		return Descriptors{}, false
	}

	hull := ConvexHull(c)
	hullArea := hull.Area()
	if hullArea == 0 {
		return Descriptors{}, false
	}

	approx := Approximate(c, approxEpsilonFactor*perimeter)

	return Descriptors{
		Area:        area,
		Perimeter:   perimeter,
		AspectRatio: width / height,
		Circularity: 4 * math.Pi * area / (perimeter * perimeter),
		Extent:      area / (width * height),
		Solidity:    area / hullArea,
		VertexCount: len(approx),
	}, true
}
