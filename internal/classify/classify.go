package classify

import "github.com/sortcell/sortcell/internal/geometry"

// Classify assigns a Label to one set of shape descriptors. It is pure and
// total: every input yields exactly one label, defaulting to Unknown.
//
// Rules are evaluated in order and the first match wins. The strict rules
// come first; the relaxed fallbacks behind them deliberately overlap so that
// shapes with noisy vertex counts from polygon approximation still resolve.
// A single strict rule per shape proved too brittle under uneven lighting;
// the extra false-positive risk is absorbed downstream by the detection
// stabilizer's repetition requirement.
func Classify(d geometry.Descriptors) Label {
	if d.Perimeter <= 0 {
		return Unknown
	}

	// Ragged, sparse, or strongly concave blobs are never a sortable shape.
	if d.Extent < 0.25 || d.Solidity < 0.70 {
		return Unknown
	}

	// Triangle, strict.
	if d.VertexCount == 3 && d.Extent >= 0.30 && d.Extent <= 0.85 &&
		d.AspectRatio >= 0.40 && d.AspectRatio <= 2.00 {
		return Triangle
	}

	// Triangle, relaxed: catches triangles whose approximation picked up a
	// fourth vertex on a worn corner.
	if d.VertexCount <= 4 && d.Circularity < 0.60 && d.Solidity > 0.80 &&
		d.AspectRatio >= 0.40 && d.AspectRatio <= 1.80 && d.Extent < 0.70 {
		return Triangle
	}

	// Quadrilaterals split into square vs rectangle on aspect ratio.
	if d.VertexCount == 4 && d.Extent >= 0.60 && d.Extent <= 0.95 {
		if d.AspectRatio >= 0.75 && d.AspectRatio <= 1.35 {
			return Square
		}
		if d.AspectRatio >= 0.40 && d.AspectRatio <= 2.50 {
			return Rectangle
		}
	}

	// Square, relaxed: near-unit aspect with a full bounding box reads as a
	// square even when the vertex count wandered.
	if d.AspectRatio >= 0.80 && d.AspectRatio <= 1.25 && d.Extent > 0.70 && d.Circularity < 0.80 {
		return Square
	}

	// Circle.
	if (d.VertexCount >= 6 || d.Circularity > 0.70) && d.Circularity > 0.60 && d.Solidity > 0.80 {
		return Circle
	}

	// Circle, relaxed: very high circularity alone is convincing.
	if d.Circularity > 0.75 {
		return Circle
	}

	// Last-resort split for low-vertex blobs nothing above claimed.
	if d.VertexCount <= 4 {
		if d.Circularity < 0.50 && d.Extent < 0.70 {
			return Triangle
		}
		if d.AspectRatio >= 0.70 && d.AspectRatio <= 1.30 && d.Extent > 0.60 {
			return Square
		}
	}

	return Unknown
}
