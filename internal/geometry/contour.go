// Package geometry derives scalar shape descriptors from closed contours
// produced by the vision layer. All operations are pure; degenerate input is
// reported with a sentinel rather than an error.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Contour is an ordered sequence of 2D points forming a closed polygon. The
// closing edge from the last point back to the first is implicit.
type Contour []r2.Vec

// Area returns the polygon area computed with the shoelace formula. The
// result is always non-negative regardless of winding order.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum float64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the total edge length including the closing edge.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	var sum float64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += r2.Norm(r2.Sub(q, p))
	}
	return sum
}

// BoundingBox returns the axis-aligned bounds of the contour.
func (c Contour) BoundingBox() (min, max r2.Vec) {
	if len(c) == 0 {
		return r2.Vec{}, r2.Vec{}
	}
	min, max = c[0], c[0]
	for _, p := range c[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Centroid returns the arithmetic mean of the contour points.
func (c Contour) Centroid() r2.Vec {
	if len(c) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, p := range c {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(c)), sum)
}
