package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Approximate reduces a closed contour to its dominant vertices using the
// Ramer-Douglas-Peucker algorithm. The ring is split at the point farthest
// from the first point so both halves can be simplified as open chains, which
// avoids the degenerate anchor placement RDP suffers on closed curves.
//
// Epsilon is the maximum allowed deviation in pixels; callers typically derive
// it from the perimeter (see Extract).
func Approximate(c Contour, epsilon float64) Contour {
	if len(c) < 3 || epsilon <= 0 {
		return append(Contour(nil), c...)
	}

	split := 1
	var maxDist float64
	for i, p := range c {
		if d := r2.Norm(r2.Sub(p, c[0])); d > maxDist {
			maxDist = d
			split = i
		}
	}

	first := rdp(c[:split+1], epsilon)
	second := rdp(append(append(Contour(nil), c[split:]...), c[0]), epsilon)

	// Endpoints of the two chains overlap; drop the duplicates when merging.
	out := append(Contour(nil), first...)
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return out
}

// rdp simplifies an open polyline, always keeping both endpoints.
func rdp(pts Contour, epsilon float64) Contour {
	if len(pts) < 3 {
		return append(Contour(nil), pts...)
	}

	var maxDist float64
	index := 0
	for i := 1; i < len(pts)-1; i++ {
		if d := pointSegmentDistance(pts[i], pts[0], pts[len(pts)-1]); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return Contour{pts[0], pts[len(pts)-1]}
	}

	left := rdp(pts[:index+1], epsilon)
	right := rdp(pts[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// pointSegmentDistance returns the distance from p to the segment ab.
func pointSegmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	length2 := r2.Norm2(ab)
	if length2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), ab) / length2
	t = math.Max(0, math.Min(1, t))
	proj := r2.Add(a, r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p, proj))
}
