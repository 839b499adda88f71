package geometry

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// ConvexHull returns the convex hull of the contour points in counterclockwise
// order using Andrew's monotone chain. Collinear points on the hull boundary
// are dropped. Inputs with fewer than three points are returned as-is.
func ConvexHull(c Contour) Contour {
	if len(c) < 3 {
		return append(Contour(nil), c...)
	}

	pts := append(Contour(nil), c...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make(Contour, 0, 2*len(pts))

	// lower chain
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// upper chain
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull[:len(hull)-1]
}

// cross returns the z component of (b-a) x (p-a). Positive means p is to the
// left of the directed edge a->b.
func cross(a, b, p r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
}
