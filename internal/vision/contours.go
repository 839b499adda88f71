package vision

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/sortcell/sortcell/internal/geometry"
)

// minComponentPixels drops speckle components before boundary tracing. The
// area filter downstream is far stricter; this just keeps the tracer off
// single-pixel noise.
const minComponentPixels = 64

type pixel struct {
	x, y int
}

// ExtractContours finds the outer boundary of every foreground component in a
// binarised frame. Boundary points are ordered by angle about the component
// centroid, which is exact for the convex shapes the cell sorts.
func ExtractContours(bin *image.Gray) []geometry.Contour {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	fg := func(x, y int) bool {
		if x < 0 || x >= w || y < 0 || y >= h {
			return false
		}
		return bin.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0
	}

	visited := make([]bool, w*h)
	var contours []geometry.Contour

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !fg(x, y) {
				continue
			}
			component := floodFill(pixel{x, y}, w, fg, visited)
			if len(component) < minComponentPixels {
				continue
			}
			boundary := boundaryPixels(component, fg)
			if len(boundary) < 3 {
				continue
			}
			contours = append(contours, orderByAngle(boundary))
		}
	}
	return contours
}

// floodFill collects one 8-connected component, marking it visited.
func floodFill(start pixel, w int, fg func(x, y int) bool, visited []bool) []pixel {
	stack := []pixel{start}
	visited[start.y*w+start.x] = true

	var component []pixel
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.x+dx, p.y+dy
				if !fg(nx, ny) || visited[ny*w+nx] {
					continue
				}
				visited[ny*w+nx] = true
				stack = append(stack, pixel{nx, ny})
			}
		}
	}
	return component
}

// boundaryPixels keeps the component pixels with at least one 4-neighbor
// outside the foreground. Frame edges count as background.
func boundaryPixels(component []pixel, fg func(x, y int) bool) []pixel {
	var boundary []pixel
	for _, p := range component {
		if !fg(p.x-1, p.y) || !fg(p.x+1, p.y) || !fg(p.x, p.y-1) || !fg(p.x, p.y+1) {
			boundary = append(boundary, p)
		}
	}
	return boundary
}

// orderByAngle sorts boundary pixels counterclockwise about their centroid
// and converts them to a contour. Adjacent boundary pixels of a convex
// component end up adjacent in the ring, so edge lengths stay 1 or sqrt(2)
// and the perimeter tracks the true outline.
func orderByAngle(boundary []pixel) geometry.Contour {
	var cx, cy float64
	for _, p := range boundary {
		cx += float64(p.x)
		cy += float64(p.y)
	}
	cx /= float64(len(boundary))
	cy /= float64(len(boundary))

	sort.Slice(boundary, func(i, j int) bool {
		ai := math.Atan2(float64(boundary[i].y)-cy, float64(boundary[i].x)-cx)
		aj := math.Atan2(float64(boundary[j].y)-cy, float64(boundary[j].x)-cx)
		if ai != aj {
			return ai < aj
		}
		// collinear with the centroid: nearer pixel first for a stable ring
		di := math.Hypot(float64(boundary[i].x)-cx, float64(boundary[i].y)-cy)
		dj := math.Hypot(float64(boundary[j].x)-cx, float64(boundary[j].y)-cy)
		return di < dj
	})

	contour := make(geometry.Contour, len(boundary))
	for i, p := range boundary {
		contour[i] = r2.Vec{X: float64(p.x), Y: float64(p.y)}
	}
	return contour
}
