package classify

import (
	"testing"

	"github.com/sortcell/sortcell/internal/geometry"
)

// desc builds descriptors with a valid perimeter so tests read compactly.
func desc(vertices int, aspect, circularity, extent, solidity float64) geometry.Descriptors {
	return geometry.Descriptors{
		Area:        10000,
		Perimeter:   400,
		AspectRatio: aspect,
		Circularity: circularity,
		Extent:      extent,
		Solidity:    solidity,
		VertexCount: vertices,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		d    geometry.Descriptors
		want Label
	}{
		{"zero perimeter", geometry.Descriptors{}, Unknown},
		{"low extent rejected", desc(4, 1.0, 0.5, 0.2, 0.9), Unknown},
		{"low solidity rejected", desc(4, 1.0, 0.5, 0.8, 0.5), Unknown},

		// strict triangle (end-to-end scenario A)
		{"triangle strict", desc(3, 1.0, 0.5, 0.5, 0.85), Triangle},
		{"triangle strict extent bounds", desc(3, 1.0, 0.5, 0.30, 0.85), Triangle},
		{"triangle strict wide aspect rejected", desc(3, 2.5, 0.55, 0.75, 0.75), Unknown},

		// relaxed triangle: four vertices but low circularity and partial extent
		{"triangle relaxed four vertices", desc(4, 1.0, 0.45, 0.55, 0.85), Triangle},
		{"triangle relaxed blocked by circularity", desc(4, 1.8, 0.65, 0.5, 0.85), Unknown},

		// square vs rectangle (end-to-end scenario B)
		{"square", desc(4, 1.0, 0.75, 0.8, 0.9), Square},
		{"square aspect edge", desc(4, 1.35, 0.75, 0.8, 0.9), Square},
		{"rectangle", desc(4, 2.0, 0.65, 0.8, 0.9), Rectangle},
		{"rectangle tall", desc(4, 0.5, 0.65, 0.8, 0.9), Rectangle},

		// relaxed square: vertex count wandered off 4
		{"square relaxed five vertices", desc(5, 1.0, 0.75, 0.85, 0.9), Square},
		{"square relaxed high extent", desc(4, 1.0, 0.55, 0.97, 0.75), Square},

		// circle
		{"circle many vertices", desc(8, 1.0, 0.95, 0.78, 0.98), Circle},
		{"circle few vertices high circularity", desc(5, 1.4, 0.82, 0.65, 0.9), Circle},
		{"circle fallback pure circularity", desc(5, 1.5, 0.78, 0.6, 0.75), Circle},

		// final fallback for low-vertex leftovers
		{"fallback triangle", desc(4, 0.3, 0.4, 0.55, 0.75), Triangle},
		{"fallback square", desc(3, 0.75, 0.55, 0.9, 0.75), Square},
		{"nothing matches", desc(5, 3.0, 0.55, 0.5, 0.75), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.d); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Classify is a pure function: repeated calls on the same descriptors must
// agree.
func TestClassifyIdempotent(t *testing.T) {
	d := desc(4, 1.0, 0.75, 0.8, 0.9)
	first := Classify(d)
	for i := 0; i < 10; i++ {
		if got := Classify(d); got != first {
			t.Fatalf("call %d returned %v, first call returned %v", i, got, first)
		}
	}
}

func TestLabelString(t *testing.T) {
	tests := []struct {
		l    Label
		want string
	}{
		{Circle, "circle"},
		{Square, "square"},
		{Rectangle, "rectangle"},
		{Triangle, "triangle"},
		{Unknown, "unknown"},
		{Label(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("Label(%d).String() = %q, want %q", tt.l, got, tt.want)
		}
	}
}

func TestParseLabelRoundTrip(t *testing.T) {
	for _, l := range []Label{Circle, Square, Rectangle, Triangle, Unknown} {
		if got := ParseLabel(l.String()); got != l {
			t.Errorf("ParseLabel(%q) = %v, want %v", l.String(), got, l)
		}
	}
	if got := ParseLabel("hexagon"); got != Unknown {
		t.Errorf("ParseLabel(hexagon) = %v, want Unknown", got)
	}
}

func TestConfirmable(t *testing.T) {
	if !Circle.Confirmable() || !Square.Confirmable() || !Triangle.Confirmable() {
		t.Error("circle, square, and triangle must be confirmable")
	}
	if Rectangle.Confirmable() || Unknown.Confirmable() {
		t.Error("rectangle and unknown must not be confirmable")
	}
}
