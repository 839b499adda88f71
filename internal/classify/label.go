// Package classify maps geometric shape descriptors to a closed set of shape
// labels using ordered rule evaluation tuned for noisy camera contours.
package classify

// Label identifies the shape class assigned to a contour. The zero value is
// Unknown so uninitialised labels never look like real detections.
type Label int

const (
	Unknown Label = iota
	Circle
	Square
	Rectangle
	Triangle
)

func (l Label) String() string {
	switch l {
	case Circle:
		return "circle"
	case Square:
		return "square"
	case Rectangle:
		return "rectangle"
	case Triangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Confirmable reports whether the label is one of the three shapes the
// sorting actuator can act on. Rectangle is recognised for diagnostics but
// has no bin on the machine.
func (l Label) Confirmable() bool {
	switch l {
	case Circle, Square, Triangle:
		return true
	default:
		return false
	}
}

// ParseLabel converts a wire/string form back to a Label. Unrecognised input
// maps to Unknown.
func ParseLabel(s string) Label {
	switch s {
	case "circle":
		return Circle
	case "square":
		return Square
	case "rectangle":
		return Rectangle
	case "triangle":
		return Triangle
	default:
		return Unknown
	}
}
