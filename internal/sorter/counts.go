package sorter

import "github.com/sortcell/sortcell/internal/classify"

// Counts tallies confirmed-and-sent detections per sortable shape. Counts are
// process-lifetime only; nothing is persisted across restarts.
type Counts struct {
	Circle   int `json:"circle"`
	Square   int `json:"square"`
	Triangle int `json:"triangle"`
}

// increment bumps the tally for a sortable label. Non-sortable labels are a
// no-op; callers gate on Confirmable before getting here.
func (c *Counts) increment(label classify.Label) {
	switch label {
	case classify.Circle:
		c.Circle++
	case classify.Square:
		c.Square++
	case classify.Triangle:
		c.Triangle++
	}
}

// Map returns the counts keyed by wire shape name, matching the count_update
// event payload.
func (c Counts) Map() map[string]int {
	return map[string]int{
		classify.Circle.String():   c.Circle,
		classify.Square.String():   c.Square,
		classify.Triangle.String(): c.Triangle,
	}
}
