package canvas

import (
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/geometry"
)

// Video-pixel distances for implicit midpoint suggestions, multiplied by the
// zoom scale before comparing.
const (
	ImplicitNearDistance = 10
	ImplicitFarDistance  = 40
)

// ImplicitPoint is a suggested insertion point at the midpoint of the edge
// that starts at After.
type ImplicitPoint struct {
	Coords     geometry.Point  `json:"coords"`
	After      *geometry.Point `json:"-"`
	AfterIndex int             `json:"afterIndex"`
}

// Implicit is the set of suggestions for the single selected shape.
type Implicit struct {
	Shape  *document.Shape  `json:"-"`
	Object *document.Object `json:"object,omitempty"`
	Points []ImplicitPoint  `json:"points"`
}

// ImplicitPoints returns the edge midpoints of the single wholly selected
// shape that are close to the pointer. Every midpoint within the near
// distance is offered; failing that, the closest one within the far distance.
// Edges shorter than the far distance offer nothing.
func (c *Canvas) ImplicitPoints() *Implicit {
	if c.implicit != nil {
		return c.implicit
	}

	out := &Implicit{Points: []ImplicitPoint{}}
	c.implicit = out

	shape := c.Selected().Shape
	if shape == nil {
		return out
	}
	out.Shape = shape
	out.Object = c.doc.Object(shape.ObjectID)

	scale := c.Scale()
	zoomed := func(d float64) float64 { return d * scale }

	var far *ImplicitPoint
	nearest := -1.0
	geometry.Edges(shape.Points, func(i int, a, b *geometry.Point) {
		if zoomed(geometry.Distance(*a, *b)) < ImplicitFarDistance {
			return
		}
		mid := geometry.Midpoint(*a, *b)
		d := zoomed(geometry.Distance(mid, c.mouse))
		candidate := ImplicitPoint{Coords: mid, After: a, AfterIndex: i}
		switch {
		case d < ImplicitNearDistance:
			out.Points = append(out.Points, candidate)
			if nearest < 0 || d <= nearest {
				nearest = d
				far = nil
			}
		case d < ImplicitFarDistance && (nearest < 0 || d < nearest):
			nearest = d
			far = &candidate
		}
	})
	if far != nil {
		out.Points = append(out.Points, *far)
	}
	return out
}
