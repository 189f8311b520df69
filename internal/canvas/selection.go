package canvas

import (
	"slices"

	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
)

// Selection is derived from the flat list of selected points against the
// shapes of the active frame.
type Selection struct {
	Points        []*geometry.Point
	WholeShapes   []*document.Shape
	PartialShapes []*document.Shape

	// Shape is set iff exactly one shape is wholly selected and none partially.
	Shape *document.Shape

	// Instances lists the distinct instances of the wholly selected shapes.
	// Instanceless is set when any of those shapes has no instance.
	Instances    []*document.Instance
	Instanceless bool
	// Instance is set when the selection is exactly every shape of one
	// instance on this frame.
	Instance *document.Instance

	set map[*geometry.Point]struct{}
}

// HasPoint reports whether p is selected, by identity.
func (s *Selection) HasPoint(p *geometry.Point) bool {
	_, ok := s.set[p]
	return ok
}

// HasWhole reports whether every point of shape is selected.
func (s *Selection) HasWhole(shape *document.Shape) bool {
	return slices.Contains(s.WholeShapes, shape)
}

// Selected returns the memoized selection.
func (c *Canvas) Selected() *Selection {
	if c.selected != nil {
		return c.selected
	}

	sel := &Selection{
		Points: c.selectedPoints,
		set:    make(map[*geometry.Point]struct{}, len(c.selectedPoints)),
	}
	for _, p := range c.selectedPoints {
		sel.set[p] = struct{}{}
	}

	if len(sel.Points) > 0 {
		for _, shape := range c.active.Shapes {
			count := 0
			for _, p := range shape.Points {
				if sel.HasPoint(p) {
					count++
				}
			}
			if count == len(shape.Points) && count > 0 {
				sel.WholeShapes = append(sel.WholeShapes, shape)
			} else if count > 0 {
				sel.PartialShapes = append(sel.PartialShapes, shape)
			}
		}
	}

	if len(sel.WholeShapes) == 1 && len(sel.PartialShapes) == 0 {
		sel.Shape = sel.WholeShapes[0]
	}

	var ids []int
	for _, shape := range sel.WholeShapes {
		if shape.InstanceID == nil {
			sel.Instanceless = true
			continue
		}
		if !slices.Contains(ids, *shape.InstanceID) {
			ids = append(ids, *shape.InstanceID)
		}
	}
	for _, id := range ids {
		if in := c.doc.Instance(id); in != nil {
			sel.Instances = append(sel.Instances, in)
		}
	}
	if len(sel.Instances) == 1 {
		in := sel.Instances[0]
		if len(c.ShapesInInstance(in.ID)) == len(sel.WholeShapes) {
			sel.Instance = in
		}
	}

	c.selected = sel
	return sel
}

// setSelectedPoints replaces the selection. points must all belong to
// shapes on the active frame and must not repeat.
func (c *Canvas) setSelectedPoints(points []*geometry.Point) {
	c.selectedPoints = points
	c.selected = nil
	c.notify(event.Selected)
}

// SelectPoints replaces the selection with points. Points not on the active
// frame are ignored.
func (c *Canvas) SelectPoints(points []*geometry.Point) {
	onFrame := make(map[*geometry.Point]bool)
	for _, shape := range c.active.Shapes {
		for _, p := range shape.Points {
			onFrame[p] = true
		}
	}
	out := make([]*geometry.Point, 0, len(points))
	for _, p := range points {
		if onFrame[p] {
			out = append(out, p)
			onFrame[p] = false
		}
	}
	c.setSelectedPoints(out)
}

// SelectShape replaces the selection with all points of shape.
func (c *Canvas) SelectShape(shape *document.Shape) {
	c.setSelectedPoints(slices.Clone(shape.Points))
}

// SelectShapes replaces the selection with the points of every given shape.
func (c *Canvas) SelectShapes(shapes []*document.Shape) {
	var points []*geometry.Point
	for _, s := range shapes {
		points = append(points, s.Points...)
	}
	c.setSelectedPoints(points)
}

// ToggleShape adds shape to the selection, or removes it when it is already
// wholly selected.
func (c *Canvas) ToggleShape(shape *document.Shape) {
	sel := c.Selected()
	if sel.HasWhole(shape) {
		c.setSelectedPoints(without(sel.Points, shape.Points))
		return
	}
	points := slices.Clone(sel.Points)
	for _, p := range shape.Points {
		if !sel.HasPoint(p) {
			points = append(points, p)
		}
	}
	c.setSelectedPoints(points)
}

// ExpandSelection grows a partial selection to whole shapes.
func (c *Canvas) ExpandSelection() {
	sel := c.Selected()
	var points []*geometry.Point
	for _, s := range sel.PartialShapes {
		points = append(points, s.Points...)
	}
	for _, s := range sel.WholeShapes {
		points = append(points, s.Points...)
	}
	c.setSelectedPoints(points)
}

// SelectInstance selects every shape of instance id on the active frame.
func (c *Canvas) SelectInstance(id int) {
	c.SelectShapes(c.ShapesInInstance(id))
}

// SetLasso sets the lasso box and selects the points inside it. A nil box
// hides the lasso and leaves the selection alone; a box with no area clears
// the selection.
func (c *Canvas) SetLasso(box *geometry.Box) {
	if box == nil {
		c.lasso = nil
		c.notify(event.Lasso)
		return
	}

	n := box.Normalize()
	c.lasso = &n
	c.notify(event.Lasso)
	if n.IsEmpty() {
		c.setSelectedPoints(nil)
		return
	}

	var points []*geometry.Point
	for _, shape := range c.active.Shapes {
		for _, p := range shape.Points {
			if n.Contains(*p) {
				points = append(points, p)
			}
		}
	}
	c.setSelectedPoints(points)
}

// Deselect clears the selection.
func (c *Canvas) Deselect() {
	c.setSelectedPoints(nil)
}

// ShapesInInstance returns the shapes of instance id on the active frame.
func (c *Canvas) ShapesInInstance(id int) []*document.Shape {
	var out []*document.Shape
	for _, s := range c.active.Shapes {
		if s.InstanceID != nil && *s.InstanceID == id {
			out = append(out, s)
		}
	}
	return out
}

// without returns the points of from that are not in drop.
func without(from, drop []*geometry.Point) []*geometry.Point {
	skip := make(map[*geometry.Point]struct{}, len(drop))
	for _, p := range drop {
		skip[p] = struct{}{}
	}
	out := make([]*geometry.Point, 0, len(from))
	for _, p := range from {
		if _, ok := skip[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
