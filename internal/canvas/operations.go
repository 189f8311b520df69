package canvas

import (
	"slices"

	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
)

// --- Shape lifecycle ---

// StartShape begins drawing a new shape on the active frame. No-op while
// another shape is being drawn.
func (c *Canvas) StartShape() *document.Shape {
	if wip := c.WIP(); wip != nil {
		return wip
	}
	shape := &document.Shape{
		ID:       c.doc.AllocateID(),
		ObjectID: document.UnassignedObjectID,
		Points:   []*geometry.Point{},
		WIP:      true,
	}
	c.active.Shapes = append(c.active.Shapes, shape)
	c.reconcile()
	c.notify(event.Shapes)
	c.Deselect()
	return shape
}

// AppendDrawPoint adds a copy of p to the shape being drawn.
func (c *Canvas) AppendDrawPoint(p geometry.Point) {
	wip := c.WIP()
	if wip == nil {
		return
	}
	wip.Points = append(wip.Points, &p)
	c.notify(event.Points)
}

// UndoDrawPoint drops the last drawn point.
func (c *Canvas) UndoDrawPoint() {
	wip := c.WIP()
	if wip == nil || len(wip.Points) == 0 {
		return
	}
	wip.Points[len(wip.Points)-1] = nil
	wip.Points = wip.Points[:len(wip.Points)-1]
	c.notify(event.Points)
}

// EndShape closes the shape being drawn and selects it. A shape with fewer
// than three points is discarded instead.
func (c *Canvas) EndShape() {
	wip := c.WIP()
	if wip == nil {
		return
	}
	if len(wip.Points) < 3 {
		c.RemoveShape(wip)
		return
	}
	wip.WIP = false
	c.SelectShape(wip)
	c.notify(event.Shapes)
}

// CopyLast copies every finished shape from the closest earlier frame with
// data onto the active frame and selects the copies. Each source instance
// maps to one new instance shared by its copies.
func (c *Canvas) CopyLast() {
	prev := c.doc.PrevFrame(c.active.Frame)
	if prev == nil {
		return
	}

	remap := make(map[int]int)
	var points []*geometry.Point
	instancesChanged := false
	for _, src := range prev.Shapes {
		if src.WIP {
			continue
		}
		clone := &document.Shape{
			ID:       c.doc.AllocateID(),
			ObjectID: src.ObjectID,
			Points:   geometry.Offset(src.Points, 0, 0),
		}
		if src.InstanceID != nil {
			id, ok := remap[*src.InstanceID]
			if !ok {
				id = c.doc.AllocateID()
				remap[*src.InstanceID] = id
				in := &document.Instance{ID: id}
				if orig := c.doc.Instance(*src.InstanceID); orig != nil && orig.Class != nil {
					class := *orig.Class
					in.Class = &class
				}
				c.doc.Instances = append(c.doc.Instances, in)
				instancesChanged = true
			}
			clone.InstanceID = &id
		}
		points = append(points, clone.Points...)
		c.active.Shapes = append(c.active.Shapes, clone)
	}
	if len(points) == 0 {
		return
	}

	c.reconcile()
	if instancesChanged {
		c.notify(event.Instances)
	}
	c.notify(event.Shapes)
	c.setSelectedPoints(points)
}

// DuplicateSelected clones every wholly selected shape offset by
// (delta, delta), without instance, and selects the clones.
func (c *Canvas) DuplicateSelected(delta float64) []*document.Shape {
	sel := c.Selected()
	if len(sel.WholeShapes) == 0 {
		return nil
	}
	dups := make([]*document.Shape, 0, len(sel.WholeShapes))
	for _, s := range sel.WholeShapes {
		dup := &document.Shape{
			ID:       c.doc.AllocateID(),
			ObjectID: s.ObjectID,
			Points:   geometry.Offset(s.Points, delta, delta),
		}
		c.active.Shapes = append(c.active.Shapes, dup)
		dups = append(dups, dup)
	}
	c.reconcile()
	c.notify(event.Shapes)
	c.SelectShapes(dups)
	return dups
}

// AssignObject moves every wholly selected shape to object id.
func (c *Canvas) AssignObject(id int) bool {
	if c.doc.Object(id) == nil {
		return false
	}
	sel := c.Selected()
	for _, s := range sel.WholeShapes {
		s.ObjectID = id
	}
	c.notify(event.Shapes)
	return true
}

// --- Point edits ---

// MovePoints translates points in place.
func (c *Canvas) MovePoints(points []*geometry.Point, dx, dy float64) {
	if len(points) == 0 {
		return
	}
	geometry.Translate(points, dx, dy)
	c.notify(event.Points)
}

// InsertPoint adds a point at p right after anchor in shape. When the shape
// was wholly selected the new point joins the selection.
func (c *Canvas) InsertPoint(shape *document.Shape, anchor *geometry.Point, p geometry.Point) *geometry.Point {
	i := slices.Index(shape.Points, anchor)
	if i < 0 {
		return nil
	}
	wasWhole := c.Selected().HasWhole(shape)

	pt := &p
	shape.Points = slices.Insert(shape.Points, i+1, pt)
	c.notify(event.Points | event.Shapes)
	if wasWhole {
		c.setSelectedPoints(append(slices.Clone(c.selectedPoints), pt))
	}
	return pt
}

// --- Removal ---

// RemoveShape deletes shape from the active frame. Its points leave the
// selection; the rest of the selection stays.
func (c *Canvas) RemoveShape(shape *document.Shape) {
	i := slices.Index(c.active.Shapes, shape)
	if i < 0 {
		return
	}
	c.active.Shapes = slices.Delete(c.active.Shapes, i, i+1)
	c.reconcile()
	c.pruneInstances()
	c.notify(event.Shapes)
	if len(c.selectedPoints) > 0 {
		c.setSelectedPoints(without(c.selectedPoints, shape.Points))
	}
}

// RemoveSelectedShapes deletes every wholly selected shape.
func (c *Canvas) RemoveSelectedShapes() {
	for _, s := range slices.Clone(c.Selected().WholeShapes) {
		c.RemoveShape(s)
	}
}

// RemovePoints deletes wholly selected shapes outright and the given points
// from partially selected ones. Shapes left with fewer than three points are
// deleted. A single partially selected shape that survives is reselected.
func (c *Canvas) RemovePoints(points []*geometry.Point) {
	sel := c.Selected()
	var reselect *document.Shape
	if len(sel.WholeShapes) == 0 && len(sel.PartialShapes) == 1 {
		reselect = sel.PartialShapes[0]
	}

	drop := make(map[*document.Shape]bool)
	for _, s := range sel.WholeShapes {
		drop[s] = true
	}
	for _, s := range sel.PartialShapes {
		s.Points = without(s.Points, points)
		if len(s.Points) < 3 {
			drop[s] = true
		}
	}
	c.active.Shapes = slices.DeleteFunc(c.active.Shapes, func(s *document.Shape) bool { return drop[s] })
	if reselect != nil && drop[reselect] {
		reselect = nil
	}

	c.reconcile()
	c.pruneInstances()
	c.notify(event.Points | event.Shapes)
	if reselect != nil {
		c.SelectShape(reselect)
	} else {
		c.Deselect()
	}
}

// pruneInstances removes instances that lost their last shape.
func (c *Canvas) pruneInstances() {
	if c.doc.PruneInstances() {
		c.notify(event.Instances)
	}
}

// --- Instances ---

// FormInstance groups shapes into a new instance. Instances left without
// shapes are removed.
func (c *Canvas) FormInstance(shapes []*document.Shape) *document.Instance {
	if len(shapes) == 0 {
		return nil
	}
	in := &document.Instance{ID: c.doc.AllocateID()}
	for _, s := range shapes {
		id := in.ID
		s.InstanceID = &id
	}
	c.doc.Instances = append(c.doc.Instances, in)
	c.doc.PruneInstances()
	c.notify(event.Instances)
	return in
}

// BreakInstance dissolves every instance the given shapes belong to. The
// active frame's members lose their instance and become the selection; the
// instance records are removed from the document.
func (c *Canvas) BreakInstance(shapes []*document.Shape) {
	var ids []int
	for _, s := range shapes {
		if s.InstanceID != nil && !slices.Contains(ids, *s.InstanceID) {
			ids = append(ids, *s.InstanceID)
		}
	}

	var freed []*geometry.Point
	for _, id := range ids {
		for _, s := range c.ShapesInInstance(id) {
			s.InstanceID = nil
			freed = append(freed, s.Points...)
		}
		c.doc.RemoveInstance(id)
	}
	c.notify(event.Instances)
	c.setSelectedPoints(freed)
}

// SetInstanceClass sets the preset class of in. An empty class clears it.
func (c *Canvas) SetInstanceClass(in *document.Instance, class string) {
	if in == nil {
		return
	}
	if class == "" {
		in.Class = nil
	} else {
		in.Class = &class
	}
	c.notify(event.Instances)
}

// InstanceOutline returns the union of the instance's shapes on the active
// frame as WKT.
func (c *Canvas) InstanceOutline(id int) (string, error) {
	shapes := c.ShapesInInstance(id)
	polys := make([][]*geometry.Point, 0, len(shapes))
	for _, s := range shapes {
		polys = append(polys, s.Points)
	}
	return geometry.Union(polys...)
}

// ShapeByID finds a shape on the active frame.
func (c *Canvas) ShapeByID(id int) *document.Shape {
	for _, s := range c.active.Shapes {
		if s.ID == id {
			return s
		}
	}
	return nil
}
