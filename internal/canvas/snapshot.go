package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/projection"
)

// PointRef addresses a point by its shape and position, for the wire.
type PointRef struct {
	ShapeID int `json:"shapeId"`
	Index   int `json:"index"`
}

// SelectionView is the serializable form of a Selection.
type SelectionView struct {
	Points        []PointRef `json:"points"`
	WholeShapes   []int      `json:"wholeShapes"`
	PartialShapes []int      `json:"partialShapes"`
	Shape         *int       `json:"shape,omitempty"`
	Instances     []int      `json:"instances"`
	Instanceless  bool       `json:"instanceless"`
	Instance      *int       `json:"instance,omitempty"`
}

type ProjectionView struct {
	Factor  float64        `json:"factor"`
	Origin  geometry.Point `json:"origin"`
	Scale   float64        `json:"scale"`
	Pan     geometry.Point `json:"pan"`
	Padding float64        `json:"padding"`

	// Matrix is the canvas-to-screen transform [a, b, c, d, e, f].
	Matrix []float64 `json:"matrix"`
}

// Snapshot is everything a renderer needs to draw the canvas.
type Snapshot struct {
	Frame        int                      `json:"frame"`
	State        string                   `json:"state"`
	Tool         Tool                     `json:"tool"`
	InstanceMode document.InstanceMode    `json:"instanceMode"`
	Shapes       []*document.Shape        `json:"shapes"`
	Selected     SelectionView            `json:"selected"`
	Lasso        *geometry.Box            `json:"lasso,omitempty"`
	Mouse        geometry.Point           `json:"mouse"`
	Dragging     bool                     `json:"dragging"`
	WIPSegment   []geometry.Point         `json:"wipSegment,omitempty"`
	Implicit     *Implicit                `json:"implicit"`
	Projection   ProjectionView           `json:"projection"`
	Viewport     projection.Viewport      `json:"viewport"`
	Objects      []*document.Object       `json:"objects"`
	Instances    []*document.Instance     `json:"instances"`
	Classes      []document.InstanceClass `json:"instanceClasses"`
}

// Snapshot captures the current render state.
func (c *Canvas) Snapshot() Snapshot {
	proj := c.Projection()
	snap := Snapshot{
		Frame:        c.active.Frame,
		State:        c.State().String(),
		Tool:         c.Tool(),
		InstanceMode: c.InstanceMode(),
		Shapes:       c.active.Shapes,
		Selected:     c.selectionView(),
		Lasso:        c.lasso,
		Mouse:        c.mouse,
		Dragging:     c.dragging,
		Implicit:     c.ImplicitPoints(),
		Projection: ProjectionView{
			Factor:  proj.Factor,
			Origin:  proj.Origin,
			Scale:   c.Scale(),
			Pan:     c.Pan(),
			Padding: proj.Padding,
			Matrix:  proj.Matrix().ToSlice(),
		},
		Viewport:  c.Viewport(),
		Objects:   c.doc.Objects,
		Instances: c.doc.Instances,
		Classes:   c.doc.InstanceClasses,
	}
	if from, to, ok := c.WIPSegment(); ok {
		snap.WIPSegment = []geometry.Point{from, to}
	}
	return snap
}

// SnapshotJSON returns the render state as JSON.
func (c *Canvas) SnapshotJSON() (string, error) {
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// Ref locates p on the active frame.
func (c *Canvas) Ref(p *geometry.Point) (PointRef, bool) {
	for _, s := range c.active.Shapes {
		for i, q := range s.Points {
			if q == p {
				return PointRef{ShapeID: s.ID, Index: i}, true
			}
		}
	}
	return PointRef{}, false
}

// Resolve returns the point a PointRef addresses on the active frame.
func (c *Canvas) Resolve(ref PointRef) *geometry.Point {
	s := c.ShapeByID(ref.ShapeID)
	if s == nil || ref.Index < 0 || ref.Index >= len(s.Points) {
		return nil
	}
	return s.Points[ref.Index]
}

func (c *Canvas) selectionView() SelectionView {
	sel := c.Selected()
	v := SelectionView{
		Points:        make([]PointRef, 0, len(sel.Points)),
		WholeShapes:   shapeIDs(sel.WholeShapes),
		PartialShapes: shapeIDs(sel.PartialShapes),
		Instances:     make([]int, 0, len(sel.Instances)),
		Instanceless:  sel.Instanceless,
	}
	for _, p := range sel.Points {
		if ref, ok := c.Ref(p); ok {
			v.Points = append(v.Points, ref)
		}
	}
	if sel.Shape != nil {
		id := sel.Shape.ID
		v.Shape = &id
	}
	for _, in := range sel.Instances {
		v.Instances = append(v.Instances, in.ID)
	}
	if sel.Instance != nil {
		id := sel.Instance.ID
		v.Instance = &id
	}
	return v
}

func shapeIDs(shapes []*document.Shape) []int {
	out := make([]int, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, s.ID)
	}
	return out
}
