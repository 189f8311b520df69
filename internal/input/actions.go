package input

import (
	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/geometry"
)

// Action is either an Immediate or a Draggable.
type Action interface {
	Name() string
	action()
}

// Immediate handles an event on the spot. It reports whether it did, which
// stops the rest of its action set.
type Immediate struct {
	name string
	run  func(c *canvas.Canvas, e Event) bool
}

func (a Immediate) Name() string { return a.name }
func (Immediate) action() {}

// Draggable claims a press when Test passes. Init runs on the first pointer
// move, never on a plain click; Drag runs on every move after that and End
// on release. Each returns the memo the next call receives.
type Draggable struct {
	name string
	test func(c *canvas.Canvas, e Event) bool
	init func(c *canvas.Canvas, down Event) any
	drag func(c *canvas.Canvas, memo any, e Event) any
	end  func(c *canvas.Canvas, memo any)
}

func (a Draggable) Name() string { return a.name }
func (Draggable) action() {}

// ActionSet is tried in order until one action handles the event.
type ActionSet []Action

// --- Immediate actions ---

// selectShapeDown selects the pressed shape, unless what was pressed is
// already selected: that might be the start of a drag of the whole selection.
var selectShapeDown = Immediate{"selectShapeDown", func(c *canvas.Canvas, e Event) bool {
	if c.Tool() == canvas.ToolPan || e.Modifiers.Shift {
		return false
	}
	sel := c.Selected()
	if e.Target.Point != nil && sel.HasPoint(e.Target.Point) {
		return false
	}
	shape := e.Target.Shape
	if shape == nil || sel.HasWhole(shape) {
		return false
	}
	c.SelectShape(shape)
	return true
}}

var deselectOnBackground = Immediate{"deselectOnBackground", func(c *canvas.Canvas, e Event) bool {
	if c.Tool() == canvas.ToolPan || e.Target.Kind != TargetBackground {
		return false
	}
	c.Deselect()
	return true
}}

var closeShape = Immediate{"closeShape", func(c *canvas.Canvas, e Event) bool {
	if e.Target.Kind != TargetCloser {
		return false
	}
	c.EndShape()
	return true
}}

var appendPoint = Immediate{"appendPoint", func(c *canvas.Canvas, e Event) bool {
	c.AppendDrawPoint(e.Canvas)
	return true
}}

// Release actions only run when the press did not turn into a drag.

var toggleShapeUp = Immediate{"toggleShapeUp", func(c *canvas.Canvas, e Event) bool {
	if !e.Modifiers.Shift || e.Target.Shape == nil {
		return false
	}
	c.ToggleShape(e.Target.Shape)
	return true
}}

var insertImplicitPoint = Immediate{"insertImplicitPoint", func(c *canvas.Canvas, e Event) bool {
	imp := e.Target.Implicit
	if e.Target.Kind != TargetImplicit || imp == nil || e.Target.Shape == nil {
		return false
	}
	return c.InsertPoint(e.Target.Shape, imp.After, imp.Coords) != nil
}}

var selectPoint = Immediate{"selectPoint", func(c *canvas.Canvas, e Event) bool {
	if e.Target.Point == nil {
		return false
	}
	c.SelectPoints([]*geometry.Point{e.Target.Point})
	return true
}}

var selectShapeUp = Immediate{"selectShapeUp", func(c *canvas.Canvas, e Event) bool {
	if e.Target.Shape == nil {
		return false
	}
	c.SelectShape(e.Target.Shape)
	return true
}}

// --- Drags ---

type panMemo struct {
	pan    geometry.Point
	screen geometry.Point
}

var pan = Draggable{
	name: "pan",
	test: func(c *canvas.Canvas, _ Event) bool { return c.Tool() == canvas.ToolPan },
	init: func(c *canvas.Canvas, down Event) any {
		return panMemo{pan: c.Pan(), screen: down.Screen}
	},
	drag: func(c *canvas.Canvas, memo any, e Event) any {
		m := memo.(panMemo)
		d := e.Screen.Sub(m.screen)
		c.SetPan(m.pan.Add(d.X, d.Y))
		return m
	},
	end: func(*canvas.Canvas, any) {},
}

// deltaMemo tracks the last canvas position so drags move by increments.
type deltaMemo struct {
	points []*geometry.Point
	last   geometry.Point
}

func dragBy(c *canvas.Canvas, memo any, e Event) any {
	m := memo.(deltaMemo)
	d := e.Canvas.Sub(m.last)
	c.MovePoints(m.points, d.X, d.Y)
	m.last = e.Canvas
	return m
}

// dragSelectedPoints moves the whole selection. With ctrl or alt held over a
// selection of whole shapes it drags a fresh copy instead.
var dragSelectedPoints = Draggable{
	name: "dragSelectedPoints",
	test: func(c *canvas.Canvas, e Event) bool {
		sel := c.Selected()
		if e.Target.Point != nil && sel.HasPoint(e.Target.Point) {
			return true
		}
		return e.Target.Shape != nil && sel.HasWhole(e.Target.Shape)
	},
	init: func(c *canvas.Canvas, down Event) any {
		sel := c.Selected()
		if (down.Modifiers.Ctrl || down.Modifiers.Alt) && len(sel.PartialShapes) == 0 && len(sel.WholeShapes) > 0 {
			c.DuplicateSelected(0)
		}
		return deltaMemo{points: c.Selected().Points, last: down.Canvas}
	},
	drag: dragBy,
	end:  func(*canvas.Canvas, any) {},
}

// dragSinglePoint moves one point of the single selected shape.
var dragSinglePoint = Draggable{
	name: "dragSinglePoint",
	test: func(c *canvas.Canvas, e Event) bool {
		shape := c.Selected().Shape
		return shape != nil && e.Target.Point != nil && e.Target.Shape == shape
	},
	init: func(_ *canvas.Canvas, down Event) any {
		return deltaMemo{points: []*geometry.Point{down.Target.Point}, last: down.Canvas}
	},
	drag: dragBy,
	end:  func(*canvas.Canvas, any) {},
}

// dragImplicitPoint inserts the suggested midpoint and drags the new point.
var dragImplicitPoint = Draggable{
	name: "dragImplicitPoint",
	test: func(c *canvas.Canvas, e Event) bool {
		return e.Target.Kind == TargetImplicit && e.Target.Implicit != nil &&
			e.Target.Shape != nil && c.Selected().Shape == e.Target.Shape
	},
	init: func(c *canvas.Canvas, down Event) any {
		imp := down.Target.Implicit
		p := c.InsertPoint(down.Target.Shape, imp.After, imp.Coords)
		if p == nil {
			return deltaMemo{last: down.Canvas}
		}
		return deltaMemo{points: []*geometry.Point{p}, last: down.Canvas}
	},
	drag: dragBy,
	end:  func(*canvas.Canvas, any) {},
}

var lasso = Draggable{
	name: "lasso",
	test: func(_ *canvas.Canvas, e Event) bool { return e.Target.Kind == TargetBackground },
	init: func(_ *canvas.Canvas, down Event) any { return down.Canvas },
	drag: func(c *canvas.Canvas, memo any, e Event) any {
		box := geometry.NormalizeBox(memo.(geometry.Point), e.Canvas)
		c.SetLasso(&box)
		return memo
	},
	end: func(c *canvas.Canvas, _ any) { c.SetLasso(nil) },
}

// --- Tables ---

// pressActions returns the action sets tried on pointer-down, in order.
// Every set runs; within a set the first action that handles the event wins.
func pressActions(s canvas.State) []ActionSet {
	switch s {
	case canvas.StateNormal:
		return []ActionSet{
			{selectShapeDown, deselectOnBackground},
			{pan, dragSelectedPoints, lasso},
		}
	case canvas.StateDrawing:
		return []ActionSet{
			{pan, closeShape, appendPoint},
		}
	case canvas.StateShapes:
		return []ActionSet{
			{selectShapeDown, deselectOnBackground},
			{pan, dragImplicitPoint, dragSinglePoint, dragSelectedPoints, lasso},
		}
	case canvas.StatePoints:
		return []ActionSet{
			{selectShapeDown, deselectOnBackground},
			{pan, dragSelectedPoints, lasso},
		}
	}
	panic("input: no press actions for " + s.String())
}

// releaseActions returns the action sets tried on pointer-up after a press
// that never dragged.
func releaseActions(s canvas.State) []ActionSet {
	switch s {
	case canvas.StateNormal:
		return []ActionSet{{toggleShapeUp}}
	case canvas.StateDrawing:
		return nil
	case canvas.StateShapes:
		return []ActionSet{{toggleShapeUp, insertImplicitPoint, selectPoint, selectShapeUp}}
	case canvas.StatePoints:
		return []ActionSet{{toggleShapeUp, selectPoint}}
	}
	panic("input: no release actions for " + s.String())
}
