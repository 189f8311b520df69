// Package canvas is the annotation view-model: the active frame, point
// selection, tool mode and projection, plus every shape and instance edit.
// A Canvas is not safe for concurrent use; one goroutine drives it.
package canvas

import (
	"fmt"

	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/projection"
)

type Tool string

const (
	ToolSelect Tool = "select"
	ToolPan    Tool = "pan"
)

// State decides which gestures the canvas accepts.
type State int

const (
	StateNormal State = iota
	StateDrawing
	StateShapes
	StatePoints
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDrawing:
		return "drawing"
	case StateShapes:
		return "shapes"
	case StatePoints:
		return "points"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Canvas owns the document while it is being edited. Callers read through
// accessors and change things only through Canvas methods.
type Canvas struct {
	doc  *document.Document
	emit event.Emitter

	// active frame; persisted reports whether it is stored in doc.Frames
	active    *document.Frame
	persisted bool

	selectedPoints []*geometry.Point
	selected       *Selection

	lasso    *geometry.Box
	mouse    geometry.Point
	dragging bool

	tool         Tool
	toolOverride Tool

	view     *projection.View
	implicit *Implicit
}

// New creates a canvas over doc showing frame. doc is normalized first.
// emit may be nil.
func New(doc *document.Document, emit event.Emitter, frame int) *Canvas {
	if emit == nil {
		emit = event.Multi(nil)
	}
	doc.Normalize()
	c := &Canvas{
		doc:  doc,
		emit: emit,
		tool: ToolSelect,
		view: projection.NewView(projection.Size{Width: doc.Video.Width, Height: doc.Video.Height}),
	}
	c.SetFrame(frame)
	return c
}

// notify drops memos that depend on t, then forwards it.
func (c *Canvas) notify(t event.Topic) {
	if t&(event.Frame|event.Shapes|event.Instances) != 0 {
		c.selected = nil
	}
	if t&(event.Frame|event.Selected|event.Mouse|event.Points|event.Shapes|event.Projection) != 0 {
		c.implicit = nil
	}
	c.emit.Emit(t)
}

// Document returns the document being edited.
func (c *Canvas) Document() *document.Document {
	return c.doc
}

// --- Frame store ---

// Frame returns the active frame. Its shape list may be empty.
func (c *Canvas) Frame() *document.Frame {
	return c.active
}

// FrameNumber returns the active frame number.
func (c *Canvas) FrameNumber() int {
	return c.active.Frame
}

// SetFrame makes frame the active one and clears the selection. Moving from
// an empty frame to another frame with no data relabels the empty frame in
// place without any notification.
func (c *Canvas) SetFrame(frame int) {
	if c.active != nil && c.active.Frame == frame {
		return
	}
	next := c.doc.FrameAt(frame)

	if c.active != nil && len(c.active.Shapes) == 0 {
		if next == nil && !c.persisted {
			c.active.Frame = frame
			return
		}
		if c.persisted {
			c.doc.RemoveFrame(c.active)
		}
	}

	if next == nil {
		c.active = &document.Frame{Frame: frame, Shapes: []*document.Shape{}}
		c.persisted = false
	} else {
		c.active = next
		c.persisted = true
	}
	c.notify(event.Frame)
	c.setSelectedPoints(nil)
}

// reconcile stores the active frame once it holds a shape and drops it once
// it holds none.
func (c *Canvas) reconcile() {
	switch {
	case !c.persisted && len(c.active.Shapes) > 0:
		c.doc.AddFrame(c.active)
		c.persisted = true
	case c.persisted && len(c.active.Shapes) == 0:
		c.doc.RemoveFrame(c.active)
		c.persisted = false
	}
}

// WIP returns the shape being drawn on the active frame, or nil.
func (c *Canvas) WIP() *document.Shape {
	for _, s := range c.active.Shapes {
		if s.WIP {
			return s
		}
	}
	return nil
}

// WIPSegment returns the rubber-band segment from the last drawn point to the
// pointer. ok is false when nothing has been drawn yet.
func (c *Canvas) WIPSegment() (from, to geometry.Point, ok bool) {
	wip := c.WIP()
	if wip == nil || len(wip.Points) == 0 {
		return geometry.Point{}, geometry.Point{}, false
	}
	return *wip.Points[len(wip.Points)-1], c.mouse, true
}

// State derives the interaction state from the wip shape and the selection.
// It panics if the selection is inconsistent with the active frame.
func (c *Canvas) State() State {
	if c.WIP() != nil {
		return StateDrawing
	}
	sel := c.Selected()
	switch {
	case len(sel.Points) == 0:
		return StateNormal
	case len(sel.WholeShapes) > 0 && len(sel.PartialShapes) == 0:
		return StateShapes
	case len(sel.PartialShapes) > 0:
		return StatePoints
	}
	panic(fmt.Sprintf("canvas: %d selected points match no shape on frame %d", len(sel.Points), c.active.Frame))
}

// InstanceMode reports how instances are formed in this document.
func (c *Canvas) InstanceMode() document.InstanceMode {
	return c.doc.Mode()
}

// --- Pointer, lasso, tool ---

func (c *Canvas) Mouse() geometry.Point {
	return c.mouse
}

// SetMouse records the pointer position in canvas space.
func (c *Canvas) SetMouse(p geometry.Point) {
	c.mouse = p
	c.notify(event.Mouse)
}

func (c *Canvas) Dragging() bool {
	return c.dragging
}

// SetDragging flags an active drag so the renderer can change the cursor.
func (c *Canvas) SetDragging(v bool) {
	if c.dragging == v {
		return
	}
	c.dragging = v
	c.notify(event.Mouse)
}

// Lasso returns the current lasso box, or nil.
func (c *Canvas) Lasso() *geometry.Box {
	return c.lasso
}

// Tool returns the effective tool: a temporary override wins over the
// chosen one.
func (c *Canvas) Tool() Tool {
	if c.toolOverride != "" {
		return c.toolOverride
	}
	return c.tool
}

func (c *Canvas) SetTool(t Tool) {
	c.tool = t
	c.notify(event.Tool)
}

// SetToolOverride temporarily replaces the tool, e.g. while space is held.
// An empty tool clears the override.
func (c *Canvas) SetToolOverride(t Tool) {
	if c.toolOverride == t {
		return
	}
	c.toolOverride = t
	c.notify(event.Tool)
}

// --- Projection ---

// Projection returns the memoized screen/canvas mapping.
func (c *Canvas) Projection() projection.Projection {
	return c.view.Projection()
}

func (c *Canvas) Scale() float64 {
	return c.view.Scale()
}

func (c *Canvas) Pan() geometry.Point {
	return c.view.Pan()
}

func (c *Canvas) Viewport() projection.Viewport {
	return c.view.Viewport()
}

func (c *Canvas) SetScale(scale float64) {
	c.view.SetScale(scale)
	c.notify(event.Projection)
}

func (c *Canvas) SetPan(p geometry.Point) {
	c.view.SetPan(p)
	c.notify(event.Projection)
}

func (c *Canvas) SetViewport(vp projection.Viewport) {
	c.view.SetViewport(vp)
	c.notify(event.Projection)
}

// ZoomAt changes scale keeping the canvas point under anchor (screen pixels)
// in place.
func (c *Canvas) ZoomAt(scale float64, anchor geometry.Point) {
	c.view.ZoomAt(scale, anchor)
	c.notify(event.Projection)
}

// ResetViewport returns to 1x zoom with no pan.
func (c *Canvas) ResetViewport() {
	c.view.SetScale(1)
	c.view.SetPan(geometry.Point{})
	c.notify(event.Projection)
}

// SetVideo records the video's pixel size once the renderer has loaded it.
func (c *Canvas) SetVideo(width, height float64) {
	c.doc.Video.Width = width
	c.doc.Video.Height = height
	c.view.SetVideo(projection.Size{Width: width, Height: height})
	c.notify(event.Projection)
}
