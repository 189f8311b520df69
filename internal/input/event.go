// Package input resolves raw pointer gestures on the canvas into view-model
// operations. Which handler wins depends on the canvas state and the
// element under the pointer.
package input

import (
	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/geometry"
)

// TargetKind classifies the element a pointer event hit.
type TargetKind int

const (
	TargetBackground TargetKind = iota
	TargetShape
	TargetPoint
	TargetImplicit
	TargetCloser
)

func (k TargetKind) String() string {
	switch k {
	case TargetBackground:
		return "background"
	case TargetShape:
		return "shape"
	case TargetPoint:
		return "point"
	case TargetImplicit:
		return "implicit"
	case TargetCloser:
		return "closer"
	}
	return "unknown"
}

// Target is the resolved element under the pointer. Shape is set for shape,
// point and implicit targets.
type Target struct {
	Kind     TargetKind
	Shape    *document.Shape
	Point    *geometry.Point
	Implicit *canvas.ImplicitPoint
}

type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Alt   bool `json:"alt"`
}

// Event is one pointer event. Screen is in viewport pixels; Canvas is filled
// in by the Dispatcher from the current projection.
type Event struct {
	Target    Target
	Modifiers Modifiers
	Screen    geometry.Point
	Canvas    geometry.Point
}
