package input

import (
	"errors"
	"fmt"

	"github.com/vannot/vannot/internal/canvas"
)

var ErrUnknownTarget = errors.New("unknown target")

// TargetRef is the wire form of a Target: element kind plus ids into the
// active frame.
type TargetRef struct {
	Kind          string `json:"kind"`
	ShapeID       *int   `json:"shapeId,omitempty"`
	PointIndex    *int   `json:"pointIndex,omitempty"`
	ImplicitIndex *int   `json:"implicitIndex,omitempty"`
}

// Resolve looks ref up on the canvas' active frame.
func Resolve(c *canvas.Canvas, ref TargetRef) (Target, error) {
	switch ref.Kind {
	case "", "background":
		return Target{Kind: TargetBackground}, nil
	case "closer":
		return Target{Kind: TargetCloser}, nil
	}

	if ref.ShapeID == nil {
		return Target{}, fmt.Errorf("%s target without shape: %w", ref.Kind, ErrUnknownTarget)
	}
	shape := c.ShapeByID(*ref.ShapeID)
	if shape == nil {
		return Target{}, fmt.Errorf("shape %d: %w", *ref.ShapeID, ErrUnknownTarget)
	}

	switch ref.Kind {
	case "shape":
		return Target{Kind: TargetShape, Shape: shape}, nil
	case "point":
		if ref.PointIndex == nil || *ref.PointIndex < 0 || *ref.PointIndex >= len(shape.Points) {
			return Target{}, fmt.Errorf("shape %d point: %w", shape.ID, ErrUnknownTarget)
		}
		return Target{Kind: TargetPoint, Shape: shape, Point: shape.Points[*ref.PointIndex]}, nil
	case "implicit":
		imp := c.ImplicitPoints()
		if imp.Shape != shape || ref.ImplicitIndex == nil || *ref.ImplicitIndex < 0 || *ref.ImplicitIndex >= len(imp.Points) {
			return Target{}, fmt.Errorf("shape %d implicit point: %w", shape.ID, ErrUnknownTarget)
		}
		p := imp.Points[*ref.ImplicitIndex]
		return Target{Kind: TargetImplicit, Shape: shape, Implicit: &p}, nil
	}
	return Target{}, fmt.Errorf("kind %q: %w", ref.Kind, ErrUnknownTarget)
}
