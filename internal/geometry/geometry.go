package geometry

import "math"

// Point is a position in video-pixel space. Shapes hold *Point so that
// selection can work by identity rather than by value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Equal compares by value.
func Equal(a, b Point) bool {
	return a.X == b.X && a.Y == b.Y
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Box is an axis-aligned rectangle given by two corners. A Box built from a
// drag gesture may have its corners in any order; Normalize fixes that.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NormalizeBox returns the box spanned by a and b with Min <= Max on both axes.
func NormalizeBox(a, b Point) Box {
	return Box{
		Min: Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: Point{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}
}

// Normalize returns the same region with ordered corners.
func (b Box) Normalize() Box {
	return NormalizeBox(b.Min, b.Max)
}

// Contains checks if p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	n := b.Normalize()
	return n.Min.X <= p.X && p.X <= n.Max.X && n.Min.Y <= p.Y && p.Y <= n.Max.Y
}

// IsEmpty checks if the box has zero area.
func (b Box) IsEmpty() bool {
	return b.Min.X == b.Max.X || b.Min.Y == b.Max.Y
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	b, other = b.Normalize(), other.Normalize()
	return Box{
		Min: Point{X: min(b.Min.X, other.Min.X), Y: min(b.Min.Y, other.Min.Y)},
		Max: Point{X: max(b.Max.X, other.Max.X), Y: max(b.Max.Y, other.Max.Y)},
	}
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Midpoint(b.Min, b.Max)
}

// Bounds returns the bounding box of the given points. ok is false when
// points is empty.
func Bounds(points []*Point) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	box = Box{Min: *points[0], Max: *points[0]}
	for _, p := range points[1:] {
		box.Min.X = min(box.Min.X, p.X)
		box.Min.Y = min(box.Min.Y, p.Y)
		box.Max.X = max(box.Max.X, p.X)
		box.Max.Y = max(box.Max.Y, p.Y)
	}
	return box, true
}

// Offset returns fresh copies of points shifted by (dx, dy). The input points
// are not modified and none of the returned pointers alias them.
func Offset(points []*Point, dx, dy float64) []*Point {
	out := make([]*Point, len(points))
	for i, p := range points {
		q := p.Add(dx, dy)
		out[i] = &q
	}
	return out
}

// Translate moves every point in place by (dx, dy).
func Translate(points []*Point, dx, dy float64) {
	for _, p := range points {
		p.X += dx
		p.Y += dy
	}
}

// Edges calls fn for each consecutive pair of a closed polygon, wrapping the
// last point back to the first. i is the index of the edge's first point.
func Edges(points []*Point, fn func(i int, a, b *Point)) {
	n := len(points)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		fn(i, points[i], points[(i+1)%n])
	}
}
