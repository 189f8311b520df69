package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(coords ...float64) []*Point {
	out := make([]*Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, &Point{X: coords[i], Y: coords[i+1]})
	}
	return out
}

func TestDistanceAndMidpoint(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	assert.Equal(t, 5.0, Distance(a, b))
	assert.Equal(t, Point{X: 1.5, Y: 2}, Midpoint(a, b))
	assert.True(t, Equal(b, Point{X: 3, Y: 4}))
	assert.False(t, Equal(a, b))
}

func TestNormalizeBox(t *testing.T) {
	box := NormalizeBox(Point{X: 100, Y: 0}, Point{X: 0, Y: 50})
	assert.Equal(t, Point{X: 0, Y: 0}, box.Min)
	assert.Equal(t, Point{X: 100, Y: 50}, box.Max)
}

func TestBoxContains(t *testing.T) {
	// corners given in reverse order still contain their interior
	box := Box{Min: Point{X: 100, Y: 100}, Max: Point{X: 0, Y: 0}}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{X: 50, Y: 50}, true},
		{"on edge", Point{X: 0, Y: 30}, true},
		{"corner", Point{X: 100, Y: 100}, true},
		{"outside x", Point{X: 101, Y: 50}, false},
		{"outside y", Point{X: 50, Y: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, box.Contains(tt.p))
		})
	}
}

func TestBoxIsEmpty(t *testing.T) {
	assert.True(t, Box{Min: Point{X: 5, Y: 5}, Max: Point{X: 5, Y: 5}}.IsEmpty())
	assert.True(t, Box{Min: Point{X: 0, Y: 5}, Max: Point{X: 10, Y: 5}}.IsEmpty())
	assert.False(t, Box{Min: Point{X: 0, Y: 0}, Max: Point{X: 1, Y: 1}}.IsEmpty())
}

func TestBoxUnion(t *testing.T) {
	a := Box{Min: Point{X: 0, Y: 0}, Max: Point{X: 10, Y: 10}}
	b := Box{Min: Point{X: 20, Y: -5}, Max: Point{X: 5, Y: 5}}
	u := a.Union(b)
	assert.Equal(t, Point{X: 0, Y: -5}, u.Min)
	assert.Equal(t, Point{X: 20, Y: 10}, u.Max)
	assert.Equal(t, Point{X: 10, Y: 2.5}, u.Center())
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	assert.False(t, ok)

	box, ok := Bounds(pts(10, 10, 50, 5, 30, 60))
	require.True(t, ok)
	assert.Equal(t, Point{X: 10, Y: 5}, box.Min)
	assert.Equal(t, Point{X: 50, Y: 60}, box.Max)
}

func TestOffsetCopies(t *testing.T) {
	src := pts(1, 2, 3, 4)
	out := Offset(src, 10, 10)

	require.Len(t, out, 2)
	assert.Equal(t, Point{X: 11, Y: 12}, *out[0])
	assert.Equal(t, Point{X: 13, Y: 14}, *out[1])
	assert.NotSame(t, src[0], out[0])
	assert.Equal(t, Point{X: 1, Y: 2}, *src[0], "source must be untouched")
}

func TestTranslateInPlace(t *testing.T) {
	src := pts(1, 2, 3, 4)
	first := src[0]
	Translate(src, -1, 1)
	assert.Same(t, first, src[0])
	assert.Equal(t, Point{X: 0, Y: 3}, *src[0])
	assert.Equal(t, Point{X: 2, Y: 5}, *src[1])
}

func TestEdgesWrap(t *testing.T) {
	square := pts(0, 0, 10, 0, 10, 10, 0, 10)
	var starts []int
	var last [2]*Point
	Edges(square, func(i int, a, b *Point) {
		starts = append(starts, i)
		last = [2]*Point{a, b}
	})
	assert.Equal(t, []int{0, 1, 2, 3}, starts)
	assert.Same(t, square[3], last[0])
	assert.Same(t, square[0], last[1])
}

func TestPolygon(t *testing.T) {
	poly, err := Polygon(pts(0, 0, 10, 0, 10, 10, 0, 10))
	require.NoError(t, err)
	ring := poly.ExteriorRing().Coordinates()
	require.Equal(t, 5, ring.Length(), "ring is closed explicitly")
	assert.Equal(t, ring.GetXY(0), ring.GetXY(4))
	assert.InDelta(t, 100.0, poly.Area(), 1e-9)

	_, err = Polygon(pts(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrDegeneratePolygon)

	_, err = Polygon(pts(1, 1, 1, 1, 1, 1))
	assert.Error(t, err, "a ring without distinct points is rejected")
}

func TestArea(t *testing.T) {
	assert.InDelta(t, 100.0, Area(pts(0, 0, 10, 0, 10, 10, 0, 10)), 1e-9)
	assert.InDelta(t, 50.0, Area(pts(0, 0, 10, 0, 10, 10)), 1e-9)
	assert.Equal(t, 0.0, Area(pts(0, 0, 1, 1)))
}

func TestUnion(t *testing.T) {
	a := pts(0, 0, 10, 0, 10, 10, 0, 10)
	b := pts(5, 0, 15, 0, 15, 10, 5, 10)

	wkt, err := Union(a, b)
	require.NoError(t, err)
	assert.Contains(t, wkt, "POLYGON")

	_, err = Union(a, pts(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrDegeneratePolygon)

	_, err = Union()
	assert.ErrorIs(t, err, ErrDegeneratePolygon)
}
