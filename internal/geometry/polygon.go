package geometry

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrDegeneratePolygon is returned when a ring has fewer than three points.
var ErrDegeneratePolygon = errors.New("polygon needs at least 3 points")

// Polygon converts an ordered point list into a closed simplefeatures polygon.
// The closing edge from the last point back to the first is implicit in the
// input and made explicit here.
func Polygon(points []*Point) (geom.Polygon, error) {
	if len(points) < 3 {
		return geom.Polygon{}, ErrDegeneratePolygon
	}

	flat := make([]float64, 0, (len(points)+1)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	flat = append(flat, points[0].X, points[0].Y)

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("polygon ring: %w", err)
	}
	return geom.NewPolygon([]geom.LineString{ring})
}

// Area returns the unsigned area enclosed by the polygon. Rings that cannot
// form a polygon have zero area.
func Area(points []*Point) float64 {
	poly, err := Polygon(points)
	if err != nil {
		return 0
	}
	return poly.Area()
}

// Union merges several polygons into a single geometry and returns it as WKT.
// Self-intersecting rings make the overlay fail and surface as an error.
func Union(polygons ...[]*Point) (string, error) {
	var acc geom.Geometry
	have := false
	for i, points := range polygons {
		poly, err := Polygon(points)
		if err != nil {
			return "", fmt.Errorf("polygon %d: %w", i, err)
		}
		if !have {
			acc = poly.AsGeometry()
			have = true
			continue
		}
		acc, err = geom.Union(acc, poly.AsGeometry())
		if err != nil {
			return "", fmt.Errorf("union polygon %d: %w", i, err)
		}
	}
	if !have {
		return "", ErrDegeneratePolygon
	}
	return acc.AsText(), nil
}
