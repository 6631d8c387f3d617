// Package geom holds the vertex and polygon types shared by the augmentation,
// decoding and evaluation code together with polygon overlap measures
package geom

import (
	"image"
	"math"
	"sort"
)

// Point is a vertex in image pixel coordinates
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// ImagePoint rounds the point to integer pixel coordinates for drawing
func (p Point) ImagePoint() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Add returns p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale returns p with both coordinates multiplied by s
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Polygon is an ordered list of vertices, license plates and vehicle
// front/rear regions are quadrilaterals
type Polygon []Point

// Clone returns a copy of the polygon
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	return append(Polygon(nil), p...)
}

// Map returns a new polygon with fn applied to every vertex in order
func (p Polygon) Map(fn func(Point) Point) Polygon {

	out := make(Polygon, len(p))

	for i, pt := range p {
		out[i] = fn(pt)
	}

	return out
}

// Area returns the absolute area of a simple polygon using the shoelace
// formula
func (p Polygon) Area() float64 {

	if len(p) < 3 {
		return 0
	}

	sum := 0.0

	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}

	return math.Abs(sum) / 2
}

// Centroid returns the mean of the vertices
func (p Polygon) Centroid() Point {

	var c Point

	if len(p) == 0 {
		return c
	}

	for _, pt := range p {
		c.X += pt.X
		c.Y += pt.Y
	}

	return c.Scale(1 / float64(len(p)))
}

// Pairs returns the vertices as [x, y] pairs
func (p Polygon) Pairs() [][2]float64 {

	out := make([][2]float64, len(p))

	for i, pt := range p {
		out[i] = [2]float64{pt.X, pt.Y}
	}

	return out
}

// FromPairs builds a polygon from [x, y] pairs
func FromPairs(pairs [][2]float64) Polygon {

	out := make(Polygon, len(pairs))

	for i, pr := range pairs {
		out[i] = Point{X: pr[0], Y: pr[1]}
	}

	return out
}

// ImagePoints returns the vertices rounded to pixel coordinates
func (p Polygon) ImagePoints() []image.Point {

	out := make([]image.Point, len(p))

	for i, pt := range p {
		out[i] = pt.ImagePoint()
	}

	return out
}

// Rearrange returns the vertices ordered clockwise on screen (y axis pointing
// down) starting with the top left vertex, being the one with the smallest
// x+y.  Annotations list plate corners in different orders so predictions
// and ground truth are compared and written in this canonical order.
func Rearrange(p Polygon) Polygon {

	if len(p) < 3 {
		return p.Clone()
	}

	c := p.Centroid()
	out := p.Clone()

	sort.SliceStable(out, func(i, j int) bool {
		ai := math.Atan2(out[i].Y-c.Y, out[i].X-c.X)
		aj := math.Atan2(out[j].Y-c.Y, out[j].X-c.X)
		return ai < aj
	})

	start := 0

	for i, pt := range out {
		if pt.X+pt.Y < out[start].X+out[start].Y {
			start = i
		}
	}

	return append(out[start:], out[:start]...)
}
