package geom

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// clipScale is the fixed point scale pixel coordinates are converted with
// for the integer based clipper
const clipScale = 1000.0

// toPath converts the polygon to a clipper path
func toPath(p Polygon) clipper.Path {

	path := make(clipper.Path, 0, len(p))

	for _, pt := range p {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X * clipScale)),
			Y: clipper.CInt(math.Round(pt.Y * clipScale)),
		})
	}

	return path
}

// pathArea returns the signed area of a clipper path in pixel units, outer
// and hole paths of a clipper solution carry opposite signs
func pathArea(path clipper.Path) float64 {

	if len(path) < 3 {
		return 0
	}

	sum := 0.0

	for i := range path {
		j := (i + 1) % len(path)
		sum += float64(path[i].X)*float64(path[j].Y) - float64(path[j].X)*float64(path[i].Y)
	}

	return sum / 2 / (clipScale * clipScale)
}

// solutionArea returns the filled area of a clipper solution
func solutionArea(solution clipper.Paths) float64 {

	area := 0.0

	for _, path := range solution {
		area += pathArea(path)
	}

	return math.Abs(area)
}

// FilledArea returns the area of the polygon under the non-zero fill rule,
// which for a self intersecting polygon differs from the shoelace Area
func FilledArea(p Polygon) float64 {

	if len(p) < 3 {
		return 0
	}

	// no init options
	c := clipper.NewClipper(0)
	c.AddPath(toPath(p), clipper.PtSubject, true)

	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	return solutionArea(solution)
}

// IntersectionArea returns the area shared by the two polygons
func IntersectionArea(a, b Polygon) float64 {

	if len(a) < 3 || len(b) < 3 {
		return 0
	}

	// no init options
	c := clipper.NewClipper(0)
	c.AddPath(toPath(a), clipper.PtSubject, true)
	c.AddPath(toPath(b), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	return solutionArea(solution)
}

// IoU returns the Intersection over Union of the two polygons, zero when
// either polygon is degenerate. Both areas use the non-zero fill rule the
// intersection is computed with, so vertex order does not matter.
func IoU(a, b Polygon) float64 {

	inter := IntersectionArea(a, b)

	if inter <= 0 {
		return 0
	}

	union := FilledArea(a) + FilledArea(b) - inter

	if union <= 0 {
		return 0
	}

	return math.Min(inter/union, 1)
}
