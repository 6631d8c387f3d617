package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit/geom"
	"github.com/swdee/go-lpkit/postprocess"
)

// Polygon draws the closed polygon
func Polygon(img *gocv.Mat, poly geom.Polygon, clr color.RGBA, lineThickness int) {

	if len(poly) < 2 {
		return
	}

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly.ImagePoints()})
	defer pv.Close()

	gocv.Polylines(img, pv, true, clr, lineThickness)
}

// Detections draws the plate polygon of every detection.  Front/rear
// polygons are drawn in the color of their class and labelled with the class
// and its probability.
func Detections(img *gocv.Mat, dets []postprocess.Detection, labeler Labeler, lineThickness int) error {

	for _, d := range dets {
		Polygon(img, d.LP, PlateColor, lineThickness)
	}

	// labels are drawn last so polygons never cover them
	for _, d := range dets {
		if !d.HasFrontRear() {
			continue
		}

		clr := ClassColor(d.FRClass)
		Polygon(img, d.FR, clr, lineThickness)

		anchor := topLeft(d.FR)
		text := fmt.Sprintf("%s %.2f", d.FRClass, d.ClassProb)

		if err := labeler.Label(img, text, anchor, clr); err != nil {
			return err
		}
	}

	return nil
}

// topLeft returns the vertex closest to the image origin
func topLeft(poly geom.Polygon) image.Point {

	best := poly[0]

	for _, p := range poly[1:] {
		if p.X+p.Y < best.X+best.Y {
			best = p
		}
	}

	return best.ImagePoint()
}
