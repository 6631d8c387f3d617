package render

import (
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit/geom"
)

// keypointRadius is the radius of the circle drawn at every keypoint
const keypointRadius = 3

// Keypoints draws augmented ground truth, the first four keypoints are the
// plate drawn in clr, the following four are the front/rear drawn in yellow.
// Each keypoint gets a circle colored by its index so the vertex order can
// be checked after augmentation.
func Keypoints(img *gocv.Mat, kp geom.Polygon, clr color.RGBA, lineThickness int) {

	if len(kp) >= 4 {
		Polygon(img, kp[:4], clr, lineThickness)
	}

	if len(kp) >= 8 {
		Polygon(img, kp[4:8], Yellow, lineThickness)
	}

	palette := Palette(4)

	for i, p := range kp {
		gocv.Circle(img, p.ImagePoint(), keypointRadius, palette[i%4], -1)
	}
}
