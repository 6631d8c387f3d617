package augment

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/exp/rand"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/geom"
)

// Affine scales, rotates and shears the image about its center keeping the
// image size.  Pixels mapped from outside the source are set to Fill.
type Affine struct {
	ScaleX lpkit.Range
	// ScaleY is ignored when KeepAspect is set, the x scale is then used on
	// both axis
	ScaleY     lpkit.Range
	KeepAspect bool
	// Shear and Rotate are in degrees
	Shear  lpkit.Range
	Rotate lpkit.Range
	Fill   uint8
}

// Augment warps the image and keypoints with a randomly sampled transform
func (a *Affine) Augment(s *Sample, rng *rand.Rand) error {

	sx := uniform(rng, a.ScaleX)
	sy := sx

	if !a.KeepAspect {
		sy = uniform(rng, a.ScaleY)
	}

	shear := uniform(rng, a.Shear)
	rotate := uniform(rng, a.Rotate)

	size := image.Pt(s.Image.Cols(), s.Image.Rows())
	m := affineMatrix(size, sx, sy, shear, rotate)

	warp := toMat(m, 2)
	defer warp.Close()

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(s.Image, &dst, warp, size, gocv.InterpolationLinear,
		gocv.BorderConstant, fillColor(a.Fill))

	s.replaceImage(dst)
	s.Keypoints = s.Keypoints.Map(func(p geom.Point) geom.Point {
		return applyHomography(m, p)
	})

	return nil
}

// affineMatrix returns the 3x3 transform scaling, then rotating, then
// shearing about the image center
func affineMatrix(size image.Point, sx, sy, shearDeg, rotateDeg float64) *mat.Dense {

	cx, cy := float64(size.X)/2, float64(size.Y)/2
	theta := rotateDeg * math.Pi / 180
	shear := math.Tan(shearDeg * math.Pi / 180)

	toCenter := mat.NewDense(3, 3, []float64{1, 0, cx, 0, 1, cy, 0, 0, 1})
	shearM := mat.NewDense(3, 3, []float64{1, shear, 0, 0, 1, 0, 0, 0, 1})
	rotM := mat.NewDense(3, 3, []float64{
		math.Cos(theta), -math.Sin(theta), 0,
		math.Sin(theta), math.Cos(theta), 0,
		0, 0, 1,
	})
	scaleM := mat.NewDense(3, 3, []float64{sx, 0, 0, 0, sy, 0, 0, 0, 1})
	toOrigin := mat.NewDense(3, 3, []float64{1, 0, -cx, 0, 1, -cy, 0, 0, 1})

	var m mat.Dense
	m.Product(toCenter, shearM, rotM, scaleM, toOrigin)

	return &m
}

// applyHomography maps a point with a 3x3 transform
func applyHomography(m mat.Matrix, p geom.Point) geom.Point {

	w := m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)

	return geom.Pt(
		(m.At(0, 0)*p.X+m.At(0, 1)*p.Y+m.At(0, 2))/w,
		(m.At(1, 0)*p.X+m.At(1, 1)*p.Y+m.At(1, 2))/w,
	)
}

// toMat copies the first rows of a 3 column matrix into a float64 Mat
func toMat(m mat.Matrix, rows int) gocv.Mat {

	out := gocv.NewMatWithSize(rows, 3, gocv.MatTypeCV64F)

	for r := 0; r < rows; r++ {
		for c := 0; c < 3; c++ {
			out.SetDoubleAt(r, c, m.At(r, c))
		}
	}

	return out
}

func fillColor(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
