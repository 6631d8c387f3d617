package augment

import (
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/exp/rand"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/geom"
)

const (
	// minPerspectiveSide is the smallest output side of a perspective warp
	minPerspectiveSide = 2
	// minPerspectiveArea is the smallest corner quadrilateral area in pixels
	// a warp is computed from
	minPerspectiveArea = 1.0
	// maxPerspectiveDraws is how often the corners are resampled before the
	// sample is passed through unchanged
	maxPerspectiveDraws = 10
)

// ErrDegenerateWarp is returned when the corner points do not define a
// usable perspective transform
var ErrDegenerateWarp = errors.New("degenerate perspective transform")

// Perspective moves each image corner inwards by a random distance and warps
// the resulting quadrilateral onto a rectangle.  Corner offsets are drawn from
// |N(0, sigma)| relative to the image size with sigma sampled from Scale.
// Without KeepSize the output takes the size of the warped quadrilateral.
type Perspective struct {
	Scale    lpkit.Range
	KeepSize bool
	Fill     uint8
}

// Augment warps the image and keypoints with a randomly sampled transform.
// Corner draws that collapse the quadrilateral are resampled and the sample
// is left unchanged when no usable draw is found.
func (p *Perspective) Augment(s *Sample, rng *rand.Rand) error {

	w, h := float64(s.Image.Cols()), float64(s.Image.Rows())
	jitter := distuv.Normal{Mu: 0, Sigma: uniform(rng, p.Scale), Src: rng}

	j := func() float64 { return math.Min(math.Abs(jitter.Rand()), 0.5) }

	for draw := 0; draw < maxPerspectiveDraws; draw++ {
		src := [4]geom.Point{
			geom.Pt(j()*w, j()*h),
			geom.Pt((1-j())*w, j()*h),
			geom.Pt((1-j())*w, (1-j())*h),
			geom.Pt(j()*w, (1-j())*h),
		}

		outW := math.Max(dist(src[2], src[3]), dist(src[1], src[0]))
		outH := math.Max(dist(src[1], src[2]), dist(src[0], src[3]))
		outW = math.Max(math.Round(outW), minPerspectiveSide)
		outH = math.Max(math.Round(outH), minPerspectiveSide)

		dst := [4]geom.Point{
			geom.Pt(0, 0), geom.Pt(outW-1, 0), geom.Pt(outW-1, outH-1), geom.Pt(0, outH-1),
		}

		m, err := homography(src, dst)

		if err != nil {
			continue
		}

		size := image.Pt(int(outW), int(outH))

		if p.KeepSize {
			// scale the rectangle back to the input size
			back := mat.NewDense(3, 3, []float64{w / outW, 0, 0, 0, h / outH, 0, 0, 0, 1})
			var scaled mat.Dense
			scaled.Mul(back, m)
			m = &scaled
			size = image.Pt(s.Image.Cols(), s.Image.Rows())
		}

		p.warp(s, m, size)
		return nil
	}

	return nil
}

// warp applies the homography m to the image and keypoints of s
func (p *Perspective) warp(s *Sample, m *mat.Dense, size image.Point) {

	warp := toMat(m, 3)
	defer warp.Close()

	out := gocv.NewMat()
	gocv.WarpPerspectiveWithParams(s.Image, &out, warp, size, gocv.InterpolationLinear,
		gocv.BorderConstant, fillColor(p.Fill))

	s.replaceImage(out)
	s.Keypoints = s.Keypoints.Map(func(pt geom.Point) geom.Point {
		return applyHomography(m, pt)
	})
}

// homography returns the projective transform mapping the four src points
// onto dst, an error is returned when src does not span a quadrilateral
func homography(src, dst [4]geom.Point) (*mat.Dense, error) {

	if area := geom.Polygon(src[:]).Area(); area < minPerspectiveArea {
		return nil, fmt.Errorf("%w: corner area %.3f", ErrDegenerateWarp, area)
	}

	srcVec := gocv.NewPoint2fVectorFromPoints(toPoint2f(src))
	defer srcVec.Close()

	dstVec := gocv.NewPoint2fVectorFromPoints(toPoint2f(dst))
	defer dstVec.Close()

	t := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	defer t.Close()

	if t.Empty() || t.Rows() != 3 || t.Cols() != 3 {
		return nil, fmt.Errorf("%w: no transform found", ErrDegenerateWarp)
	}

	m := mat.NewDense(3, 3, nil)

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := t.GetDoubleAt(r, c)

			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non finite transform", ErrDegenerateWarp)
			}

			m.Set(r, c, v)
		}
	}

	if math.Abs(mat.Det(m)) < 1e-12 {
		return nil, fmt.Errorf("%w: singular transform", ErrDegenerateWarp)
	}

	return m, nil
}

func toPoint2f(pts [4]geom.Point) []gocv.Point2f {

	out := make([]gocv.Point2f, len(pts))

	for i, pt := range pts {
		out[i] = gocv.Point2f{X: float32(pt.X), Y: float32(pt.Y)}
	}

	return out
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
