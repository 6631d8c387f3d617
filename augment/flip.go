package augment

import (
	"golang.org/x/exp/rand"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit/geom"
)

// FlipLR mirrors the image horizontally with probability P
type FlipLR struct {
	P float64
}

// Augment flips the image and keypoints, x becomes width - x
func (f *FlipLR) Augment(s *Sample, rng *rand.Rand) error {

	if !chance(rng, f.P) {
		return nil
	}

	width := float64(s.Image.Cols())

	out := gocv.NewMat()
	gocv.Flip(s.Image, &out, 1)
	s.replaceImage(out)

	s.Keypoints = s.Keypoints.Map(func(p geom.Point) geom.Point {
		return geom.Pt(width-p.X, p.Y)
	})

	return nil
}
