// Package augment applies randomized geometric and color transforms to
// images while moving their keypoints with them, the way training samples
// of the plate detection models are generated
package augment

import (
	"golang.org/x/exp/rand"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/geom"
)

// Sample is an image and its keypoints.  Transforms replace Image and move
// Keypoints, the number and order of keypoints never changes.
type Sample struct {
	// Path is the file the sample was read from
	Path string
	// Image is in RGB order while being augmented and BGR once returned by
	// Pipeline.AugmentBatch
	Image     gocv.Mat
	Keypoints geom.Polygon
	// FRClass is the front/rear class label of the sample
	FRClass string
}

// Close releases the image
func (s *Sample) Close() error {
	return s.Image.Close()
}

// replaceImage swaps in a transformed image and releases the old one
func (s *Sample) replaceImage(img gocv.Mat) {
	s.Image.Close()
	s.Image = img
}

// Augmenter transforms a single sample drawing its random parameters from
// rng
type Augmenter interface {
	Augment(s *Sample, rng *rand.Rand) error
}

// Sequential applies its children one after another.  With RandomOrder the
// order is shuffled once per batch.
type Sequential struct {
	Children    []Augmenter
	RandomOrder bool
}

// AugmentBatch applies the children to every sample
func (q *Sequential) AugmentBatch(samples []*Sample, rng *rand.Rand) error {

	order := make([]int, len(q.Children))

	for i := range order {
		order[i] = i
	}

	if q.RandomOrder {
		order = rng.Perm(len(q.Children))
	}

	for _, s := range samples {
		for _, i := range order {
			if err := q.Children[i].Augment(s, rng); err != nil {
				return err
			}
		}
	}

	return nil
}

// Augment applies the children to a single sample in a fixed order
func (q *Sequential) Augment(s *Sample, rng *rand.Rand) error {

	for _, c := range q.Children {
		if err := c.Augment(s, rng); err != nil {
			return err
		}
	}

	return nil
}

// Sometimes applies Then to a sample with probability P
type Sometimes struct {
	P    float64
	Then Augmenter
}

// Augment decides per sample whether Then runs
func (st *Sometimes) Augment(s *Sample, rng *rand.Rand) error {

	if !chance(rng, st.P) {
		return nil
	}

	return st.Then.Augment(s, rng)
}

// uniform samples a value from the closed range
func uniform(rng *rand.Rand, r lpkit.Range) float64 {

	if r.Min == r.Max {
		return r.Min
	}

	return distuv.Uniform{Min: r.Min, Max: r.Max, Src: rng}.Rand()
}

// chance returns true with probability p
func chance(rng *rand.Rand, p float64) bool {

	if p <= 0 {
		return false
	}

	if p >= 1 {
		return true
	}

	return distuv.Bernoulli{P: p, Src: rng}.Rand() == 1
}
