package postprocess

import (
	"fmt"
	"math"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/geom"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/preprocess"
)

// Decoder converts the raw feature map of a model variant into detections in
// the coordinates of the original image
type Decoder interface {
	Decode(fm model.FeatureMap, resizer *preprocess.Resizer) ([]Detection, error)
}

// Params defines the parameters used to decode a feature map
type Params struct {
	// Stride is the number of input pixels covered by one feature map cell
	Stride int
	// ProbThreshold is the plate probability a cell must exceed to be decoded
	ProbThreshold float64
	// Side scales the per cell vertex offsets into cell units
	Side float64
}

// DefaultParams returns the parameters the vernex models were trained with
// - Stride: 4
// - Probability Threshold: 0.5
// - Side: 3.5
func DefaultParams() Params {
	return Params{
		Stride:        4,
		ProbThreshold: 0.5,
		Side:          3.5,
	}
}

// NewDecoder returns the decoder for the model variant
func NewDecoder(v lpkit.Variant, p Params) (Decoder, error) {

	if p.Stride <= 0 {
		return nil, fmt.Errorf("invalid stride %d", p.Stride)
	}

	switch v {
	case lpkit.VariantWPOD:
		return &WPOD{Params: p}, nil
	case lpkit.VariantVernexLP:
		return &Vernex{Params: p}, nil
	case lpkit.VariantVernexLPFR:
		return &Vernex{Params: p, FrontRear: true}, nil
	default:
		return nil, fmt.Errorf("%w: %s", lpkit.ErrUnknownModel, v)
	}
}

// cellCenter returns the center of the cell at row y, column x in cell units
func cellCenter(x, y int) geom.Point {
	return geom.Pt(float64(x)+0.5, float64(y)+0.5)
}

// toSource converts a point in cell units to the original image
func toSource(p geom.Point, stride int, resizer *preprocess.Resizer) geom.Point {
	return resizer.ToSource(p.Scale(float64(stride)))
}

// checkChannels validates the feature map layout of a decoder
func checkChannels(fm model.FeatureMap, want int, name string) error {
	if fm.Channels != want {
		return fmt.Errorf("%s output requires %d channels, got %d", name, want, fm.Channels)
	}
	return nil
}

// softmax2 returns the softmax of a pair of logits
func softmax2(a, b float32) (float64, float64) {

	m := math.Max(float64(a), float64(b))
	ea := math.Exp(float64(a) - m)
	eb := math.Exp(float64(b) - m)
	sum := ea + eb

	return ea / sum, eb / sum
}
