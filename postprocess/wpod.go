package postprocess

import (
	"math"

	"github.com/swdee/go-lpkit/geom"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/preprocess"
)

// wpodChannels is the layout p_obj, p_bg, followed by six affine parameters
const wpodChannels = 8

// unitSquare is the canonical plate the WPOD affine parameters transform,
// listed clockwise from top left
var unitSquare = geom.Polygon{
	geom.Pt(-0.5, -0.5), geom.Pt(0.5, -0.5), geom.Pt(0.5, 0.5), geom.Pt(-0.5, 0.5),
}

// WPOD decodes outputs of a WPOD-NET style head where every cell regresses an
// affine transform of a unit square onto the plate
type WPOD struct {
	Params Params
}

// Decode returns the plates of all cells above the probability threshold
// ordered by probability
func (w *WPOD) Decode(fm model.FeatureMap, resizer *preprocess.Resizer) ([]Detection, error) {

	if err := checkChannels(fm, wpodChannels, "WPOD"); err != nil {
		return nil, err
	}

	dets := make([]Detection, 0)

	for y := 0; y < fm.Height; y++ {
		for x := 0; x < fm.Width; x++ {
			cell := fm.Cell(y, x)
			prob := float64(cell[0])

			if prob <= w.Params.ProbThreshold {
				continue
			}

			a := [6]float64{
				math.Max(float64(cell[2]), 0), float64(cell[3]), float64(cell[4]),
				float64(cell[5]), math.Max(float64(cell[6]), 0), float64(cell[7]),
			}

			center := cellCenter(x, y)

			lp := unitSquare.Map(func(q geom.Point) geom.Point {
				pt := geom.Pt(a[0]*q.X+a[1]*q.Y+a[2], a[3]*q.X+a[4]*q.Y+a[5])
				return toSource(pt.Scale(w.Params.Side).Add(center), w.Params.Stride, resizer)
			})

			dets = append(dets, Detection{Probability: prob, LP: lp})
		}
	}

	SortByProbability(dets)

	return dets, nil
}
