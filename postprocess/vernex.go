package postprocess

import (
	"github.com/swdee/go-lpkit/dataset"
	"github.com/swdee/go-lpkit/geom"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/preprocess"
)

const (
	// vernexLPChannels is the layout p_obj, p_bg, 4 plate vertex offsets
	vernexLPChannels = 10
	// vernexLPFRChannels adds 4 front/rear vertex offsets and the front and
	// rear logits
	vernexLPFRChannels = 20
)

// Vernex decodes outputs of the vernex heads where every cell regresses the
// vertex offsets from its center
type Vernex struct {
	Params Params
	// FrontRear enables decoding of the front/rear vertices and class
	FrontRear bool
}

// Decode returns the plates of all cells above the probability threshold
// ordered by probability
func (v *Vernex) Decode(fm model.FeatureMap, resizer *preprocess.Resizer) ([]Detection, error) {

	want, name := vernexLPChannels, "Vernex LP"

	if v.FrontRear {
		want, name = vernexLPFRChannels, "Vernex LPFR"
	}

	if err := checkChannels(fm, want, name); err != nil {
		return nil, err
	}

	dets := make([]Detection, 0)

	for y := 0; y < fm.Height; y++ {
		for x := 0; x < fm.Width; x++ {
			cell := fm.Cell(y, x)
			prob := float64(cell[0])

			if prob <= v.Params.ProbThreshold {
				continue
			}

			center := cellCenter(x, y)

			det := Detection{
				Probability: prob,
				LP:          v.vertices(cell[2:10], center, resizer),
			}

			if v.FrontRear {
				det.FR = v.vertices(cell[10:18], center, resizer)

				front, rear := softmax2(cell[18], cell[19])
				det.FRClass, det.ClassProb = dataset.ClassFront, front

				if rear > front {
					det.FRClass, det.ClassProb = dataset.ClassRear, rear
				}
			}

			dets = append(dets, det)
		}
	}

	SortByProbability(dets)

	return dets, nil
}

// vertices converts (dx, dy) offset pairs into image vertices
func (v *Vernex) vertices(offsets []float32, center geom.Point,
	resizer *preprocess.Resizer) geom.Polygon {

	poly := make(geom.Polygon, len(offsets)/2)

	for i := range poly {
		off := geom.Pt(float64(offsets[2*i]), float64(offsets[2*i+1]))
		poly[i] = toSource(off.Scale(v.Params.Side).Add(center), v.Params.Stride, resizer)
	}

	return poly
}
