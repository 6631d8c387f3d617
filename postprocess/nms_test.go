package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swdee/go-lpkit/geom"
)

func plate(x, y, size, prob float64) Detection {
	return Detection{
		Probability: prob,
		LP: geom.Polygon{
			geom.Pt(x, y), geom.Pt(x+size, y), geom.Pt(x+size, y+size), geom.Pt(x, y+size),
		},
	}
}

func TestNMSSuppression(t *testing.T) {

	dets := []Detection{
		plate(0, 0, 10, 0.7),
		plate(1, 0, 10, 0.9), // overlaps the first with IoU 90/110
		plate(50, 50, 10, 0.8),
		plate(5, 0, 10, 0.6), // IoU 60/140 with the second
	}

	kept := NMS(dets, 0.5, nil)

	assert.Len(t, kept, 3)
	assert.InDelta(t, 0.9, kept[0].Probability, 1e-9)
	assert.InDelta(t, 0.8, kept[1].Probability, 1e-9)
	assert.InDelta(t, 0.6, kept[2].Probability, 1e-9)

	// input slice order is left untouched
	assert.InDelta(t, 0.7, dets[0].Probability, 1e-9)
}

func TestNMSNoPairAboveThreshold(t *testing.T) {

	var dets []Detection

	for i := 0; i < 20; i++ {
		dets = append(dets, plate(float64(i*3), float64(i%4), 12, float64(i%7)/10+0.1))
	}

	for _, threshold := range []float64{0.1, 0.3, 0.5, 0.9} {
		kept := NMS(dets, threshold, PlateIoU)

		assert.LessOrEqual(t, len(kept), len(dets))

		for i := range kept {
			for j := i + 1; j < len(kept); j++ {
				assert.LessOrEqual(t, PlateIoU(kept[i], kept[j]), threshold)
			}
		}
	}
}

func TestNMSCustomOverlap(t *testing.T) {

	// an overlap predicate that treats everything as the same plate keeps
	// only the most probable detection
	all := func(a, b Detection) float64 { return 1 }

	kept := NMS([]Detection{plate(0, 0, 1, 0.2), plate(100, 100, 1, 0.4)}, 0.5, all)

	assert.Len(t, kept, 1)
	assert.InDelta(t, 0.4, kept[0].Probability, 1e-9)

	assert.Empty(t, NMS(nil, 0.5, nil))
}

func TestTop(t *testing.T) {

	dets := []Detection{plate(0, 0, 1, 0.2), plate(0, 0, 1, 0.9), plate(0, 0, 1, 0.5)}

	top := Top(dets, 2)
	assert.Len(t, top, 2)
	assert.InDelta(t, 0.9, top[0].Probability, 1e-9)
	assert.InDelta(t, 0.5, top[1].Probability, 1e-9)

	assert.Len(t, Top(dets, 0), 3)
}
