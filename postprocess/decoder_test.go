package postprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/dataset"
	"github.com/swdee/go-lpkit/geom"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/preprocess"
)

// emptyMap returns a zeroed feature map
func emptyMap(h, w, c int) model.FeatureMap {
	return model.FeatureMap{Data: make([]float32, h*w*c), Height: h, Width: w, Channels: c}
}

func assertPolygon(t *testing.T, expected, actual geom.Polygon) {
	t.Helper()

	require.Len(t, actual, len(expected))

	for i := range expected {
		assert.InDelta(t, expected[i].X, actual[i].X, 1e-6, "vertex %d x", i)
		assert.InDelta(t, expected[i].Y, actual[i].Y, 1e-6, "vertex %d y", i)
	}
}

func TestVernexLPFRDecode(t *testing.T) {

	dec, err := NewDecoder(lpkit.VariantVernexLPFR, Params{Stride: 16, ProbThreshold: 0.5, Side: 1})
	require.NoError(t, err)

	// 64x64 model input of a 128x256 image, scale 0.5 on x and 0.25 on y
	resizer := preprocess.NewResizer(128, 256, 64, 64, preprocess.Stretch)
	defer resizer.Close()

	fm := emptyMap(4, 4, 20)

	cell := fm.Cell(1, 2)
	cell[0] = 0.9
	copy(cell[2:10], []float32{-0.5, -0.5, 0.5, -0.5, 0.5, 0.5, -0.5, 0.5})
	copy(cell[10:18], []float32{-1, -1, 1, -1, 1, 1, -1, 1})
	cell[18], cell[19] = 0, 2

	// exactly on the threshold is not decoded
	fm.Cell(3, 3)[0] = 0.5

	// a stronger detection is returned first
	fm.Cell(0, 0)[0] = 0.95

	dets, err := dec.Decode(fm, resizer)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.InDelta(t, 0.95, dets[0].Probability, 1e-6)

	det := dets[1]
	assert.InDelta(t, 0.9, det.Probability, 1e-6)

	// cell center (2.5, 1.5) * 16 = (40, 24) in the model input
	assertPolygon(t, geom.Polygon{
		geom.Pt(64, 64), geom.Pt(96, 64), geom.Pt(96, 128), geom.Pt(64, 128),
	}, det.LP)

	assertPolygon(t, geom.Polygon{
		geom.Pt(48, 32), geom.Pt(112, 32), geom.Pt(112, 160), geom.Pt(48, 160),
	}, det.FR)

	assert.Equal(t, dataset.ClassRear, det.FRClass)
	assert.InDelta(t, math.Exp(2)/(1+math.Exp(2)), det.ClassProb, 1e-6)
}

func TestVernexLPDecode(t *testing.T) {

	dec, err := NewDecoder(lpkit.VariantVernexLP, Params{Stride: 4, ProbThreshold: 0.3, Side: 2})
	require.NoError(t, err)

	resizer := preprocess.NewResizer(16, 16, 16, 16, preprocess.Stretch)
	defer resizer.Close()

	fm := emptyMap(4, 4, 10)
	cell := fm.Cell(0, 1)
	cell[0] = 0.4
	copy(cell[2:10], []float32{0, 0, 1, 0, 1, 1, 0, 1})

	dets, err := dec.Decode(fm, resizer)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	// center (1.5, 0.5), offsets scaled by side 2 then stride 4
	assertPolygon(t, geom.Polygon{
		geom.Pt(6, 2), geom.Pt(14, 2), geom.Pt(14, 10), geom.Pt(6, 10),
	}, dets[0].LP)
	assert.False(t, dets[0].HasFrontRear())

	// a front/rear map is rejected by the plate only decoder
	_, err = dec.Decode(emptyMap(4, 4, 20), resizer)
	assert.Error(t, err)
}

func TestWPODDecode(t *testing.T) {

	dec, err := NewDecoder(lpkit.VariantWPOD, Params{Stride: 8, ProbThreshold: 0.5, Side: 2})
	require.NoError(t, err)

	resizer := preprocess.NewResizer(64, 64, 32, 32, preprocess.Stretch)
	defer resizer.Close()

	fm := emptyMap(4, 4, 8)

	// identity affine
	cell := fm.Cell(0, 0)
	copy(cell, []float32{0.8, 0.2, 1, 0, 0, 0, 1, 0})

	// negative scale terms are clamped to zero collapsing the plate
	other := fm.Cell(2, 2)
	copy(other, []float32{0.7, 0.3, -1, 0, 0, 0, 1, 0})

	dets, err := dec.Decode(fm, resizer)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	// (-0.5,-0.5)*2 + (0.5,0.5) = (-0.5,-0.5) cells = (-4,-4) px input = (-8,-8) source
	assertPolygon(t, geom.Polygon{
		geom.Pt(-8, -8), geom.Pt(24, -8), geom.Pt(24, 24), geom.Pt(-8, 24),
	}, dets[0].LP)

	assert.InDelta(t, dets[1].LP[0].X, dets[1].LP[1].X, 1e-9)

	_, err = dec.Decode(emptyMap(2, 2, 10), resizer)
	assert.Error(t, err)
}

func TestNewDecoder(t *testing.T) {

	_, err := NewDecoder(lpkit.Variant(0), DefaultParams())
	assert.ErrorIs(t, err, lpkit.ErrUnknownModel)

	_, err = NewDecoder(lpkit.VariantWPOD, Params{})
	assert.Error(t, err)
}
