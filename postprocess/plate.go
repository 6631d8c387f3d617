package postprocess

import (
	"sort"

	"github.com/swdee/go-lpkit/geom"
)

// Detection is a license plate found by the model in original image pixel
// coordinates
type Detection struct {
	// Probability is the confidence the cell holds a license plate
	Probability float64
	// LP are the four license plate vertices
	LP geom.Polygon
	// FR are the four vehicle front/rear vertices, front/rear variants only
	FR geom.Polygon
	// FRClass is "front" or "rear", front/rear variants only
	FRClass string
	// ClassProb is the probability of FRClass
	ClassProb float64
}

// HasFrontRear reports if the detection carries front/rear results
func (d Detection) HasFrontRear() bool {
	return len(d.FR) > 0
}

// SortByProbability orders detections from highest to lowest probability,
// detections with equal probability keep their relative order
func SortByProbability(dets []Detection) {
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Probability > dets[j].Probability
	})
}

// Top returns at most n detections with the highest probability.  A value of
// n <= 0 returns all detections.
func Top(dets []Detection, n int) []Detection {

	sorted := append([]Detection(nil), dets...)
	SortByProbability(sorted)

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}
