package postprocess

import (
	"github.com/swdee/go-lpkit/geom"
)

// OverlapFunc measures how much two detections overlap, NMS suppresses a
// detection when the overlap with a kept detection exceeds the threshold
type OverlapFunc func(a, b Detection) float64

// PlateIoU is the Intersection over Union of the license plate polygons
func PlateIoU(a, b Detection) float64 {
	return geom.IoU(a.LP, b.LP)
}

// NMS implements a greedy Non-Maximum Suppression.  Detections are visited
// from highest to lowest probability and kept unless they overlap a kept
// detection by more than threshold.  The returned slice is ordered by
// probability and never longer than dets.
func NMS(dets []Detection, threshold float64, overlap OverlapFunc) []Detection {

	if overlap == nil {
		overlap = PlateIoU
	}

	order := append([]Detection(nil), dets...)
	SortByProbability(order)

	keep := make([]Detection, 0, len(order))

next:
	for _, d := range order {
		for _, k := range keep {
			if overlap(k, d) > threshold {
				continue next
			}
		}

		keep = append(keep, d)
	}

	return keep
}
