// Package metrics computes COCO style average precision of license plate
// detections along with front/rear classification accuracy
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/swdee/go-lpkit/geom"
)

// recallPoints is the number of recall levels precision is interpolated at
const recallPoints = 101

// Prediction is a detection made on the image ImageID
type Prediction struct {
	ImageID     int
	Probability float64
	LP          geom.Polygon
	FR          geom.Polygon
	FRClass     string
}

// GroundTruth is an annotated plate of the image ImageID
type GroundTruth struct {
	ImageID int
	LP      geom.Polygon
	FR      geom.Polygon
	FRClass string
}

// Result is the evaluation at a single IoU threshold
type Result struct {
	// AP is the 101 point interpolated average precision
	AP float64
	// TruePositives is the number of predictions matched to a ground truth
	TruePositives int
	// ClassAccuracy is the fraction of true positives with the correct
	// front/rear class, only computed when classification is requested
	ClassAccuracy float64
	// FrontRearIoU is the mean IoU between predicted and annotated front/rear
	// polygons of the true positives, only computed when classification is
	// requested
	FrontRearIoU float64
}

// Evaluate matches predictions to ground truth at the IoU threshold and
// returns the average precision.  Predictions are visited from highest to
// lowest probability, each is matched to the unmatched ground truth of its
// image it overlaps most.  When classify is set the front/rear class and
// polygon of every true positive are compared with its ground truth.
func Evaluate(preds []Prediction, gts []GroundTruth, threshold float64, classify bool) Result {

	var res Result

	if len(gts) == 0 {
		return res
	}

	byImage := make(map[int][]int)

	for i, gt := range gts {
		byImage[gt.ImageID] = append(byImage[gt.ImageID], i)
	}

	order := make([]int, len(preds))

	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return preds[order[a]].Probability > preds[order[b]].Probability
	})

	matched := make([]bool, len(gts))
	precision := make([]float64, len(order))
	recall := make([]float64, len(order))

	var (
		tp, correct int
		frIoU       []float64
	)

	for n, pi := range order {
		pred := preds[pi]
		best, bestIoU := -1, threshold

		for _, gi := range byImage[pred.ImageID] {
			if matched[gi] {
				continue
			}

			if iou := geom.IoU(pred.LP, gts[gi].LP); iou >= bestIoU {
				best, bestIoU = gi, iou
			}
		}

		if best >= 0 {
			matched[best] = true
			tp++

			if classify {
				if pred.FRClass == gts[best].FRClass {
					correct++
				}

				frIoU = append(frIoU, geom.IoU(pred.FR, gts[best].FR))
			}
		}

		precision[n] = float64(tp) / float64(n+1)
		recall[n] = float64(tp) / float64(len(gts))
	}

	res.AP = interpolatedAP(precision, recall)
	res.TruePositives = tp

	if classify && tp > 0 {
		res.ClassAccuracy = float64(correct) / float64(tp)
		res.FrontRearIoU = stat.Mean(frIoU, nil)
	}

	return res
}

// interpolatedAP averages the precision envelope over evenly spaced recall
// levels 0, 0.01 ... 1
func interpolatedAP(precision, recall []float64) float64 {

	if len(precision) == 0 {
		return 0
	}

	envelope := append([]float64(nil), precision...)

	for i := len(envelope) - 2; i >= 0; i-- {
		if envelope[i+1] > envelope[i] {
			envelope[i] = envelope[i+1]
		}
	}

	sum := 0.0

	for i := 0; i < recallPoints; i++ {
		r := float64(i) / float64(recallPoints-1)
		idx := sort.SearchFloat64s(recall, r)

		if idx < len(envelope) {
			sum += envelope[idx]
		}
	}

	return sum / recallPoints
}
