package metrics

import (
	"gonum.org/v1/gonum/stat"
)

// Thresholds returns the IoU thresholds 0.50, 0.55 ... 0.95 COCO mAP is
// averaged over
func Thresholds() []float64 {

	out := make([]float64, 10)

	for i := range out {
		out[i] = float64(50+5*i) / 100
	}

	return out
}

// Summary is the benchmark result of a single weight
type Summary struct {
	// MAP is the mean of PerThreshold
	MAP float64
	// MAP50 and MAP75 are the average precision at IoU 0.5 and 0.75
	MAP50 float64
	MAP75 float64
	// ClassAccuracy and FrontRearIoU are evaluated at IoU 0.5
	ClassAccuracy float64
	FrontRearIoU  float64
	// PerThreshold is the average precision at each of Thresholds
	PerThreshold []float64
}

// COCO evaluates predictions at every threshold of Thresholds
func COCO(preds []Prediction, gts []GroundTruth) Summary {

	var s Summary

	for _, thr := range Thresholds() {
		s.PerThreshold = append(s.PerThreshold, Evaluate(preds, gts, thr, false).AP)
	}

	s.MAP = stat.Mean(s.PerThreshold, nil)

	at50 := Evaluate(preds, gts, 0.5, true)
	s.MAP50 = at50.AP
	s.ClassAccuracy = at50.ClassAccuracy
	s.FrontRearIoU = at50.FrontRearIoU

	s.MAP75 = Evaluate(preds, gts, 0.75, false).AP

	return s
}
