// Package model defines the interface inference backends implement for the
// benchmark runner and the multi-scale predictor, together with the feature
// map returned by the network
package model

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrNotLoaded is returned by Predict when no weights have been loaded
	ErrNotLoaded = errors.New("model weights not loaded")
	// ErrScaleMismatch is returned when a backend with a fixed input size is
	// asked to predict on a different size
	ErrScaleMismatch = errors.New("input size does not match model")
)

// Model is an inference backend.  Load may be called repeatedly, each call
// releases the previously loaded weights.
type Model interface {
	// Load reads the weights file into the backend
	Load(weightFile string) error
	// Predict runs inference on a single float32, 3 channel image in HWC
	// layout and returns the first output of the network
	Predict(input gocv.Mat) (FeatureMap, error)
	// Close releases the loaded weights and runtime resources
	Close() error
}

// FeatureMap is a network output of Height x Width cells holding Channels
// values each, stored in HWC order
type FeatureMap struct {
	Data     []float32
	Height   int
	Width    int
	Channels int
}

// NewFeatureMap wraps HWC ordered data, returning an error if the data length
// does not match the dimensions
func NewFeatureMap(data []float32, height, width, channels int) (FeatureMap, error) {

	if len(data) != height*width*channels {
		return FeatureMap{}, fmt.Errorf("feature map data length %d does not match %dx%dx%d",
			len(data), height, width, channels)
	}

	return FeatureMap{Data: data, Height: height, Width: width, Channels: channels}, nil
}

// NewFeatureMapCHW converts CHW ordered data into a FeatureMap
func NewFeatureMapCHW(data []float32, channels, height, width int) (FeatureMap, error) {

	if len(data) != height*width*channels {
		return FeatureMap{}, fmt.Errorf("feature map data length %d does not match %dx%dx%d",
			len(data), channels, height, width)
	}

	hwc := make([]float32, len(data))
	plane := height * width

	for c := 0; c < channels; c++ {
		for i := 0; i < plane; i++ {
			hwc[i*channels+c] = data[c*plane+i]
		}
	}

	return FeatureMap{Data: hwc, Height: height, Width: width, Channels: channels}, nil
}

// Cell returns the channel values of the cell at row y, column x
func (f FeatureMap) Cell(y, x int) []float32 {
	off := (y*f.Width + x) * f.Channels
	return f.Data[off : off+f.Channels]
}
