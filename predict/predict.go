// Package predict runs a plate detection model over an image pyramid and
// returns the detections of every scale in original image coordinates
package predict

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/postprocess"
	"github.com/swdee/go-lpkit/preprocess"
)

// Params defines the parameters of the multi-scale predictor
type Params struct {
	// Scales are the model input sizes the image is resized to
	Scales []image.Point
	// InputNorm divides pixel values by 255
	InputNorm bool
	// SwapRB converts the BGR image to RGB before inference
	SwapRB bool
	// Mode is the resize strategy
	Mode preprocess.Mode
	// UseNMS enables suppression of overlapping detections across scales
	UseNMS bool
	// NMSThreshold is the overlap above which detections are suppressed
	NMSThreshold float64
	// Overlap is the NMS overlap measure, nil uses postprocess.PlateIoU
	Overlap postprocess.OverlapFunc
}

// NewParams builds predictor parameters from configuration
func NewParams(cfg lpkit.PredictConfig) Params {

	p := Params{
		InputNorm:    cfg.InputNorm,
		SwapRB:       cfg.SwapRB,
		UseNMS:       cfg.UseNMS,
		NMSThreshold: cfg.NMSThreshold,
	}

	for _, s := range cfg.Scales {
		p.Scales = append(p.Scales, s.Point())
	}

	if cfg.LetterBox {
		p.Mode = preprocess.LetterBox
	}

	return p
}

// letterBoxPad is the border color of letterbox resized images
var letterBoxPad = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// Predictor runs a model over every configured scale of an image
type Predictor struct {
	model   model.Model
	decoder postprocess.Decoder
	params  Params
}

// NewPredictor returns a predictor for the model whose output is decoded by
// decoder
func NewPredictor(m model.Model, decoder postprocess.Decoder, p Params) (*Predictor, error) {

	if len(p.Scales) == 0 {
		return nil, errors.New("at least one scale is required")
	}

	if p.UseNMS && p.NMSThreshold <= 0 {
		return nil, errors.New("NMS threshold must be set when NMS is enabled")
	}

	return &Predictor{
		model:   m,
		decoder: decoder,
		params:  p,
	}, nil
}

// Predict reads the image file and returns its detections along with the
// time spent in model inference
func (p *Predictor) Predict(imgPath string) ([]postprocess.Detection, time.Duration, error) {

	img := gocv.IMRead(imgPath, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return nil, 0, fmt.Errorf("error reading image %s", imgPath)
	}

	return p.PredictMat(img)
}

// PredictMat returns the detections of a BGR image across all scales.
// Detections are in img pixel coordinates, ordered by probability and
// suppressed with NMS when enabled.
func (p *Predictor) PredictMat(img gocv.Mat) ([]postprocess.Detection, time.Duration, error) {

	var (
		all     []postprocess.Detection
		elapsed time.Duration
	)

	for _, scale := range p.params.Scales {

		dets, took, err := p.predictScale(img, scale)
		elapsed += took

		if err != nil {
			return nil, elapsed, fmt.Errorf("error predicting at scale %dx%d: %w",
				scale.X, scale.Y, err)
		}

		all = append(all, dets...)
	}

	if p.params.UseNMS {
		return postprocess.NMS(all, p.params.NMSThreshold, p.params.Overlap), elapsed, nil
	}

	postprocess.SortByProbability(all)

	return all, elapsed, nil
}

// predictScale runs inference on img resized to scale, only the call into
// the model is timed
func (p *Predictor) predictScale(img gocv.Mat, scale image.Point) ([]postprocess.Detection, time.Duration, error) {

	resizer := preprocess.NewResizer(img.Cols(), img.Rows(), scale.X, scale.Y, p.params.Mode)
	defer resizer.Close()

	resized := gocv.NewMat()
	defer resized.Close()

	resizer.Resize(img, &resized, letterBoxPad)

	tensor := preprocess.ToTensor(resized, p.params.InputNorm, p.params.SwapRB)
	defer tensor.Close()

	start := time.Now()
	fm, err := p.model.Predict(tensor)
	took := time.Since(start)

	if err != nil {
		return nil, took, err
	}

	dets, err := p.decoder.Decode(fm, resizer)

	if err != nil {
		return nil, took, fmt.Errorf("error decoding output: %w", err)
	}

	return dets, took, nil
}
