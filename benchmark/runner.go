// Package benchmark evaluates every weight file of a folder against a
// validation set, writing per image results and a metrics report per weight
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/dataset"
	"github.com/swdee/go-lpkit/metrics"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/postprocess"
	"github.com/swdee/go-lpkit/postprocess/result"
	"github.com/swdee/go-lpkit/predict"
	"github.com/swdee/go-lpkit/render"
)

// State is the evaluation state of a weight file
type State int

const (
	Pending State = iota
	Skipped
	Evaluating
	Reported
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Skipped:
		return "skipped"
	case Evaluating:
		return "evaluating"
	case Reported:
		return "reported"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of evaluating a single weight file
type Outcome struct {
	Weight string
	State  State
	// Images is the number of validation images processed
	Images int
	// Inference is the time spent inside the model
	Inference time.Duration
	Summary   metrics.Summary
	// Report is the path of the report file, set once Reported
	Report string
}

// Params are the folders and options of a benchmark run
type Params struct {
	WeightFolder    string
	ValidDataFolder string
	// OutputFolder receives the rendered images and result JSON files
	OutputFolder string
	// InfoFolder receives the per weight reports
	InfoFolder string
	// WeightExt is the extension of weight files, other files are skipped
	WeightExt string
	// LPsToFind is the number of most probable plates kept per image, zero
	// keeps all
	LPsToFind     int
	Progress      bool
	LineThickness int
}

// NewParams builds runner parameters from configuration
func NewParams(cfg lpkit.Config) Params {
	return Params{
		WeightFolder:    cfg.Benchmark.WeightFolder,
		ValidDataFolder: cfg.Benchmark.ValidDataFolder,
		OutputFolder:    cfg.Benchmark.OutputFolder,
		InfoFolder:      cfg.Benchmark.InfoFolder,
		WeightExt:       cfg.Backend.WeightExt,
		LPsToFind:       cfg.Predict.LPsToFind,
		Progress:        cfg.Benchmark.Progress,
		LineThickness:   cfg.Render.LineThickness,
	}
}

// Runner evaluates weights one at a time, loading each into the same model
type Runner struct {
	model     model.Model
	predictor *predict.Predictor
	parser    dataset.Parser
	labeler   render.Labeler
	params    Params
	log       *zap.Logger
	// Out receives the console messages of a run
	Out io.Writer
}

// NewRunner returns a runner predicting with predictor, which must wrap m
func NewRunner(m model.Model, predictor *predict.Predictor, parser dataset.Parser,
	labeler render.Labeler, p Params, log *zap.Logger) *Runner {

	return &Runner{
		model:     m,
		predictor: predictor,
		parser:    parser,
		labeler:   labeler,
		params:    p,
		log:       log,
		Out:       os.Stdout,
	}
}

// Run evaluates every weight file in the weights folder in name order.  The
// context is checked between weights and images.
func (r *Runner) Run(ctx context.Context) ([]Outcome, error) {

	entries, err := os.ReadDir(r.params.WeightFolder)

	if err != nil {
		return nil, fmt.Errorf("error reading weights folder: %w", err)
	}

	outcomes := make([]Outcome, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		out, err := r.Evaluate(ctx, e.Name())

		if err != nil {
			return outcomes, fmt.Errorf("error evaluating %s: %w", e.Name(), err)
		}

		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

// Evaluate benchmarks a single weight file of the weights folder.  Weights
// with another extension or an existing report are skipped without being
// loaded.
func (r *Runner) Evaluate(ctx context.Context, weightName string) (Outcome, error) {

	out := Outcome{Weight: weightName, State: Pending}

	if filepath.Ext(weightName) != r.params.WeightExt {
		fmt.Fprintln(r.Out, weightName, "skipped")
		r.log.Info("weight skipped", zap.String("weight", weightName),
			zap.String("reason", "extension"))
		out.State = Skipped
		return out, nil
	}

	reportPath := ReportPath(r.params.InfoFolder, weightName)

	if _, err := os.Stat(reportPath); err == nil {
		fmt.Fprintln(r.Out, filepath.Base(reportPath), "existed already, skipped")
		r.log.Info("weight skipped", zap.String("weight", weightName),
			zap.String("reason", "report exists"))
		out.State = Skipped
		return out, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return out, fmt.Errorf("error checking report: %w", err)
	}

	out.State = Evaluating

	fmt.Fprintln(r.Out, "loading weight:", weightName)

	if err := r.model.Load(filepath.Join(r.params.WeightFolder, weightName)); err != nil {
		return out, fmt.Errorf("error loading weight: %w", err)
	}

	for _, dir := range []string{r.params.OutputFolder, r.params.InfoFolder} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return out, fmt.Errorf("error creating folder: %w", err)
		}
	}

	images, err := dataset.ReadImages(r.params.ValidDataFolder)

	if err != nil {
		return out, err
	}

	fmt.Fprintln(r.Out, "processing benchmark image results ...")

	var bar *progressbar.ProgressBar

	if r.params.Progress {
		bar = progressbar.NewOptions(len(images),
			progressbar.OptionSetWriter(r.Out),
			progressbar.OptionSetWidth(15),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription(weightName),
		)
	}

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		took, err := r.processImage(img)

		if err != nil {
			return out, err
		}

		out.Inference += took
		out.Images++

		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(r.Out)
	}

	fmt.Fprintf(r.Out, "processing, %d images, spend:%.3f seconds\n",
		out.Images, out.Inference.Seconds())

	preds, gts, err := metrics.Collect(images, r.params.OutputFolder, r.parser)

	if err != nil {
		return out, err
	}

	out.Summary = metrics.COCO(preds, gts)
	printSummary(r.Out, out.Summary)

	if err := WriteReport(reportPath, out.Summary); err != nil {
		return out, err
	}

	out.State = Reported
	out.Report = reportPath

	r.log.Info("weight reported",
		zap.String("weight", weightName),
		zap.Int("images", out.Images),
		zap.Duration("inference", out.Inference),
		zap.Float64("map", out.Summary.MAP),
		zap.Float64("map50", out.Summary.MAP50),
		zap.Float64("map75", out.Summary.MAP75),
	)

	return out, nil
}

// processImage predicts the plates of an image, draws them and writes the
// rendered image and result file to the output folder
func (r *Runner) processImage(imgPath string) (time.Duration, error) {

	img := gocv.IMRead(imgPath, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return 0, fmt.Errorf("error reading image %s", imgPath)
	}

	dets, took, err := r.predictor.PredictMat(img)

	if err != nil {
		return took, fmt.Errorf("error predicting %s: %w", imgPath, err)
	}

	dets = postprocess.Top(dets, r.params.LPsToFind)

	r.log.Debug("image predicted", zap.String("image", imgPath),
		zap.Int("plates", len(dets)), zap.Duration("inference", took))

	if err := render.Detections(&img, dets, r.labeler, r.params.LineThickness); err != nil {
		return took, fmt.Errorf("error rendering %s: %w", imgPath, err)
	}

	if err := result.Write(result.Path(r.params.OutputFolder, imgPath), result.FromDetections(dets)); err != nil {
		return took, err
	}

	base := filepath.Base(imgPath)
	outPath := filepath.Join(r.params.OutputFolder, strings.TrimSuffix(base, filepath.Ext(base))+".jpg")

	if !gocv.IMWrite(outPath, img) {
		return took, fmt.Errorf("error writing image %s", outPath)
	}

	return took, nil
}
