/*
lpeval benchmarks every weight file of a folder against the validation set,
writing rendered images, per image result JSON and a metrics report per weight
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/benchmark"
	"github.com/swdee/go-lpkit/dataset"
	"github.com/swdee/go-lpkit/logger"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/postprocess"
	"github.com/swdee/go-lpkit/predict"
	"github.com/swdee/go-lpkit/render"
)

// backends creates the model of each configured backend kind
var backends = map[string]func(lpkit.BackendConfig) (model.Model, error){
	"onnx": newONNX,
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	configFile := flag.String("c", "", "YAML configuration file")
	weightFolder := flag.String("w", "", "Folder of weights to evaluate, overrides benchmark.weightfolder")
	flag.Parse()

	cfg, err := lpkit.Load(*configFile)

	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	if *weightFolder != "" {
		cfg.Benchmark.WeightFolder = *weightFolder
	}

	zl := logger.New(cfg.Debug)
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("benchmark failed", zap.Error(err))
	}

	zl.Info("done")
}

func run(ctx context.Context, cfg lpkit.Config, zl *zap.Logger) error {

	newModel, ok := backends[cfg.Backend.Kind]

	if !ok {
		return fmt.Errorf("backend %q not built into this binary", cfg.Backend.Kind)
	}

	m, err := newModel(cfg.Backend)

	if err != nil {
		return err
	}

	defer m.Close()

	parser, err := dataset.NewParser(cfg.DatasetKind())

	if err != nil {
		return err
	}

	dec, err := postprocess.NewDecoder(cfg.Variant(), postprocess.Params{
		Stride:        cfg.Predict.Stride,
		ProbThreshold: cfg.Predict.ProbThreshold,
		Side:          cfg.Predict.Side,
	})

	if err != nil {
		return err
	}

	pred, err := predict.NewPredictor(m, dec, predict.NewParams(cfg.Predict))

	if err != nil {
		return err
	}

	var labeler render.Labeler = render.DefaultFont()

	if cfg.Render.FontFile != "" {
		if labeler, err = render.NewTTFLabeler(cfg.Render.FontFile); err != nil {
			return err
		}
	}

	runner := benchmark.NewRunner(m, pred, parser, labeler, benchmark.NewParams(cfg), zl)

	outcomes, err := runner.Run(ctx)

	for _, o := range outcomes {
		zl.Debug("weight outcome", zap.String("weight", o.Weight), zap.Stringer("state", o.State))
	}

	return err
}
