/*
lpaug repeatedly augments an annotated image, or every image of a folder, and
writes the results with their augmented plate and front/rear keypoints drawn
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/augment"
	"github.com/swdee/go-lpkit/dataset"
	"github.com/swdee/go-lpkit/logger"
	"github.com/swdee/go-lpkit/render"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	configFile := flag.String("c", "", "YAML configuration file")
	input := flag.String("i", "", "Annotated image file or folder of images to augment")
	outDir := flag.String("o", "aug", "Folder the augmented images are written to")
	rounds := flag.Int("n", 100, "Number of times the input is augmented")
	flag.Parse()

	cfg, err := lpkit.Load(*configFile)

	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	zl := logger.New(cfg.Debug)
	defer zl.Sync()

	paths, err := dataset.ReadImageArg(*input)

	if err != nil {
		zl.Fatal("error reading input", zap.Error(err))
	}

	parser, err := dataset.NewParser(cfg.DatasetKind())

	if err != nil {
		zl.Fatal("error creating parser", zap.Error(err))
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		zl.Fatal("error creating output folder", zap.Error(err))
	}

	pipe := augment.NewPipeline(cfg.Augment, cfg.Variant(), parser, zl)
	n := 0

	for round := 0; round < *rounds; round++ {

		samples, err := pipe.AugmentBatch(paths)

		if err != nil {
			zl.Fatal("error augmenting", zap.Error(err))
		}

		for _, s := range samples {
			render.Keypoints(&s.Image, s.Keypoints, render.PlateColor, cfg.Render.LineThickness)
			fmt.Println(s.FRClass)

			n++
			outFile := filepath.Join(*outDir, fmt.Sprintf("%d.jpg", n))

			if ok := gocv.IMWrite(outFile, s.Image); !ok {
				zl.Fatal("failed to save the image", zap.String("file", outFile))
			}
		}

		augment.Close(samples)
	}

	zl.Info("augmented images written", zap.Int("count", n), zap.String("folder", *outDir))
}
