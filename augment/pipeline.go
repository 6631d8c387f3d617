package augment

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/dataset"
)

// Pipeline reads images with their ground truth keypoints and augments them
type Pipeline struct {
	seq     *Sequential
	rng     *rand.Rand
	parser  dataset.Parser
	variant lpkit.Variant
	log     *zap.Logger
}

// NewSequence returns the augmentation sequence the detection models are
// trained with
func NewSequence(cfg lpkit.AugmentConfig) *Sequential {
	return &Sequential{
		RandomOrder: cfg.RandomOrder,
		Children: []Augmenter{
			&Sometimes{P: cfg.Affine.Prob, Then: &Affine{
				ScaleX: cfg.Affine.ScaleX,
				ScaleY: cfg.Affine.ScaleY,
				Shear:  cfg.Affine.Shear,
				Rotate: cfg.Affine.Rotate,
				Fill:   cfg.Fill,
			}},
			&Sometimes{P: cfg.Perspective.Prob, Then: &Perspective{
				Scale:    cfg.Perspective.Scale,
				KeepSize: cfg.Perspective.KeepSize,
				Fill:     cfg.Fill,
			}},
			&HueSaturation{Value: cfg.HueSaturation},
			&FlipLR{P: cfg.FlipLR},
			&Affine{
				ScaleX:     cfg.Zoom,
				KeepAspect: true,
				Fill:       cfg.Fill,
			},
		},
	}
}

// NewPipeline returns a pipeline reading ground truth with parser.  A zero
// seed seeds the random source from the clock.
func NewPipeline(cfg lpkit.AugmentConfig, variant lpkit.Variant, parser dataset.Parser,
	log *zap.Logger) *Pipeline {

	seed := uint64(cfg.Seed)

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Pipeline{
		seq:     NewSequence(cfg),
		rng:     rand.New(rand.NewSource(seed)),
		parser:  parser,
		variant: variant,
		log:     log,
	}
}

// WithSequence replaces the augmentation sequence
func (p *Pipeline) WithSequence(seq *Sequential) *Pipeline {
	p.seq = seq
	return p
}

// AugmentBatch reads every image and returns one augmented BGR sample per
// path.  The caller closes the returned samples.
func (p *Pipeline) AugmentBatch(paths []string) ([]*Sample, error) {

	samples := make([]*Sample, 0, len(paths))

	fail := func(err error) ([]*Sample, error) {
		Close(samples)
		return nil, err
	}

	for _, path := range paths {
		s, err := p.load(path)

		if err != nil {
			return fail(err)
		}

		toRGB(s)
		samples = append(samples, s)
	}

	if err := p.seq.AugmentBatch(samples, p.rng); err != nil {
		return fail(fmt.Errorf("error augmenting batch: %w", err))
	}

	for _, s := range samples {
		toBGR(s)

		p.log.Debug("augmented image",
			zap.String("path", s.Path),
			zap.Int("width", s.Image.Cols()),
			zap.Int("height", s.Image.Rows()),
			zap.String("fr_class", s.FRClass),
		)
	}

	return samples, nil
}

// load reads the image and its ground truth keypoints
func (p *Pipeline) load(path string) (*Sample, error) {

	anns, err := p.parser.Parse(path)

	if err != nil {
		return nil, fmt.Errorf("error reading ground truth of %s: %w", path, err)
	}

	if len(anns) == 0 {
		return nil, fmt.Errorf("no annotation for %s", path)
	}

	kp, err := anns[0].Keypoints(p.variant)

	if err != nil {
		return nil, fmt.Errorf("error reading keypoints of %s: %w", path, err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)

	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("error reading image %s", path)
	}

	return &Sample{
		Path:      path,
		Image:     img,
		Keypoints: kp,
		FRClass:   anns[0].FRClass,
	}, nil
}

// Close releases the images of all samples
func Close(samples []*Sample) {
	for _, s := range samples {
		s.Close()
	}
}
