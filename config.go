package lpkit

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix is the prefix of environment variables overriding configuration
// keys, eg: LPKIT_PREDICT_STRIDE=16 sets predict.stride
const EnvPrefix = "LPKIT_"

// Scale is a model input size
type Scale struct {
	Width  int `koanf:"width"`
	Height int `koanf:"height"`
}

// Point returns the scale as an image.Point
func (s Scale) Point() image.Point {
	return image.Pt(s.Width, s.Height)
}

// BackendConfig selects the inference runtime weights are loaded into
type BackendConfig struct {
	// Kind is either "onnx" or "rknn"
	Kind string `koanf:"kind"`
	// WeightExt is the file extension of weights files to evaluate, other
	// files in the weights folder are skipped
	WeightExt string `koanf:"weightext"`
	// ONNXLibrary is the path to the onnxruntime shared library
	ONNXLibrary string `koanf:"onnxlibrary"`
	// RKNNCore is the NPU core mask passed to the RKNN runtime
	RKNNCore int `koanf:"rknncore"`
}

// PredictConfig are the options of the multi-scale predictor
type PredictConfig struct {
	Scales []Scale `koanf:"scales"`
	// Stride is the ratio between model input size and output feature map
	Stride int `koanf:"stride"`
	// Side scales the vertex offsets predicted per cell
	Side float64 `koanf:"side"`
	// ProbThreshold is the minimum plate probability of a cell to be decoded
	ProbThreshold float64 `koanf:"probthreshold"`
	// InputNorm divides pixel values by 255 before inference
	InputNorm bool `koanf:"inputnorm"`
	// SwapRB feeds the model RGB instead of the BGR order images are read in
	SwapRB bool `koanf:"swaprb"`
	// LetterBox keeps aspect ratio when resizing to a scale
	LetterBox bool `koanf:"letterbox"`
	UseNMS    bool `koanf:"usenms"`
	// NMSThreshold is the IoU above which the lower probability detection is
	// suppressed
	NMSThreshold float64 `koanf:"nmsthreshold"`
	// LPsToFind is the number of plates per image kept for the result
	LPsToFind int `koanf:"lpstofind"`
}

// BenchmarkConfig are the folders used by the benchmark runner
type BenchmarkConfig struct {
	WeightFolder    string `koanf:"weightfolder"`
	ValidDataFolder string `koanf:"validdatafolder"`
	OutputFolder    string `koanf:"outputfolder"`
	InfoFolder      string `koanf:"infofolder"`
	Progress        bool   `koanf:"progress"`
}

// Range is a closed interval random values are sampled from
type Range struct {
	Min float64 `koanf:"min"`
	Max float64 `koanf:"max"`
}

// AugmentConfig are the parameters of the augmentation sequence
type AugmentConfig struct {
	Seed        int64 `koanf:"seed"`
	RandomOrder bool  `koanf:"randomorder"`
	Affine      struct {
		Prob   float64 `koanf:"prob"`
		ScaleX Range   `koanf:"scalex"`
		ScaleY Range   `koanf:"scaley"`
		Shear  Range   `koanf:"shear"`
		Rotate Range   `koanf:"rotate"`
	} `koanf:"affine"`
	Perspective struct {
		Prob     float64 `koanf:"prob"`
		Scale    Range   `koanf:"scale"`
		KeepSize bool    `koanf:"keepsize"`
	} `koanf:"perspective"`
	HueSaturation Range   `koanf:"huesaturation"`
	FlipLR        float64 `koanf:"fliplr"`
	Zoom          Range   `koanf:"zoom"`
	// Fill is the gray level used for pixels outside the source image
	Fill uint8 `koanf:"fill"`
}

// RenderConfig are the options used when drawing results
type RenderConfig struct {
	LineThickness int `koanf:"linethickness"`
	// FontFile is an optional TTF font used for labels
	FontFile string `koanf:"fontfile"`
}

// Config is the complete configuration passed to every component
type Config struct {
	Dataset   string          `koanf:"dataset"`
	Model     string          `koanf:"model"`
	Debug     bool            `koanf:"debug"`
	Backend   BackendConfig   `koanf:"backend"`
	Predict   PredictConfig   `koanf:"predict"`
	Benchmark BenchmarkConfig `koanf:"benchmark"`
	Augment   AugmentConfig   `koanf:"augment"`
	Render    RenderConfig    `koanf:"render"`
}

// defaults are loaded before the config file, they follow the settings the
// models were originally trained and evaluated with
var defaults = map[string]any{
	"dataset":                       "vernex",
	"model":                         "Hourglass+Vernex_lpfr",
	"backend.kind":                  "onnx",
	"backend.weightext":             ".onnx",
	"predict.scales":                []any{map[string]any{"width": 256, "height": 256}},
	"predict.stride":                4,
	"predict.side":                  3.5,
	"predict.probthreshold":         0.5,
	"predict.inputnorm":             true,
	"predict.lpstofind":             3,
	"benchmark.progress":            true,
	"augment.randomorder":           true,
	"augment.affine.prob":           0.5,
	"augment.affine.scalex.min":     0.5,
	"augment.affine.scalex.max":     1.0,
	"augment.affine.scaley.min":     0.5,
	"augment.affine.scaley.max":     1.0,
	"augment.affine.shear.min":      -60,
	"augment.affine.shear.max":      60,
	"augment.affine.rotate.min":     -25,
	"augment.affine.rotate.max":     25,
	"augment.perspective.prob":      0.5,
	"augment.perspective.scale.min": 0.05,
	"augment.perspective.scale.max": 0.1,
	"augment.huesaturation.min":     -50,
	"augment.huesaturation.max":     50,
	"augment.fliplr":                0.5,
	"augment.zoom.min":              0.2,
	"augment.zoom.max":              1.0,
	"augment.fill":                  255,
	"render.linethickness":          2,
}

// Load reads the configuration from defaults, the YAML file at path (when
// path is not empty) and LPKIT_ environment variables, in that order
func Load(path string) (Config, error) {

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("error loading default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)

	if err != nil {
		return Config{}, fmt.Errorf("error loading config from environment: %w", err)
	}

	var cfg Config

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values no component can work with
func (c Config) Validate() error {

	var errs []error

	if _, err := ParseVariant(c.Model); err != nil {
		errs = append(errs, err)
	}

	if _, err := ParseDataset(c.Dataset); err != nil {
		errs = append(errs, err)
	}

	switch c.Backend.Kind {
	case "onnx", "rknn":
	default:
		errs = append(errs, fmt.Errorf("unknown backend kind %q", c.Backend.Kind))
	}

	if len(c.Predict.Scales) == 0 {
		errs = append(errs, errors.New("predict.scales must list at least one scale"))
	}

	for _, s := range c.Predict.Scales {
		if s.Width <= 0 || s.Height <= 0 {
			errs = append(errs, fmt.Errorf("invalid scale %dx%d", s.Width, s.Height))
		}
	}

	if c.Predict.Stride <= 0 {
		errs = append(errs, fmt.Errorf("predict.stride must be positive, got %d", c.Predict.Stride))
	}

	if c.Predict.UseNMS && c.Predict.NMSThreshold <= 0 {
		errs = append(errs, errors.New("predict.nmsthreshold must be set when predict.usenms is enabled"))
	}

	return errors.Join(errs...)
}

// Variant returns the resolved model variant, the config must be valid
func (c Config) Variant() Variant {
	v, _ := ParseVariant(c.Model)
	return v
}

// DatasetKind returns the resolved dataset, the config must be valid
func (c Config) DatasetKind() Dataset {
	d, _ := ParseDataset(c.Dataset)
	return d
}
