package lpkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "vernex", cfg.Dataset)
	assert.Equal(t, VariantVernexLPFR, cfg.Variant())
	assert.Equal(t, DatasetVernex, cfg.DatasetKind())
	assert.Equal(t, []Scale{{Width: 256, Height: 256}}, cfg.Predict.Scales)
	assert.Equal(t, 4, cfg.Predict.Stride)
	assert.True(t, cfg.Predict.InputNorm)
	assert.False(t, cfg.Predict.UseNMS)
	assert.Equal(t, uint8(255), cfg.Augment.Fill)
	assert.InDelta(t, -60.0, cfg.Augment.Affine.Shear.Min, 1e-9)
	assert.InDelta(t, 0.5, cfg.Augment.FlipLR, 1e-9)
}

func TestLoadFileAndEnv(t *testing.T) {

	path := writeConfig(t, `
dataset: CCPD_FR
model: Hourglass+WPOD
backend:
  kind: rknn
  weightext: .rknn
predict:
  scales:
    - width: 320
      height: 320
    - width: 512
      height: 384
  usenms: true
  nmsthreshold: 0.3
benchmark:
  weightfolder: /weights
`)

	t.Setenv("LPKIT_PREDICT_STRIDE", "16")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DatasetCCPDFR, cfg.DatasetKind())
	assert.Equal(t, VariantWPOD, cfg.Variant())
	assert.Equal(t, "rknn", cfg.Backend.Kind)
	assert.Equal(t, []Scale{{320, 320}, {512, 384}}, cfg.Predict.Scales)
	assert.Equal(t, 16, cfg.Predict.Stride)
	assert.InDelta(t, 0.3, cfg.Predict.NMSThreshold, 1e-9)
	assert.Equal(t, "/weights", cfg.Benchmark.WeightFolder)
	// untouched keys keep their defaults
	assert.InDelta(t, 3.5, cfg.Predict.Side, 1e-9)
}

func TestValidate(t *testing.T) {

	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(c *Config)
		errIs  error
	}{
		{"unknown model", func(c *Config) { c.Model = "YOLO" }, ErrUnknownModel},
		{"unknown dataset", func(c *Config) { c.Dataset = "coco" }, ErrUnknownDataset},
		{"no scales", func(c *Config) { c.Predict.Scales = nil }, nil},
		{"bad stride", func(c *Config) { c.Predict.Stride = 0 }, nil},
		{"nms without threshold", func(c *Config) { c.Predict.UseNMS = true }, nil},
		{"bad backend", func(c *Config) { c.Backend.Kind = "tflite" }, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.Predict.Scales = append([]Scale(nil), base.Predict.Scales...)
			tc.modify(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			}
		})
	}
}
