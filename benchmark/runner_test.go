package benchmark

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// plateModel is a fake Vernex LPFR network with stride 16 that activates
// cell (1,1) with offsets reproducing the ground truth of plateImage
type plateModel struct {
	loads []string
}

func (p *plateModel) Load(weightFile string) error {
	p.loads = append(p.loads, filepath.Base(weightFile))
	return nil
}

func (p *plateModel) Predict(input gocv.Mat) (model.FeatureMap, error) {

	rows, cols := input.Rows()/16, input.Cols()/16
	fm, err := model.NewFeatureMap(make([]float32, rows*cols*20), rows, cols, 20)

	if err != nil {
		return fm, err
	}

	copy(fm.Cell(1, 1), []float32{
		0.95, 0.05,
		// plate 16..32
		-0.5, -0.5, 0.5, -0.5, 0.5, 0.5, -0.5, 0.5,
		// front/rear 8..40
		-1, -1, 1, -1, 1, 1, -1, 1,
		// front, rear logits
		3, 0,
	})

	return fm, nil
}

func (p *plateModel) Close() error { return nil }

// plateImage names the ground truth plate 16..32 and front 8..40, vertices
// listed counter clockwise from the bottom right
const plateImage = "32&32_16&32_16&16_32&16_40&40_8&40_8&8_40&8_front.jpg"

type fixture struct {
	params Params
	model  *plateModel
	out    *bytes.Buffer
	runner *Runner
}

func newFixture(t *testing.T, weights ...string) *fixture {

	root := t.TempDir()

	p := Params{
		WeightFolder:    filepath.Join(root, "weights"),
		ValidDataFolder: filepath.Join(root, "valid"),
		OutputFolder:    filepath.Join(root, "output"),
		InfoFolder:      filepath.Join(root, "info"),
		WeightExt:       ".h5",
		LPsToFind:       3,
		LineThickness:   1,
	}

	for _, dir := range []string{p.WeightFolder, p.ValidDataFolder, p.InfoFolder} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	for _, w := range weights {
		require.NoError(t, os.WriteFile(filepath.Join(p.WeightFolder, w), []byte("weights"), 0o644))
	}

	img := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC3)
	defer img.Close()
	require.True(t, gocv.IMWrite(filepath.Join(p.ValidDataFolder, plateImage), img))

	fake := &plateModel{}

	dec, err := postprocess.NewDecoder(lpkit.VariantVernexLPFR,
		postprocess.Params{Stride: 16, ProbThreshold: 0.5, Side: 1})
	require.NoError(t, err)

	pred, err := predict.NewPredictor(fake, dec, predict.Params{
		Scales:    []image.Point{image.Pt(64, 64)},
		InputNorm: true,
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := NewRunner(fake, pred, dataset.VernexParser{}, render.DefaultFont(), p, zap.NewNop())
	r.Out = out

	return &fixture{params: p, model: fake, out: out, runner: r}
}

func TestSkipExistingReportNeverLoads(t *testing.T) {

	f := newFixture(t, "w1.h5")
	require.NoError(t, os.WriteFile(filepath.Join(f.params.InfoFolder, "w1.txt"), []byte("done"), 0o644))

	outcomes, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, Skipped, outcomes[0].State)
	assert.Contains(t, f.out.String(), "w1.txt existed already, skipped")
	assert.Empty(t, f.model.loads)

	data, err := os.ReadFile(filepath.Join(f.params.InfoFolder, "w1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
}

func TestSkipOtherExtension(t *testing.T) {

	f := newFixture(t, "notes.md")

	outcomes, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, Skipped, outcomes[0].State)
	assert.Contains(t, f.out.String(), "notes.md skipped")
	assert.Empty(t, f.model.loads)
}

func TestEvaluatePerfectPrediction(t *testing.T) {

	f := newFixture(t, "w1.h5")

	outcomes, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	out := outcomes[0]

	assert.Equal(t, Reported, out.State)
	assert.Equal(t, 1, out.Images)
	assert.Equal(t, []string{"w1.h5"}, f.model.loads)
	assert.Equal(t, ReportPath(f.params.InfoFolder, "w1.h5"), out.Report)

	report, err := os.ReadFile(out.Report)
	require.NoError(t, err)
	assert.Equal(t, "COCO mAP:100.0\nCOCO mAP50:100.0\nCOCO mAP75:100.0\n"+
		"classification accuracy:100.0\naverage iou for front-rear:100.0\n", string(report))

	assert.Contains(t, f.out.String(), "processing, 1 images, spend:")

	res, err := result.Read(result.Path(f.params.OutputFolder, plateImage))
	require.NoError(t, err)
	require.Len(t, res.LPs, 1)
	assert.Equal(t, [][2]float64{{16, 16}, {32, 16}, {32, 32}, {16, 32}}, res.LPs[0].LP)
	assert.Equal(t, dataset.ClassFront, res.LPs[0].FRClass)

	rendered := gocv.IMRead(filepath.Join(f.params.OutputFolder,
		"32&32_16&32_16&16_32&16_40&40_8&40_8&8_40&8_front.jpg"), gocv.IMReadColor)
	defer rendered.Close()
	assert.False(t, rendered.Empty())
}

func TestRerunIsIdempotent(t *testing.T) {

	f := newFixture(t, "w1.h5", "w2.h5")

	_, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"w1.h5", "w2.h5"}, f.model.loads)

	before, err := os.ReadDir(f.params.InfoFolder)
	require.NoError(t, err)

	outcomes, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	for _, o := range outcomes {
		assert.Equal(t, Skipped, o.State)
	}

	after, err := os.ReadDir(f.params.InfoFolder)
	require.NoError(t, err)

	assert.Len(t, after, len(before))
	assert.Equal(t, []string{"w1.h5", "w2.h5"}, f.model.loads)
}

func TestRunCancelled(t *testing.T) {

	f := newFixture(t, "w1.h5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.model.loads)
}

func TestRunMissingWeightsFolder(t *testing.T) {

	f := newFixture(t)
	f.runner.params.WeightFolder = filepath.Join(t.TempDir(), "missing")

	_, err := f.runner.Run(context.Background())
	assert.Error(t, err)
}

func TestWriteReportNeverOverwrites(t *testing.T) {

	path := filepath.Join(t.TempDir(), "w.txt")
	s := metrics.Summary{MAP: 0.5, MAP50: 0.75, MAP75: 0.25, ClassAccuracy: 0.9, FrontRearIoU: 0.8}

	require.NoError(t, WriteReport(path, s))
	assert.Error(t, WriteReport(path, metrics.Summary{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "COCO mAP:50.0\nCOCO mAP50:75.0\nCOCO mAP75:25.0\n"+
		"classification accuracy:90.0\naverage iou for front-rear:80.0\n", string(data))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "evaluating", Evaluating.String())
	assert.Equal(t, "reported", Reported.String())
}
