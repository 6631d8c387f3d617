package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/geom"
)

func TestVernexParser(t *testing.T) {

	name := "/data/vernex/717&482_527&482_527&421_717&421_958&555_255&555_255&186_958&186_front.jpg"

	anns, err := VernexParser{}.Parse(name)
	require.NoError(t, err)
	require.Len(t, anns, 1)

	ann := anns[0]
	assert.Equal(t, geom.Polygon{geom.Pt(717, 482), geom.Pt(527, 482), geom.Pt(527, 421), geom.Pt(717, 421)}, ann.LP)
	assert.Equal(t, geom.Polygon{geom.Pt(958, 555), geom.Pt(255, 555), geom.Pt(255, 186), geom.Pt(958, 186)}, ann.FR)
	assert.Equal(t, ClassFront, ann.FRClass)

	kp, err := ann.Keypoints(lpkit.VariantVernexLPFR)
	require.NoError(t, err)
	assert.Len(t, kp, 8)

	kp, err = ann.Keypoints(lpkit.VariantVernexLP)
	require.NoError(t, err)
	assert.Len(t, kp, 4)
}

func TestVernexParserErrors(t *testing.T) {

	names := []string{
		"1&2_3&4.jpg",
		"717&482_527&482_527&421_717&421_958&555_255&555_255&186_958&186_side.jpg",
		"717-482_527&482_527&421_717&421_958&555_255&555_255&186_958&186_rear.jpg",
	}

	for _, name := range names {
		_, err := VernexParser{}.Parse(name)
		assert.ErrorIs(t, err, ErrBadFilename, name)
	}
}

func TestCCPDFRParser(t *testing.T) {

	// plate vertices only, front/rear in an eighth field
	name := "025-95_113-154&383_386&473-386&473_177&454_154&383_363&402-0_0_22_27_27_33_16-37-15-500&600_100&600_100&200_500&200.jpg"

	anns, err := CCPDFRParser{}.Parse(name)
	require.NoError(t, err)
	require.Len(t, anns, 1)

	assert.Equal(t, geom.Pt(386, 473), anns[0].LP[0])
	assert.Equal(t, geom.Pt(100, 200), anns[0].FR[2])
	assert.Empty(t, anns[0].FRClass)
}

func TestCCPDFRParserFrontRearClass(t *testing.T) {

	const base = "025-95_113-154&383_386&473-386&473_177&454_154&383_363&402-0_0_22_27_27_33_16-37-15-"

	// class in the eighth field
	anns, err := CCPDFRParser{}.Parse(base + "400&500_100&500_100&300_400&300_front.jpg")
	require.NoError(t, err)

	assert.Equal(t, geom.Pt(400, 500), anns[0].FR[0])
	assert.Equal(t, ClassFront, anns[0].FRClass)

	kp, err := anns[0].Keypoints(lpkit.VariantVernexLPFR)
	require.NoError(t, err)
	assert.Len(t, kp, 8)

	// vertices in the eighth field, class from the sidecar
	dir := t.TempDir()
	img := filepath.Join(dir, base+"400&500_100&500_100&300_400&300.jpg")
	require.NoError(t, os.WriteFile(strings.TrimSuffix(img, ".jpg")+".json",
		[]byte(`{"fr_class": "rear"}`), 0o644))

	anns, err = CCPDFRParser{}.Parse(img)
	require.NoError(t, err)

	assert.Equal(t, geom.Pt(400, 500), anns[0].FR[0])
	assert.Equal(t, ClassRear, anns[0].FRClass)

	bad := []string{
		base + "400&500_100&500_100&300_400&300_side.jpg",
		base + "400&500_100&500_100&300.jpg",
	}

	for _, name := range bad {
		_, err := CCPDFRParser{}.Parse(name)
		assert.ErrorIs(t, err, ErrBadFilename, name)
	}
}

func TestCCPDFRParserSidecarVertexCount(t *testing.T) {

	dir := t.TempDir()
	img := filepath.Join(dir, "025-95_113-154&383_386&473-386&473_177&454_154&383_363&402-0_0_22_27_27_33_16-37-15.jpg")

	require.NoError(t, os.WriteFile(strings.TrimSuffix(img, ".jpg")+".json",
		[]byte(`{"vertices_fr": [[1,2],[3,4],[5,6]], "fr_class": "front"}`), 0o644))

	_, err := CCPDFRParser{}.Parse(img)
	assert.ErrorIs(t, err, ErrBadFilename)
}

func TestCCPDFRParserSidecar(t *testing.T) {

	dir := t.TempDir()
	img := filepath.Join(dir, "025-95_113-154&383_386&473-386&473_177&454_154&383_363&402-0_0_22_27_27_33_16-37-15.jpg")
	side := filepath.Join(dir, "025-95_113-154&383_386&473-386&473_177&454_154&383_363&402-0_0_22_27_27_33_16-37-15.json")

	require.NoError(t, os.WriteFile(side,
		[]byte(`{"vertices_fr": [[1,2],[3,4],[5,6],[7,8]], "fr_class": "rear"}`), 0o644))

	anns, err := CCPDFRParser{}.Parse(img)
	require.NoError(t, err)

	assert.Equal(t, geom.Polygon{geom.Pt(1, 2), geom.Pt(3, 4), geom.Pt(5, 6), geom.Pt(7, 8)}, anns[0].FR)
	assert.Equal(t, ClassRear, anns[0].FRClass)

	// without a sidecar the plate is still returned
	require.NoError(t, os.Remove(side))

	anns, err = CCPDFRParser{}.Parse(img)
	require.NoError(t, err)
	assert.Nil(t, anns[0].FR)

	_, err = anns[0].Keypoints(lpkit.VariantVernexLPFR)
	assert.Error(t, err)
}

func TestReadImages(t *testing.T) {

	dir := t.TempDir()

	for _, name := range []string{"b.jpg", "a.PNG", "notes.txt", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	paths, err := ReadImages(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.PNG"), filepath.Join(dir, "b.jpg")}, paths)

	one, err := ReadImageArg(paths[1])
	require.NoError(t, err)
	assert.Equal(t, paths[1:], one)

	_, err = ReadImages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestNewParser(t *testing.T) {

	p, err := NewParser(lpkit.DatasetVernex)
	require.NoError(t, err)
	assert.IsType(t, VernexParser{}, p)

	_, err = NewParser(lpkit.Dataset(99))
	assert.ErrorIs(t, err, lpkit.ErrUnknownDataset)
}
