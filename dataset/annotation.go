// Package dataset reads the ground truth license plate and front/rear
// annotations encoded in the file names (or sidecar files) of the training
// and validation images
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/geom"
)

// ErrBadFilename is returned when the annotation can not be decoded from an
// image file name
var ErrBadFilename = errors.New("malformed annotation file name")

// Front/rear class labels
const (
	ClassFront = "front"
	ClassRear  = "rear"
)

// Annotation is the ground truth of one license plate
type Annotation struct {
	// LP are the four license plate vertices
	LP geom.Polygon
	// FR are the four vertices of the vehicle front or rear, nil when not
	// annotated
	FR geom.Polygon
	// FRClass is ClassFront or ClassRear, empty when not annotated
	FRClass string
}

// Keypoints returns the keypoints used for training the given variant, the
// plate vertices followed by the front/rear vertices for front/rear variants
func (a Annotation) Keypoints(v lpkit.Variant) (geom.Polygon, error) {

	if !v.HasFrontRear() {
		return a.LP.Clone(), nil
	}

	if len(a.FR) != 4 {
		return nil, fmt.Errorf("variant %s requires front/rear vertices", v)
	}

	kp := make(geom.Polygon, 0, 8)
	kp = append(kp, a.LP...)
	kp = append(kp, a.FR...)

	return kp, nil
}

// Parser extracts the annotations of an image from its path
type Parser interface {
	Parse(imgPath string) ([]Annotation, error)
}

// NewParser returns the annotation parser for the dataset
func NewParser(d lpkit.Dataset) (Parser, error) {
	switch d {
	case lpkit.DatasetVernex:
		return VernexParser{}, nil
	case lpkit.DatasetCCPDFR:
		return CCPDFRParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", lpkit.ErrUnknownDataset, d)
	}
}

// stem returns the file name without directory and extension
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parsePoint parses a "x&y" vertex
func parsePoint(s string) (geom.Point, error) {

	xs, ys, ok := strings.Cut(s, "&")

	if !ok {
		return geom.Point{}, fmt.Errorf("%w: vertex %q", ErrBadFilename, s)
	}

	x, err := strconv.ParseFloat(xs, 64)

	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: vertex %q", ErrBadFilename, s)
	}

	y, err := strconv.ParseFloat(ys, 64)

	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: vertex %q", ErrBadFilename, s)
	}

	return geom.Pt(x, y), nil
}

// parsePoints parses a list of "x&y" vertices
func parsePoints(fields []string) (geom.Polygon, error) {

	poly := make(geom.Polygon, len(fields))

	for i, f := range fields {
		pt, err := parsePoint(f)

		if err != nil {
			return nil, err
		}

		poly[i] = pt
	}

	return poly, nil
}

// parseClass validates a front/rear class label
func parseClass(s string) (string, error) {
	switch s {
	case ClassFront, ClassRear:
		return s, nil
	default:
		return "", fmt.Errorf("%w: front/rear class %q", ErrBadFilename, s)
	}
}

// VernexParser reads file names of the form
//
//	x&y_x&y_x&y_x&y_x&y_x&y_x&y_x&y_front.jpg
//
// holding the four plate vertices, the four front/rear vertices and the
// front/rear class
type VernexParser struct{}

// Parse returns the single annotation encoded in the file name
func (VernexParser) Parse(imgPath string) ([]Annotation, error) {

	fields := strings.Split(stem(imgPath), "_")

	if len(fields) != 9 {
		return nil, fmt.Errorf("%w: %s has %d fields, want 9", ErrBadFilename,
			filepath.Base(imgPath), len(fields))
	}

	lp, err := parsePoints(fields[0:4])

	if err != nil {
		return nil, err
	}

	fr, err := parsePoints(fields[4:8])

	if err != nil {
		return nil, err
	}

	class, err := parseClass(fields[8])

	if err != nil {
		return nil, err
	}

	return []Annotation{{LP: lp, FR: fr, FRClass: class}}, nil
}

// CCPDFRParser reads CCPD file names
//
//	area-tilt-x1&y1_x2&y2-x&y_x&y_x&y_x&y-plate-brightness-blur
//
// where the fourth field holds the plate vertices.  The front/rear vertices
// are taken from an optional eighth field of the same vertex format, or from
// a JSON sidecar file next to the image with the same base name.
type CCPDFRParser struct{}

// sidecar is the JSON document holding front/rear annotations
type sidecar struct {
	VerticesFR [][2]float64 `json:"vertices_fr"`
	FRClass    string       `json:"fr_class"`
}

// Parse returns the single annotation encoded in the file name
func (CCPDFRParser) Parse(imgPath string) ([]Annotation, error) {

	fields := strings.Split(stem(imgPath), "-")

	if len(fields) != 7 && len(fields) != 8 {
		return nil, fmt.Errorf("%w: %s has %d fields, want 7 or 8", ErrBadFilename,
			filepath.Base(imgPath), len(fields))
	}

	lp, err := parsePoints(strings.Split(fields[3], "_"))

	if err != nil {
		return nil, err
	}

	if len(lp) != 4 {
		return nil, fmt.Errorf("%w: %d plate vertices", ErrBadFilename, len(lp))
	}

	ann := Annotation{LP: lp}

	if len(fields) == 8 {
		ann.FR, ann.FRClass, err = parseFrontRear(fields[7])

		if err != nil {
			return nil, err
		}
	}

	// the sidecar supplies what the file name does not hold
	if ann.FR != nil && ann.FRClass != "" {
		return []Annotation{ann}, nil
	}

	side, err := readSidecar(imgPath)

	if err != nil {
		return nil, err
	}

	if side != nil {
		if ann.FR == nil && len(side.VerticesFR) > 0 {
			if len(side.VerticesFR) != 4 {
				return nil, fmt.Errorf("%w: sidecar of %s has %d front/rear vertices, want 4",
					ErrBadFilename, filepath.Base(imgPath), len(side.VerticesFR))
			}

			ann.FR = geom.FromPairs(side.VerticesFR)
		}

		if side.FRClass != "" {
			ann.FRClass, err = parseClass(side.FRClass)

			if err != nil {
				return nil, err
			}
		}
	}

	return []Annotation{ann}, nil
}

// parseFrontRear parses the eighth CCPD_FR field, four "x&y" vertices
// optionally followed by the front/rear class
func parseFrontRear(field string) (geom.Polygon, string, error) {

	tokens := strings.Split(field, "_")
	class := ""

	if len(tokens) == 5 {
		c, err := parseClass(tokens[4])

		if err != nil {
			return nil, "", err
		}

		class, tokens = c, tokens[:4]
	}

	if len(tokens) != 4 {
		return nil, "", fmt.Errorf("%w: %d front/rear vertices, want 4", ErrBadFilename, len(tokens))
	}

	fr, err := parsePoints(tokens)

	if err != nil {
		return nil, "", err
	}

	return fr, class, nil
}

// readSidecar loads the JSON sidecar of an image, nil when there is none
func readSidecar(imgPath string) (*sidecar, error) {

	path := strings.TrimSuffix(imgPath, filepath.Ext(imgPath)) + ".json"
	data, err := os.ReadFile(path)

	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("error reading annotation sidecar: %w", err)
	}

	var s sidecar

	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error decoding annotation sidecar %s: %w", path, err)
	}

	return &s, nil
}
