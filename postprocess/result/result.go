// Package result reads and writes the per image JSON files holding the
// plates found by a model, the files are the input of the mAP evaluation
package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swdee/go-lpkit/geom"
	"github.com/swdee/go-lpkit/postprocess"
)

// Suffix is appended to the image basename to name its result file
const Suffix = "_result.json"

// Plate is a single detection as serialized to JSON
type Plate struct {
	Prob      float64      `json:"lp_prob"`
	LP        [][2]float64 `json:"vertices_lp"`
	FR        [][2]float64 `json:"vertices_fr,omitempty"`
	FRClass   string       `json:"fr_class,omitempty"`
	ClassProb float64      `json:"class_prob,omitempty"`
}

// File is the content of a result file
type File struct {
	LPs []Plate `json:"lps"`
}

// FromDetections converts detections to their serialized form, vertices are
// rearranged into clockwise order starting at the top left
func FromDetections(dets []postprocess.Detection) File {

	f := File{LPs: make([]Plate, 0, len(dets))}

	for _, d := range dets {
		p := Plate{
			Prob: d.Probability,
			LP:   geom.Rearrange(d.LP).Pairs(),
		}

		if d.HasFrontRear() {
			p.FR = geom.Rearrange(d.FR).Pairs()
			p.FRClass = d.FRClass
			p.ClassProb = d.ClassProb
		}

		f.LPs = append(f.LPs, p)
	}

	return f
}

// Detections converts the file content back into detections
func (f File) Detections() []postprocess.Detection {

	dets := make([]postprocess.Detection, 0, len(f.LPs))

	for _, p := range f.LPs {
		d := postprocess.Detection{
			Probability: p.Prob,
			LP:          geom.FromPairs(p.LP),
			FRClass:     p.FRClass,
			ClassProb:   p.ClassProb,
		}

		if len(p.FR) > 0 {
			d.FR = geom.FromPairs(p.FR)
		}

		dets = append(dets, d)
	}

	return dets
}

// Path returns the result file of the image in folder
func Path(folder, imgPath string) string {
	base := filepath.Base(imgPath)
	return filepath.Join(folder, strings.TrimSuffix(base, filepath.Ext(base))+Suffix)
}

// Write saves the file at path replacing any existing content
func Write(path string, f File) error {

	data, err := json.MarshalIndent(f, "", "  ")

	if err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing result %s: %w", path, err)
	}

	return nil
}

// Read loads the result file at path
func Read(path string) (File, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return File{}, fmt.Errorf("error reading result %s: %w", path, err)
	}

	var f File

	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("error decoding result %s: %w", path, err)
	}

	return f, nil
}
