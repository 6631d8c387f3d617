package metrics

import (
	"fmt"

	"github.com/swdee/go-lpkit/dataset"
	"github.com/swdee/go-lpkit/postprocess/result"
)

// Collect reads the result file written to folder for every image along with
// the ground truth parsed from the image, images are identified by their
// index
func Collect(images []string, folder string, parser dataset.Parser) ([]Prediction, []GroundTruth, error) {

	var (
		preds []Prediction
		gts   []GroundTruth
	)

	for id, img := range images {

		anns, err := parser.Parse(img)

		if err != nil {
			return nil, nil, fmt.Errorf("error reading ground truth: %w", err)
		}

		for _, a := range anns {
			gts = append(gts, GroundTruth{ImageID: id, LP: a.LP, FR: a.FR, FRClass: a.FRClass})
		}

		f, err := result.Read(result.Path(folder, img))

		if err != nil {
			return nil, nil, err
		}

		for _, d := range f.Detections() {
			preds = append(preds, Prediction{
				ImageID:     id,
				Probability: d.Probability,
				LP:          d.LP,
				FR:          d.FR,
				FRClass:     d.FRClass,
			})
		}
	}

	return preds, gts, nil
}
