package lpkit

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel is returned when a model code does not map to a Variant
	ErrUnknownModel = errors.New("unknown model code")
	// ErrUnknownDataset is returned when a dataset code does not map to a
	// Dataset
	ErrUnknownDataset = errors.New("unknown dataset code")
)

// Variant identifies the output head of a trained model and therefore how its
// raw output is converted back into license plate vertices
type Variant int

const (
	// VariantWPOD is a WPOD style head predicting an affine transform of a
	// unit square per cell
	VariantWPOD Variant = iota + 1
	// VariantVernexLP predicts the four license plate vertices as offsets from
	// the cell center
	VariantVernexLP
	// VariantVernexLPFR predicts the license plate vertices, the vehicle
	// front/rear vertices and a front/rear class
	VariantVernexLPFR
)

// modelCodes maps the model codes used in configuration files to a Variant
var modelCodes = map[string]Variant{
	"WPOD+WPOD":             VariantWPOD,
	"Hourglass+WPOD":        VariantWPOD,
	"Hourglass+Vernex_lp":   VariantVernexLP,
	"Hourglass+Vernex_lpfr": VariantVernexLPFR,
	"WPOD+vernex_lpfr":      VariantVernexLPFR,
}

// ParseVariant returns the Variant for the given model code
func ParseVariant(modelCode string) (Variant, error) {

	v, ok := modelCodes[modelCode]

	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModel, modelCode)
	}

	return v, nil
}

// HasFrontRear reports if the variant predicts front/rear vertices and class
func (v Variant) HasFrontRear() bool {
	return v == VariantVernexLPFR
}

// KeypointCount is the number of keypoints annotated per image for training
// the variant
func (v Variant) KeypointCount() int {
	if v.HasFrontRear() {
		return 8
	}
	return 4
}

// String returns a readable name of the variant
func (v Variant) String() string {
	switch v {
	case VariantWPOD:
		return "wpod"
	case VariantVernexLP:
		return "vernex-lp"
	case VariantVernexLPFR:
		return "vernex-lpfr"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Dataset identifies how ground truth is encoded for a set of images
type Dataset int

const (
	// DatasetCCPDFR is the CCPD naming scheme extended with front/rear
	// vertices
	DatasetCCPDFR Dataset = iota + 1
	// DatasetVernex encodes plate and front/rear vertices plus the class in
	// the file name
	DatasetVernex
)

// ParseDataset returns the Dataset for the given dataset code
func ParseDataset(code string) (Dataset, error) {
	switch code {
	case "CCPD_FR":
		return DatasetCCPDFR, nil
	case "vernex":
		return DatasetVernex, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDataset, code)
	}
}

// String returns the dataset code
func (d Dataset) String() string {
	switch d {
	case DatasetCCPDFR:
		return "CCPD_FR"
	case DatasetVernex:
		return "vernex"
	default:
		return fmt.Sprintf("dataset(%d)", int(d))
	}
}
