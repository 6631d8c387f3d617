package augment

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit"
)

// hueRange is the OpenCV 8 bit hue range
const hueRange = 180

// HueSaturation adds a random value to the hue and saturation of an RGB
// image.  The value is given on a 0-255 scale and applied to the hue
// proportionally to its 0-180 range, saturation is clipped.
type HueSaturation struct {
	Value lpkit.Range
}

// Augment shifts the hue and saturation, keypoints are unchanged
func (hs *HueSaturation) Augment(s *Sample, rng *rand.Rand) error {

	v := int(math.Round(uniform(rng, hs.Value)))

	if v == 0 {
		return nil
	}

	hsv := gocv.NewMat()
	defer hsv.Close()

	gocv.CvtColor(s.Image, &hsv, gocv.ColorRGBToHSV)

	if err := shiftHueSaturation(hsv, v); err != nil {
		return err
	}

	out := gocv.NewMat()
	gocv.CvtColor(hsv, &out, gocv.ColorHSVToRGB)
	s.replaceImage(out)

	return nil
}

// shiftHueSaturation modifies an 8 bit HSV Mat in place
func shiftHueSaturation(hsv gocv.Mat, v int) error {

	data, err := hsv.DataPtrUint8()

	if err != nil {
		return fmt.Errorf("error accessing HSV data: %w", err)
	}

	hueShift := int(math.Round(float64(v) * hueRange / 255))

	for i := 0; i+2 < len(data); i += 3 {
		h := (int(data[i]) + hueShift) % hueRange

		if h < 0 {
			h += hueRange
		}

		data[i] = uint8(h)
		data[i+1] = clipUint8(int(data[i+1]) + v)
	}

	return nil
}

func clipUint8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// toRGB converts the BGR image read from disk into RGB
func toRGB(s *Sample) {
	out := gocv.NewMat()
	gocv.CvtColor(s.Image, &out, gocv.ColorBGRToRGB)
	s.replaceImage(out)
}

// toBGR converts the augmented RGB image back into BGR for writing
func toBGR(s *Sample) {
	out := gocv.NewMat()
	gocv.CvtColor(s.Image, &out, gocv.ColorRGBToBGR)
	s.replaceImage(out)
}
