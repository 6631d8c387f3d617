package preprocess

import (
	"gocv.io/x/gocv"
)

// ToTensor converts an 8 bit, 3 channel image to the float32 Mat fed to the
// model.  When norm is set pixel values are divided by 255.  When swapRB is
// set the BGR channel order gocv reads images in is converted to RGB.
func ToTensor(src gocv.Mat, norm bool, swapRB bool) gocv.Mat {

	alpha := float32(1)

	if norm {
		alpha = 1.0 / 255.0
	}

	in := src

	if swapRB {
		rgb := gocv.NewMat()
		defer rgb.Close()
		gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)
		in = rgb
	}

	dst := gocv.NewMat()
	in.ConvertToWithParams(&dst, gocv.MatTypeCV32FC3, alpha, 0)

	return dst
}
