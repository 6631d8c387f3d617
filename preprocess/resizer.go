package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit/geom"
)

// Mode is the resize strategy used to fit a source image into the model
// input size
type Mode int

const (
	// Stretch scales width and height independently to the destination size
	Stretch Mode = iota
	// LetterBox keeps aspect ratio and pads the remainder
	LetterBox
)

// Resizer defines the struct used for handling image resizing and mapping
// coordinates in the resized image back onto the source image
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	mode       Mode
	// tempMat is a Mat used during the letterbox resize process
	tempMat gocv.Mat
	// letterbox padding
	xPad int
	yPad int
	// scaling factors from source to destination
	scaleX float64
	scaleY float64
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int, mode Mode) *Resizer {
	r := &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		mode:       mode,
		tempMat:    gocv.NewMat(),
	}

	// precalculate scaling dimensions
	r.preCalc()

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// preCalc the scaling factors for source and destination Mats
func (r *Resizer) preCalc() {

	r.resizeW = r.destWidth
	r.resizeH = r.destHeight

	r.scaleX = float64(r.destWidth) / float64(r.srcWidth)
	r.scaleY = float64(r.destHeight) / float64(r.srcHeight)

	if r.mode == Stretch {
		return
	}

	// letterbox uses the smaller scale on both axis
	if r.scaleX < r.scaleY {
		r.scaleY = r.scaleX
		r.resizeH = int(float64(r.srcHeight) * r.scaleY)
	} else {
		r.scaleX = r.scaleY
		r.resizeW = int(float64(r.srcWidth) * r.scaleX)
	}

	r.yPad = (r.destHeight - r.resizeH) / 2 // padding height / 2
	r.xPad = (r.destWidth - r.resizeW) / 2  // padding width / 2
}

// Resize scales src into dest using the resizer's mode, pad is the color of
// the letterbox border
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat, pad color.RGBA) {

	if r.mode == LetterBox {
		r.LetterBoxResize(src, dest, pad)
		return
	}

	gocv.Resize(src, dest, image.Pt(r.destWidth, r.destHeight), 0, 0,
		gocv.InterpolationLinear)
}

// LetterBoxResize resizes the input image to the dimensions needed for the input
// tensor size whilst maintaining image aspect.  Color is that used for letter
// box padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destHeight-r.resizeH-r.yPad,
		r.xPad, r.destWidth-r.resizeW-r.xPad, gocv.BorderConstant, color)
}

// ToSource maps a point in the resized image back onto the source image
func (r *Resizer) ToSource(p geom.Point) geom.Point {
	return geom.Point{
		X: (p.X - float64(r.xPad)) / r.scaleX,
		Y: (p.Y - float64(r.yPad)) / r.scaleY,
	}
}

// ToDest maps a point in the source image onto the resized image
func (r *Resizer) ToDest(p geom.Point) geom.Point {
	return geom.Point{
		X: p.X*r.scaleX + float64(r.xPad),
		Y: p.Y*r.scaleY + float64(r.yPad),
	}
}

// ScaleX returns the horizontal scale factor from source to destination
func (r *Resizer) ScaleX() float64 {
	return r.scaleX
}

// ScaleY returns the vertical scale factor from source to destination
func (r *Resizer) ScaleY() float64 {
	return r.scaleY
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}
