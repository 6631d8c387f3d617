package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Labeler draws a text label on a filled background box whose bottom left
// corner is at anchor
type Labeler interface {
	Label(img *gocv.Mat, text string, anchor image.Point, bg color.RGBA) error
}

// Font defines the parameters for rendering text on an image using the
// Hershey fonts built into OpenCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	Pad int
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Pad:       4,
	}
}

// Label draws text with the Hershey font
func (f Font) Label(img *gocv.Mat, text string, anchor image.Point, bg color.RGBA) error {

	size := gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)

	box := image.Rect(anchor.X, anchor.Y-size.Y-2*f.Pad, anchor.X+size.X+2*f.Pad, anchor.Y)
	gocv.Rectangle(img, box, bg, -1)

	gocv.PutTextWithParams(img, text, image.Pt(anchor.X+f.Pad, anchor.Y-f.Pad),
		f.Face, f.Scale, f.Color, f.Thickness, f.LineType, false)

	return nil
}

// TTFFontSize is the point size labels are rendered at with a TTF font
const TTFFontSize = 16

// TTFLabeler draws labels with a TrueType font
type TTFLabeler struct {
	face  font.Face
	Color color.RGBA
	Pad   int
}

// NewTTFLabeler loads the TTF font file
func NewTTFLabeler(path string) (*TTFLabeler, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	return NewTTFLabelerFromBytes(data)
}

// NewTTFLabelerFromBytes parses TTF font data
func NewTTFLabelerFromBytes(data []byte) (*TTFLabeler, error) {

	f, err := opentype.Parse(data)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    TTFFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return &TTFLabeler{face: face, Color: White, Pad: 4}, nil
}

// Label draws the text onto a transparent overlay which is then added to img
func (t *TTFLabeler) Label(img *gocv.Mat, text string, anchor image.Point, bg color.RGBA) error {

	width := font.MeasureString(t.face, text).Ceil()
	height := t.face.Metrics().Ascent.Ceil()

	box := image.Rect(anchor.X, anchor.Y-height-2*t.Pad, anchor.X+width+2*t.Pad, anchor.Y)
	gocv.Rectangle(img, box, bg, -1)

	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(t.Color),
		Face: t.face,
		Dot:  fixed.P(anchor.X+t.Pad, anchor.Y-t.Pad),
	}
	dr.DrawString(text)

	overlay, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)

	if err != nil {
		return fmt.Errorf("error creating Mat from RGBA: %w", err)
	}

	defer overlay.Close()

	gocv.CvtColor(overlay, &overlay, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, overlay, 1.0, 0, img)

	return nil
}
