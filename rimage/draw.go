package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawRectangleEmpty draws the given rectangle into the context. The positions of the
// rectangle are used to place it within the context.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// Annotation is a labeled box drawn by DrawOverlay.
type Annotation struct {
	Box   image.Rectangle
	Label string
}

// OverlayColor is the stroke color of debug overlays.
var OverlayColor = color.NRGBA{R: 255, G: 0, B: 255, A: 255}

// DrawOverlay renders the luma plane of the frame in gray with every annotation outlined and
// labeled above its top left corner. Only luma is used, so no color conversion takes place.
func DrawOverlay(frame *YUVFrame, annotations []Annotation) image.Image {
	dc := gg.NewContextForImage(frame.Gray())
	fontSize := float64(frame.Height) / 40
	if fontSize < 8 {
		fontSize = 8
	}
	for _, a := range annotations {
		DrawRectangleEmpty(dc, a.Box, OverlayColor, 2)
		if a.Label != "" {
			at := image.Pt(a.Box.Min.X, a.Box.Min.Y-int(fontSize)-2)
			if at.Y < 0 {
				at.Y = a.Box.Max.Y + 2
			}
			DrawString(dc, a.Label, at, OverlayColor, fontSize)
		}
	}
	return dc.Image()
}

// WriteOverlayPNG draws the overlay for frame and saves it as a png.
func WriteOverlayPNG(path string, frame *YUVFrame, annotations []Annotation) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	return gg.SavePNG(path, DrawOverlay(frame, annotations))
}
