package rimage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// BT.601 studio swing conversion in 8 bit fixed point.
func yFromRGB(r, g, b int) uint8 {
	return uint8(((66*r + 129*g + 25*b + 128) >> 8) + 16)
}

func uFromRGB(r, g, b int) uint8 {
	return uint8(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
}

func vFromRGB(r, g, b int) uint8 {
	return uint8(((112*r - 94*g - 18*b + 128) >> 8) + 128)
}

// ToYUV converts an 8 bit RGB color.
func ToYUV(c color.Color) YUV {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	r, g, b := int(n.R), int(n.G), int(n.B)
	return YUV{yFromRGB(r, g, b), uFromRGB(r, g, b), vFromRGB(r, g, b)}
}

// FromImage converts img to an I420 frame. Each chroma sample is the rounded mean of the chroma of
// the pixels it covers.
func FromImage(img image.Image) *YUVFrame {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	frame := NewYUVFrame(b.Dx(), b.Dy(), YUV420)
	if frame.Pix == nil {
		return frame
	}
	yp, up, vp := frame.Planes()
	cw, ch := frame.Layout.ChromaSize(frame.Width, frame.Height)
	uSum := make([]int, cw*ch)
	vSum := make([]int, cw*ch)
	count := make([]int, cw*ch)

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			off := y*nrgba.Stride + x*4
			r, g, bl := int(nrgba.Pix[off]), int(nrgba.Pix[off+1]), int(nrgba.Pix[off+2])
			yp[y*frame.Width+x] = yFromRGB(r, g, bl)
			ci := (y>>1)*cw + (x >> 1)
			uSum[ci] += int(uFromRGB(r, g, bl))
			vSum[ci] += int(vFromRGB(r, g, bl))
			count[ci]++
		}
	}
	for i := range count {
		up[i] = uint8((uSum[i] + count[i]/2) / count[i])
		vp[i] = uint8((vSum[i] + count[i]/2) / count[i])
	}
	return frame
}

// ReadImageFile decodes a jpeg or png file and converts it to an I420 frame.
func ReadImageFile(path string) (*YUVFrame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read %s", path)
	}
	return FromImage(img), nil
}
