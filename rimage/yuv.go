// Package rimage holds the planar YUV frame type the detector scans, along with raw frame file
// helpers and debug overlays.
package rimage

import (
	"image"
	"math"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidGeometry is returned for frames with a non-positive width or height, or whose size
	// in bytes does not fit in an int.
	ErrInvalidGeometry = errors.New("frame width and height must be positive")
	// ErrShortBuffer is returned when a frame's pixel buffer is smaller than its geometry requires.
	ErrShortBuffer = errors.New("frame buffer too small for its geometry")
)

// YUVLayout describes how the chroma planes of a planar frame are subsampled relative to luma.
type YUVLayout int

const (
	// YUV420 is I420: a full resolution Y plane followed by U and V planes each subsampled by two
	// horizontally and vertically.
	YUV420 YUVLayout = iota
	// YUV422 subsamples chroma by two horizontally only.
	YUV422
	// YUV444 stores full resolution chroma planes.
	YUV444
)

func (l YUVLayout) String() string {
	switch l {
	case YUV420:
		return "yuv420"
	case YUV422:
		return "yuv422"
	case YUV444:
		return "yuv444"
	default:
		return "unknown"
	}
}

// ParseYUVLayout parses a layout name such as "yuv420" or "i420". The empty string means YUV420.
func ParseYUVLayout(name string) (YUVLayout, error) {
	switch strings.ToLower(name) {
	case "", "yuv420", "i420":
		return YUV420, nil
	case "yuv422":
		return YUV422, nil
	case "yuv444":
		return YUV444, nil
	}
	return YUV420, errors.Errorf("unknown yuv layout %q", name)
}

// ChromaShift returns the horizontal and vertical subsampling of the layout as shift amounts.
func (l YUVLayout) ChromaShift() (xShift, yShift uint) {
	switch l {
	case YUV422:
		return 1, 0
	case YUV444:
		return 0, 0
	default:
		return 1, 1
	}
}

// ChromaSize returns the dimensions of each chroma plane for a frame of the given size. Odd
// dimensions round up.
func (l YUVLayout) ChromaSize(width, height int) (int, int) {
	xs, ys := l.ChromaShift()
	return roundUpShift(width, xs), roundUpShift(height, ys)
}

func roundUpShift(n int, shift uint) int {
	if n&(1<<shift-1) != 0 {
		return n>>shift + 1
	}
	return n >> shift
}

// FrameSize returns the number of bytes a frame of the given size occupies, or 0 if the size is
// not positive or the byte count does not fit in an int.
func (l YUVLayout) FrameSize(width, height int) int {
	size, _ := l.frameSize(width, height)
	return size
}

func (l YUVLayout) frameSize(width, height int) (int, bool) {
	if width <= 0 || height <= 0 || width > math.MaxInt/height {
		return 0, false
	}
	luma := width * height
	cw, ch := l.ChromaSize(width, height)
	chroma := cw * ch
	if chroma > (math.MaxInt-luma)/2 {
		return 0, false
	}
	return luma + 2*chroma, true
}

// YUV is a single pixel value.
type YUV struct {
	Y, U, V uint8
}

// YUVFrame is a planar frame: the Y plane, then the U plane, then the V plane, packed without
// row padding.
type YUVFrame struct {
	Width  int
	Height int
	Layout YUVLayout
	Pix    []byte
}

// NewYUVFrame allocates a zeroed frame. A frame whose size is not positive or not representable
// gets no buffer and fails Validate.
func NewYUVFrame(width, height int, layout YUVLayout) *YUVFrame {
	frame := &YUVFrame{Width: width, Height: height, Layout: layout}
	if size, ok := layout.frameSize(width, height); ok {
		frame.Pix = make([]byte, size)
	}
	return frame
}

// Validate checks that the geometry is positive, that its byte count fits in an int, and that
// the buffer is large enough for it.
func (f *YUVFrame) Validate() error {
	if f == nil {
		return ErrInvalidGeometry
	}
	need, ok := f.Layout.frameSize(f.Width, f.Height)
	if !ok {
		return ErrInvalidGeometry
	}
	if len(f.Pix) < need {
		return errors.Wrapf(ErrShortBuffer, "%dx%d %s needs %d bytes, have %d",
			f.Width, f.Height, f.Layout, need, len(f.Pix))
	}
	return nil
}

// Planes returns the three planes of the frame. The frame must be valid.
func (f *YUVFrame) Planes() (y, u, v []byte) {
	cw, ch := f.Layout.ChromaSize(f.Width, f.Height)
	lumaSize := f.Width * f.Height
	chromaSize := cw * ch
	return f.Pix[:lumaSize],
		f.Pix[lumaSize : lumaSize+chromaSize],
		f.Pix[lumaSize+chromaSize : lumaSize+2*chromaSize]
}

// Rows returns the luma row `row` and the chroma rows covering it. Chroma for column c of the
// luma row is at index c>>xShift of the chroma rows, with xShift from ChromaShift.
func (f *YUVFrame) Rows(row int) (y, u, v []byte) {
	yp, up, vp := f.Planes()
	_, ys := f.Layout.ChromaShift()
	cw, _ := f.Layout.ChromaSize(f.Width, f.Height)
	crow := row >> ys
	y = yp[row*f.Width : (row+1)*f.Width]
	u = up[crow*cw : (crow+1)*cw]
	v = vp[crow*cw : (crow+1)*cw]
	return y, u, v
}

func (f *YUVFrame) chromaIndex(x, y int) int {
	xs, ys := f.Layout.ChromaShift()
	cw, _ := f.Layout.ChromaSize(f.Width, f.Height)
	return (y>>ys)*cw + (x >> xs)
}

// At returns the pixel at (x, y).
func (f *YUVFrame) At(x, y int) YUV {
	yp, up, vp := f.Planes()
	ci := f.chromaIndex(x, y)
	return YUV{yp[y*f.Width+x], up[ci], vp[ci]}
}

// Set writes the pixel at (x, y). With subsampled layouts the chroma sample is shared with the
// neighboring pixels it covers.
func (f *YUVFrame) Set(x, y int, c YUV) {
	yp, up, vp := f.Planes()
	ci := f.chromaIndex(x, y)
	yp[y*f.Width+x] = c.Y
	up[ci] = c.U
	vp[ci] = c.V
}

// Bounds returns the frame rectangle.
func (f *YUVFrame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// FillRect sets every pixel of r, clipped to the frame, to c. Chroma samples that r only
// partially covers are overwritten too.
func (f *YUVFrame) FillRect(r image.Rectangle, c YUV) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	yp, up, vp := f.Planes()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := yp[y*f.Width : (y+1)*f.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = c.Y
		}
	}

	xs, ys := f.Layout.ChromaShift()
	cw, _ := f.Layout.ChromaSize(f.Width, f.Height)
	for cy := r.Min.Y >> ys; cy <= (r.Max.Y-1)>>ys; cy++ {
		for cx := r.Min.X >> xs; cx <= (r.Max.X-1)>>xs; cx++ {
			up[cy*cw+cx] = c.U
			vp[cy*cw+cx] = c.V
		}
	}
}

// Fill sets every pixel in the frame to c.
func (f *YUVFrame) Fill(c YUV) {
	f.FillRect(f.Bounds(), c)
}

// Clone returns a deep copy of the frame.
func (f *YUVFrame) Clone() *YUVFrame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &YUVFrame{Width: f.Width, Height: f.Height, Layout: f.Layout, Pix: pix}
}

// Gray returns the luma plane as a gray image sharing the frame's memory.
func (f *YUVFrame) Gray() *image.Gray {
	y, _, _ := f.Planes()
	return &image.Gray{Pix: y, Stride: f.Width, Rect: f.Bounds()}
}

// YCbCr returns an image.YCbCr sharing the frame's memory, for handing frames to image tooling.
func (f *YUVFrame) YCbCr() *image.YCbCr {
	y, u, v := f.Planes()
	cw, _ := f.Layout.ChromaSize(f.Width, f.Height)
	ratio := image.YCbCrSubsampleRatio420
	switch f.Layout {
	case YUV422:
		ratio = image.YCbCrSubsampleRatio422
	case YUV444:
		ratio = image.YCbCrSubsampleRatio444
	}
	return &image.YCbCr{
		Y:              y,
		Cb:             u,
		Cr:             v,
		YStride:        f.Width,
		CStride:        cw,
		SubsampleRatio: ratio,
		Rect:           f.Bounds(),
	}
}
