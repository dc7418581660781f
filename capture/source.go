// Package capture runs the per-frame pipeline: pull a frame from a source, detect blobs with the
// current control parameters, optionally draw and write the result, and hand blobs downstream.
package capture

import (
	"context"
	"image"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/colorblob/rimage"
)

// Source produces frames. The returned frame belongs to the source and is only valid until the
// next call to NextFrame; callers may modify it in between.
type Source interface {
	NextFrame(ctx context.Context) (*rimage.YUVFrame, error)
	Close() error
}

// FileSource replays the frames of a headerless raw .yuv file in a loop.
type FileSource struct {
	data      []byte
	frameSize int
	numFrames int
	next      int
	frame     *rimage.YUVFrame
}

// NewFileSource reads the file at path. With a zero width and height the file must hold a single
// I420 frame of one of the known camera sizes. Otherwise the file holds one or more frames of the
// given geometry and any trailing partial frame is ignored.
func NewFileSource(path string, width, height int, layout rimage.YUVLayout) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open frame source")
	}
	if width == 0 && height == 0 {
		var ok bool
		width, height, ok = rimage.GuessFrameSize(len(data))
		if !ok {
			return nil, errors.Errorf("read %d bytes from %s; unrecognized file size", len(data), path)
		}
		layout = rimage.YUV420
	}
	frame := rimage.NewYUVFrame(width, height, layout)
	if err := frame.Validate(); err != nil {
		return nil, errors.Wrapf(err, "frame source %s", path)
	}
	frameSize := len(frame.Pix)
	if len(data) < frameSize {
		return nil, errors.Wrapf(rimage.ErrShortBuffer, "%s holds %d bytes, one %dx%d %s frame needs %d",
			path, len(data), width, height, layout, frameSize)
	}
	return &FileSource{
		data:      data,
		frameSize: frameSize,
		numFrames: len(data) / frameSize,
		frame:     frame,
	}, nil
}

// NumFrames returns how many whole frames the file holds.
func (fs *FileSource) NumFrames() int {
	return fs.numFrames
}

// Geometry returns the size and layout of the replayed frames.
func (fs *FileSource) Geometry() (width, height int, layout rimage.YUVLayout) {
	return fs.frame.Width, fs.frame.Height, fs.frame.Layout
}

// NextFrame copies the next frame of the file into the source's frame buffer.
func (fs *FileSource) NextFrame(ctx context.Context) (*rimage.YUVFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	off := fs.next * fs.frameSize
	copy(fs.frame.Pix, fs.data[off:off+fs.frameSize])
	fs.next = (fs.next + 1) % fs.numFrames
	return fs.frame, nil
}

// Close releases the file contents.
func (fs *FileSource) Close() error {
	fs.data = nil
	return nil
}

// TestPatternSource renders a square of a fixed color that moves across a flat background, for
// checking thresholds without a camera.
type TestPatternSource struct {
	frame      *rimage.YUVFrame
	background rimage.YUV
	color      rimage.YUV
	size       int
	seq        int
	last       image.Rectangle
}

// Test pattern defaults: a mid-gray background and a saturated red square.
var (
	TestPatternBackground = rimage.YUV{Y: 128, U: 128, V: 128}
	TestPatternColor      = rimage.YUV{Y: 82, U: 90, V: 240}
)

// NewTestPatternSource returns a source rendering frames of the given geometry.
func NewTestPatternSource(width, height int, layout rimage.YUVLayout) (*TestPatternSource, error) {
	frame := rimage.NewYUVFrame(width, height, layout)
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return &TestPatternSource{
		frame:      frame,
		background: TestPatternBackground,
		color:      TestPatternColor,
		size:       max(1, min(width, height)/8),
	}, nil
}

// NextFrame renders the next frame.
func (tp *TestPatternSource) NextFrame(ctx context.Context) (*rimage.YUVFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := tp.frame.Width, tp.frame.Height
	x := (tp.seq * 4) % (w - tp.size + 1)
	y := (tp.seq * 2) % (h - tp.size + 1)
	tp.seq++

	tp.frame.Fill(tp.background)
	tp.last = image.Rect(x, y, x+tp.size, y+tp.size)
	tp.frame.FillRect(tp.last, tp.color)
	return tp.frame, nil
}

// LastSquare returns where the square was drawn in the most recent frame.
func (tp *TestPatternSource) LastSquare() image.Rectangle {
	return tp.last
}

// Close does nothing.
func (tp *TestPatternSource) Close() error {
	return nil
}
