package capture

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/colorblob/rimage"
	"go.viam.com/colorblob/vision/blob"
)

func writeFrames(t *testing.T, path string, frames ...*rimage.YUVFrame) {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		buf.Write(f.Pix)
	}
	test.That(t, os.WriteFile(path, buf.Bytes(), 0o600), test.ShouldBeNil)
}

func flatFrame(w, h int, y uint8) *rimage.YUVFrame {
	f := rimage.NewYUVFrame(w, h, rimage.YUV420)
	f.Fill(rimage.YUV{Y: y, U: 128, V: 128})
	return f
}

func TestFileSourceCycles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.yuv")
	writeFrames(t, path, flatFrame(8, 8, 10), flatFrame(8, 8, 20), flatFrame(8, 8, 30))
	// a trailing partial frame is ignored
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	test.That(t, err, test.ShouldBeNil)
	_, err = f.Write([]byte{1, 2, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	src, err := NewFileSource(path, 8, 8, rimage.YUV420)
	test.That(t, err, test.ShouldBeNil)
	defer src.Close()
	test.That(t, src.NumFrames(), test.ShouldEqual, 3)

	for _, want := range []uint8{10, 20, 30, 10} {
		frame, err := src.NextFrame(context.Background())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, frame.At(3, 3).Y, test.ShouldEqual, want)
		// scribbling on the frame does not change what is replayed
		frame.Fill(rimage.YUV{})
	}
}

func TestFileSourceGuessesSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.yuv")
	writeFrames(t, path, flatFrame(640, 480, 77))

	src, err := NewFileSource(path, 0, 0, rimage.YUV444)
	test.That(t, err, test.ShouldBeNil)
	frame, err := src.NextFrame(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Width, test.ShouldEqual, 640)
	test.That(t, frame.Height, test.ShouldEqual, 480)
	test.That(t, frame.Layout, test.ShouldEqual, rimage.YUV420)
	test.That(t, frame.At(100, 100).Y, test.ShouldEqual, uint8(77))
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFileSource(filepath.Join(dir, "missing.yuv"), 8, 8, rimage.YUV420)
	test.That(t, err, test.ShouldNotBeNil)

	odd := filepath.Join(dir, "odd.yuv")
	test.That(t, os.WriteFile(odd, make([]byte, 1234), 0o600), test.ShouldBeNil)
	_, err = NewFileSource(odd, 0, 0, rimage.YUV420)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unrecognized file size")

	_, err = NewFileSource(odd, 64, 64, rimage.YUV420)
	test.That(t, errors.Is(err, rimage.ErrShortBuffer), test.ShouldBeTrue)

	_, err = NewFileSource(odd, -1, 8, rimage.YUV420)
	test.That(t, errors.Is(err, rimage.ErrInvalidGeometry), test.ShouldBeTrue)

	ok := filepath.Join(dir, "ok.yuv")
	writeFrames(t, ok, flatFrame(8, 8, 1))
	src, err := NewFileSource(ok, 8, 8, rimage.YUV420)
	test.That(t, err, test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.NextFrame(ctx)
	test.That(t, err, test.ShouldEqual, context.Canceled)
}

func TestTestPatternSource(t *testing.T) {
	src, err := NewTestPatternSource(64, 48, rimage.YUV420)
	test.That(t, err, test.ShouldBeNil)
	defer src.Close()

	bl, err := blob.NewBlobList(1000, 10)
	test.That(t, err, test.ShouldBeNil)
	defer bl.Close()
	params := blob.DetectParams{
		Thresholds: blob.Thresholds{
			YLow: TestPatternColor.Y, YHigh: TestPatternColor.Y,
			ULow: TestPatternColor.U, UHigh: TestPatternColor.U,
			VLow: TestPatternColor.V, VHigh: TestPatternColor.V,
		},
		MergeRows: true,
	}

	var prev []int
	for i := 0; i < 20; i++ {
		frame, err := src.NextFrame(context.Background())
		test.That(t, err, test.ShouldBeNil)
		n, err := bl.Detect(params, frame)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
		test.That(t, bl.Blobs()[0].Rect(), test.ShouldResemble, src.LastSquare())
		test.That(t, bl.Blobs()[0].Area, test.ShouldEqual, 36)
		pos := []int{src.LastSquare().Min.X, src.LastSquare().Min.Y}
		test.That(t, pos, test.ShouldNotResemble, prev)
		prev = pos
	}

	_, err = NewTestPatternSource(0, 10, rimage.YUV420)
	test.That(t, errors.Is(err, rimage.ErrInvalidGeometry), test.ShouldBeTrue)
}
