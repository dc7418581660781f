package rimage

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestGuessFrameSize(t *testing.T) {
	w, h, ok := GuessFrameSize(640 * 480 * 3 / 2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, w, test.ShouldEqual, 640)
	test.That(t, h, test.ShouldEqual, 480)

	w, h, ok = GuessFrameSize(3280 * 2464 * 3 / 2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, w, test.ShouldEqual, 3280)
	test.That(t, h, test.ShouldEqual, 2464)

	_, _, ok = GuessFrameSize(12345)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestYUVFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.yuv")

	frame := NewYUVFrame(640, 480, YUV420)
	frame.Fill(YUV{16, 128, 128})
	frame.Set(100, 200, YUV{235, 90, 240})
	test.That(t, WriteYUVFile(path, frame), test.ShouldBeNil)

	read, err := ReadYUVFile(path, 640, 480, YUV420)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.At(100, 200), test.ShouldResemble, YUV{235, 90, 240})
	test.That(t, read.At(0, 0), test.ShouldResemble, YUV{16, 128, 128})

	guessed, err := ReadYUVFileGuessSize(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, guessed.Width, test.ShouldEqual, 640)
	test.That(t, guessed.Height, test.ShouldEqual, 480)
	test.That(t, guessed.Pix, test.ShouldResemble, read.Pix)

	_, err = ReadYUVFile(path, 1920, 1080, YUV420)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "too small")
}

func TestReadYUVFileUnknownSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.yuv")
	test.That(t, os.WriteFile(path, make([]byte, 100), 0o644), test.ShouldBeNil)
	_, err := ReadYUVFileGuessSize(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unrecognized file size")

	_, err = ReadYUVFileGuessSize(filepath.Join(t.TempDir(), "missing.yuv"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}
